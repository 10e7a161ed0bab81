package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"strings"
	"testing"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	consume := m.ConsumerMiddleware()
	publish := m.ProducerMiddleware()
	ctx := context.Background()

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("boom") }

	_ = consume(ctx, kafka.Message{}, ok)
	_ = consume(ctx, kafka.Message{}, ok)
	_ = consume(ctx, kafka.Message{}, fail)
	_ = publish(ctx, kafka.Message{}, fail)

	s := m.Snapshot()
	if s.Consumed != 2 || s.ConsumeFailed != 1 {
		t.Errorf("unexpected consume counts %+v", s)
	}
	if s.Published != 0 || s.PublishFailed != 1 {
		t.Errorf("unexpected publish counts %+v", s)
	}
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	_ = a.ConsumerMiddleware()(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error { return nil })

	if b.Snapshot().Consumed != 0 {
		t.Errorf("metrics leaked between instances")
	}
}

func TestLoggingConsumerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.INFO, Format: logger.JSON, Output: &buf, Service: "test"})
	mw := LoggingConsumerMiddleware(log)

	msg := kafka.Message{Key: "k1", Headers: map[string]string{kafka.HeaderEventID: "e1"}}
	err := mw(context.Background(), msg, func(context.Context, kafka.Message) error { return errors.New("store down") })

	if err == nil {
		t.Fatal("middleware must pass the handler error through")
	}
	out := buf.String()
	if !strings.Contains(out, `"event_id":"e1"`) || !strings.Contains(out, "store down") {
		t.Errorf("unexpected log output %s", out)
	}
}
