// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"fmt"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

const SchemaVersion = "1"

type Publisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher sends each event keyed by booking key so every event of one
// slot lands on the same partition.
type KafkaPublisher struct {
	producer messagePublisher
	source   string
}

func NewKafkaPublisher(producer messagePublisher, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := Message(event, p.source)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Message encodes event as a kafka message.
func Message(event *model.BookingEvent, source string) (kafka.Message, error) {
	if event == nil || event.Key == "" {
		return kafka.Message{}, fmt.Errorf("booking event needs a key")
	}
	return kafka.NewMessage().
		WithKey(event.Key).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(event.EventType).
		WithHeader(kafka.HeaderUserID, event.UserID).
		WithHeader(kafka.HeaderSchemaVersion, SchemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		Build()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event *model.BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }

// New returns a Kafka-backed publisher when enabled, otherwise a no-op one.
func New(enabled bool, source string, log *logger.Logger) (Publisher, error) {
	if !enabled {
		log.Info("Booking events disabled")
		return NoopPublisher{}, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, err
	}
	kafkaCfg.LogConfiguration(log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, kafkaCfg.BookingEventsDLQ, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking events producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	}
	return NewKafkaPublisher(producer, source), nil
}
