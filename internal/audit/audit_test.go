package audit

import (
	"context"
	"encoding/json"
	"errors"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	"staybook/pkg/docstore/memory"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder(store docstore.Store) *Recorder {
	r := NewRecorder(store, &config.Config{Log: logger.Discard(), StoreWriteTimeout: time.Second})
	r.now = func() time.Time { return time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC) }
	return r
}

func message(t *testing.T, event *model.BookingEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{
		Key:       event.Key,
		Value:     value,
		Headers:   map[string]string{kafka.HeaderEventID: event.EventID, kafka.HeaderUserID: event.UserID},
		Partition: 2,
		Offset:    41,
	}
}

func TestRecorder_WritesEntry(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := newRecorder(store)

	event := &model.BookingEvent{
		EventID:   "ev-1",
		EventType: model.EventBookingCreated,
		Key:       "H1_2024-08-01_Deluxe_Room",
		UserID:    "a@b_com",
		HotelID:   "H1",
	}
	require.NoError(t, r.Handle(ctx, message(t, event)))
	require.NoError(t, r.Handle(ctx, message(t, event)), "redelivery overwrites")

	snap, err := store.Get(ctx, "bookingAudit/a@b_com")
	require.NoError(t, err)
	require.Len(t, snap.Children(), 1)

	var entry Entry
	require.NoError(t, snap.Child("ev-1").Decode(&entry))
	assert.Equal(t, model.EventBookingCreated, entry.EventType)
	assert.Equal(t, int64(41), entry.Offset)
	assert.Equal(t, 2, entry.Partition)
}

func TestRecorder_FallsBackToHeaders(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := newRecorder(store)

	msg := message(t, &model.BookingEvent{EventID: "ev-2", UserID: "a@b_com", EventType: model.EventBookingCancelled, Key: "k"})
	msg.Value = []byte(`{"event_type":"booking.cancelled","key":"k"}`)
	require.NoError(t, r.Handle(ctx, msg))

	snap, err := store.Get(ctx, EntryPath("a@b_com", "ev-2"))
	require.NoError(t, err)
	assert.True(t, snap.Exists())
}

func TestRecorder_PermanentFailures(t *testing.T) {
	r := newRecorder(memory.New())

	tests := []struct {
		name string
		msg  kafka.Message
	}{
		{"bad json", kafka.Message{Value: []byte("{"), Headers: map[string]string{}}},
		{"no ids", kafka.Message{Value: []byte(`{"key":"k"}`), Headers: map[string]string{}}},
		{"unstorable user", kafka.Message{Value: []byte(`{"event_id":"e","user_id":"a.b"}`), Headers: map[string]string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Handle(context.Background(), tt.msg)
			require.Error(t, err)
			assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
		})
	}
}

type brokenStore struct{ docstore.Store }

func (brokenStore) Set(ctx context.Context, path string, value any) error {
	return errors.New("unreachable")
}

func TestRecorder_StoreFailureIsTransient(t *testing.T) {
	r := newRecorder(brokenStore{})
	err := r.Handle(context.Background(), message(t, &model.BookingEvent{EventID: "e", UserID: "u", Key: "k"}))
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}
