// Package audit records booking events delivered over kafka into the
// document store under bookingAudit/{userId}/{eventId}.
package audit

import (
	"context"
	"fmt"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	"staybook/pkg/kafka"
	"staybook/pkg/model"
	"time"
)

const AuditRoot = "bookingAudit"

// Entry is one stored audit line.
type Entry struct {
	model.BookingEvent
	Partition  int       `json:"partition"`
	Offset     int64     `json:"offset"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Recorder struct {
	store docstore.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewRecorder(store docstore.Store, cfg *config.Config) *Recorder {
	return &Recorder{store: store, cfg: cfg, now: time.Now}
}

func EntryPath(userID, eventID string) string {
	return docstore.Join(AuditRoot, userID, eventID)
}

// Handle is a kafka.MessageHandler. Undecodable or incomplete events are
// permanent failures, store failures are transient. Redelivered events
// overwrite their own entry.
func (r *Recorder) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable booking event", err)
	}
	if event.EventID == "" {
		event.EventID = msg.GetEventID()
	}
	if event.UserID == "" {
		event.UserID = msg.Headers[kafka.HeaderUserID]
	}
	if event.EventID == "" || event.UserID == "" {
		return kafka.NewPermanentError("booking event without event id or user id", nil)
	}
	if err := validate(event); err != nil {
		return kafka.NewPermanentError("booking event cannot be stored", err)
	}

	entry := Entry{
		BookingEvent: event,
		Partition:    msg.Partition,
		Offset:       msg.Offset,
		RecordedAt:   r.now().UTC(),
	}

	ctx, cancel := docstore.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	if err := r.store.Set(ctx, EntryPath(event.UserID, event.EventID), entry); err != nil {
		return kafka.NewTransientError("failed to write audit entry", err)
	}

	r.cfg.Log.Info("Booking event recorded",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"key", event.Key,
		"user_id", event.UserID,
	)
	return nil
}

func validate(event model.BookingEvent) error {
	for _, seg := range []string{event.UserID, event.EventID} {
		if err := docstore.ValidateSegment(seg); err != nil {
			return fmt.Errorf("%w: %v", docstore.ErrInvalidPath, err)
		}
	}
	return nil
}
