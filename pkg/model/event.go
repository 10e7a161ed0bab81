package model

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

type BookingEvent struct {
	EventID    string    `json:"event_id,omitempty"`
	EventType  string    `json:"event_type"`
	Key        string    `json:"key"`
	UserID     string    `json:"user_id"`
	HotelID    string    `json:"hotel_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	RoomType   string    `json:"room_type,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, key string, record *BookingRecord, now time.Time) *BookingEvent {
	ev := &BookingEvent{
		EventType:  eventType,
		Key:        key,
		OccurredAt: now.UTC(),
	}
	if record != nil {
		ev.UserID = record.UserID
		ev.HotelID = record.HotelID
		ev.Date = record.Date
		ev.RoomType = record.RoomType
	}
	return ev
}
