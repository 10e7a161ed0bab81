package model

import (
	"staybook/pkg/sanitizer"
	"strings"
	"time"

	"github.com/google/uuid"
)

const TemporaryKeyPrefix = "temp-"

// BookingRecord is the value stored at hotelBookings/{userId}/{key}. Key is the
// child name, filled on read and never written.
type BookingRecord struct {
	Key string `json:"key,omitempty"`
	Offering
	BookedAt string `json:"booked_at"`
	UserID   string `json:"user_id"`
}

// NewBookingRecord copies the offering and stamps it for userID.
func NewBookingRecord(offering Offering, userID string, now time.Time) *BookingRecord {
	return &BookingRecord{
		Offering: offering,
		BookedAt: now.UTC().Format(time.RFC3339Nano),
		UserID:   userID,
	}
}

// BookingKey builds {hotel_id}_{date}_{room_type} with whitespace in the room type replaced by "_".
func BookingKey(hotelID, date, roomType string) string {
	return hotelID + "_" + date + "_" + sanitizer.KeySegment(roomType)
}

func (o *Offering) BookingKey() string {
	return BookingKey(o.HotelID, o.Date, o.RoomType)
}

func NewTemporaryKey() string {
	return TemporaryKeyPrefix + uuid.NewString()
}

func IsTemporaryKey(key string) bool {
	return strings.HasPrefix(key, TemporaryKeyPrefix)
}

// Matches reports whether the record occupies the given slot. Comparison is exact.
func (b *BookingRecord) Matches(hotelID, date, roomType string) bool {
	return b.HotelID == hotelID && b.Date == date && b.RoomType == roomType
}

// SameHotelDay reports whether both records share (hotel_id, date).
func (b *BookingRecord) SameHotelDay(other *BookingRecord) bool {
	return b.HotelID == other.HotelID && b.Date == other.Date
}

// Stored returns a copy without the Key field, ready to be written.
func (b *BookingRecord) Stored() *BookingRecord {
	cp := *b
	cp.Key = ""
	return &cp
}
