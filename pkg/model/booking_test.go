package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestBookingKey(t *testing.T) {
	tests := []struct {
		name     string
		offering Offering
		want     string
	}{
		{
			name:     "whitespace in room type",
			offering: Offering{HotelID: "H1", Date: "2024-08-01", RoomType: "Deluxe Room"},
			want:     "H1_2024-08-01_Deluxe_Room",
		},
		{
			name:     "every whitespace rune replaced",
			offering: Offering{HotelID: "H2", Date: "2024-08-02", RoomType: "Sea  View\tSuite"},
			want:     "H2_2024-08-02_Sea__View_Suite",
		},
		{
			name:     "hotel id left as is",
			offering: Offering{HotelID: "H 3", Date: "2024-08-03", RoomType: "Single"},
			want:     "H 3_2024-08-03_Single",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.offering.BookingKey(); got != tt.want {
				t.Errorf("BookingKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewBookingRecord_FlattensOffering(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	offering := Offering{HotelID: "H1", HotelName: "Sea Breeze", Location: "Phuket", Date: "2024-08-01", RoomType: "Deluxe Room", PricePerNight: 100}

	record := NewBookingRecord(offering, "a@b_com", now)
	record.Key = "should-not-be-stored"

	data, err := json.Marshal(record.Stored())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for field, want := range map[string]any{
		"hotel_id":        "H1",
		"hotel_name":      "Sea Breeze",
		"location":        "Phuket",
		"date":            "2024-08-01",
		"room_type":       "Deluxe Room",
		"price_per_night": float64(100),
		"user_id":         "a@b_com",
		"booked_at":       "2024-07-01T10:00:00Z",
	} {
		if flat[field] != want {
			t.Errorf("field %s = %v, want %v", field, flat[field], want)
		}
	}
	if _, ok := flat["key"]; ok {
		t.Errorf("key must not be part of the stored value")
	}
	if record.Key != "should-not-be-stored" {
		t.Errorf("Stored() must not mutate the receiver")
	}
}

func TestTemporaryKey(t *testing.T) {
	key := NewTemporaryKey()
	if !strings.HasPrefix(key, TemporaryKeyPrefix) {
		t.Fatalf("expected prefix %q, got %q", TemporaryKeyPrefix, key)
	}
	if !IsTemporaryKey(key) {
		t.Errorf("IsTemporaryKey(%q) = false", key)
	}
	if IsTemporaryKey("H1_2024-08-01_Deluxe_Room") {
		t.Errorf("confirmed key reported as temporary")
	}
	if NewTemporaryKey() == key {
		t.Errorf("temporary keys should be unique")
	}
}

func TestBookingRecord_Matches(t *testing.T) {
	r := &BookingRecord{Offering: Offering{HotelID: "H1", Date: "2024-08-01", RoomType: "Deluxe Room"}}

	if !r.Matches("H1", "2024-08-01", "Deluxe Room") {
		t.Errorf("exact triple should match")
	}
	if r.Matches("H1", "2024-08-01", "deluxe room") {
		t.Errorf("match must be case-sensitive")
	}
	if r.Matches("H1", "2024-08-02", "Deluxe Room") {
		t.Errorf("different date should not match")
	}
}

func TestHotelDay_Offerings(t *testing.T) {
	day := &HotelDay{
		HotelID:   "H1",
		HotelName: "Sea Breeze",
		Location:  "Phuket",
		Date:      "2024-08-01",
		Rooms: map[string]Room{
			"Single":      {Total: 5, Available: 0, PricePerNight: 50},
			"Deluxe Room": {Total: 3, Available: 2, PricePerNight: 100},
		},
	}

	offerings := day.Offerings()
	if len(offerings) != 2 {
		t.Fatalf("expected 2 offerings, got %d", len(offerings))
	}
	if offerings[0].RoomType != "Deluxe Room" || offerings[1].RoomType != "Single" {
		t.Errorf("offerings should be ordered by room type, got %s, %s", offerings[0].RoomType, offerings[1].RoomType)
	}
	if offerings[0].Available != 2 || offerings[0].PricePerNight != 100 || offerings[0].Location != "Phuket" {
		t.Errorf("unexpected offering %+v", offerings[0])
	}
}

func TestBookingLock_Expired(t *testing.T) {
	now := time.Now()
	lock := &BookingLock{ExpiresAt: now.Add(time.Second)}
	if lock.Expired(now) {
		t.Errorf("lock should be live before ExpiresAt")
	}
	if !lock.Expired(now.Add(time.Second)) {
		t.Errorf("lock should be expired at ExpiresAt")
	}
}
