package model

import "sort"

// Offering is one bookable room type at one hotel on one date.
type Offering struct {
	HotelID       string  `json:"hotel_id" validate:"required,max=128"`
	HotelName     string  `json:"hotel_name" validate:"max=200"`
	Location      string  `json:"location" validate:"max=100"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	RoomType      string  `json:"room_type" validate:"required,max=100"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0"`
	Total         int     `json:"total" validate:"gte=0"`
	Available     int     `json:"available" validate:"gte=0"`
}

// Room is the per-room-type inventory inside a HotelDay.
type Room struct {
	Total         int     `json:"total" validate:"gte=0"`
	Available     int     `json:"available" validate:"gte=0,ltefield=Total"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0"`
}

// HotelDay is the catalog entry stored under hotels/{entry}. Older entries
// omit Date and are keyed by it instead.
type HotelDay struct {
	HotelID   string          `json:"hotel_id" validate:"required,max=128"`
	HotelName string          `json:"hotel_name" validate:"required,max=200"`
	Location  string          `json:"location" validate:"required,max=100"`
	Date      string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Rooms     map[string]Room `json:"rooms" validate:"required,min=1,dive"`
}

// Offerings flattens the day into one Offering per room type, ordered by room type.
func (h *HotelDay) Offerings() []*Offering {
	roomTypes := make([]string, 0, len(h.Rooms))
	for roomType := range h.Rooms {
		roomTypes = append(roomTypes, roomType)
	}
	sort.Strings(roomTypes)

	out := make([]*Offering, 0, len(roomTypes))
	for _, roomType := range roomTypes {
		room := h.Rooms[roomType]
		out = append(out, &Offering{
			HotelID:       h.HotelID,
			HotelName:     h.HotelName,
			Location:      h.Location,
			Date:          h.Date,
			RoomType:      roomType,
			PricePerNight: room.PricePerNight,
			Total:         room.Total,
			Available:     room.Available,
		})
	}
	return out
}
