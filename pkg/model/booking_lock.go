package model

import "time"

// BookingLock is an advisory lock on one booking slot, stored at bookingLocks/{key}.
// It narrows the window between the availability check and the write.
type BookingLock struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *BookingLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
