package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrNoSession = errors.New("no user is signed in")

	ErrTransport = errors.New("document store unreachable")

	ErrRoomNoLongerAvailable = errors.New("room is no longer available")

	ErrSlotLocked = errors.New("booking slot is locked by another reservation")

	ErrBookingWriteFailed = errors.New("booking write failed")

	ErrBookingDeleteFailed = errors.New("booking delete failed")

	ErrReservedKey = errors.New("booking key uses the temporary prefix")
)
