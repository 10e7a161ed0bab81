package errors

import "errors"

var (
	ErrNotFound = errors.New("offering not found")

	ErrInvalidEntry = errors.New("catalog entry cannot be stored")
)
