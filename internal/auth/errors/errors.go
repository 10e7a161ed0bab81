package errors

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserExists = errors.New("user already registered")
)
