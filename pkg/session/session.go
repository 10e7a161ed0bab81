// Package session holds the identity of the signed-in user: at most one email.
package session

import (
	"context"
	"errors"
)

// HeaderUserEmail carries the asserted user identity on HTTP requests.
const HeaderUserEmail = "X-User-Email"

var ErrReadOnly = errors.New("session is read-only")

type Store interface {
	// CurrentUserEmail reports the signed-in email, or ok=false when nobody is signed in.
	CurrentUserEmail(ctx context.Context) (email string, ok bool, err error)
	SetCurrentUserEmail(ctx context.Context, email string) error
	Clear(ctx context.Context) error
}
