package session

import "context"

type emailKey struct{}

// WithEmail returns a copy of ctx that carries the signed-in email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey{}, email)
}

func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey{}).(string)
	return email, ok && email != ""
}

// RequestStore resolves the session from the request context. The identity is
// put there by the HTTP session middleware and cannot be changed by the
// coordinator.
type RequestStore struct{}

func NewRequestStore() RequestStore {
	return RequestStore{}
}

func (RequestStore) CurrentUserEmail(ctx context.Context) (string, bool, error) {
	email, ok := EmailFromContext(ctx)
	return email, ok, nil
}

func (RequestStore) SetCurrentUserEmail(ctx context.Context, email string) error {
	return ErrReadOnly
}

func (RequestStore) Clear(ctx context.Context) error {
	return ErrReadOnly
}
