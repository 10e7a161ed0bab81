package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyStore struct {
	Store
	failures int
	err      error
	calls    int
}

func (f *flakyStore) Get(ctx context.Context, path string) (*Snapshot, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return NewSnapshot(path, "ok"), nil
}

func TestGetWithRetry_RecoversFromTransientFailure(t *testing.T) {
	store := &flakyStore{failures: 2, err: errors.New("unreachable")}
	snap, err := GetWithRetry(context.Background(), store, "hotels", RetryPolicy{Retries: 2, Backoff: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Value() != "ok" {
		t.Errorf("unexpected value %v", snap.Value())
	}
	if store.calls != 3 {
		t.Errorf("expected 3 calls, got %d", store.calls)
	}
}

func TestGetWithRetry_GivesUp(t *testing.T) {
	cause := errors.New("unreachable")
	store := &flakyStore{failures: 10, err: cause}
	_, err := GetWithRetry(context.Background(), store, "hotels", RetryPolicy{Retries: 1, Backoff: time.Millisecond})
	if !errors.Is(err, cause) {
		t.Fatalf("expected last error, got %v", err)
	}
	if store.calls != 2 {
		t.Errorf("expected 2 calls, got %d", store.calls)
	}
}

func TestGetWithRetry_InvalidPathIsNotRetried(t *testing.T) {
	store := &flakyStore{failures: 10, err: ErrInvalidPath}
	_, err := GetWithRetry(context.Background(), store, "a.b", RetryPolicy{Retries: 3, Backoff: time.Millisecond})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
	if store.calls != 1 {
		t.Errorf("expected a single call, got %d", store.calls)
	}
}

func TestWithTimeout_KeepsExistingDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	ctx, cancel2 := WithTimeout(parent, time.Millisecond)
	defer cancel2()

	want, _ := parent.Deadline()
	got, ok := ctx.Deadline()
	if !ok || !got.Equal(want) {
		t.Errorf("expected parent deadline %v, got %v", want, got)
	}
}
