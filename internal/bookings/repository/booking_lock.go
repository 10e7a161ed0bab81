package repository

import (
	"context"
	"errors"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	"staybook/pkg/model"
)

// BookingLockRepository provides operations for advisory slot locks.
// Only the first Create is atomic. Replacing an expired lock and Release are
// read-then-write, so two callers racing on an expired lock can both acquire
// it and a late Release can remove a newer holder's lock. The lock narrows the
// availability race without closing it.
type BookingLockRepository interface {
	// Acquire stores lock under key. An unexpired lock held by someone else
	// yields ErrSlotLocked, an expired one is replaced.
	Acquire(ctx context.Context, key string, lock *model.BookingLock) error
	// Release removes the lock under key if it is still lockID.
	Release(ctx context.Context, key, lockID string) error
}

type docstoreBookingLockRepository struct {
	cfg   *config.Config
	store docstore.Store
}

func NewBookingLockRepository(store docstore.Store, cfg *config.Config) BookingLockRepository {
	return &docstoreBookingLockRepository{
		cfg:   cfg,
		store: store,
	}
}

func LockPath(key string) string {
	return docstore.Join(LocksRoot, key)
}

func (r *docstoreBookingLockRepository) Acquire(ctx context.Context, key string, lock *model.BookingLock) error {
	ctx, cancel := docstore.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	err := r.store.Create(ctx, LockPath(key), lock)
	if !errors.Is(err, docstore.ErrExists) {
		return err
	}

	held, err := r.get(ctx, key)
	if err != nil {
		return err
	}
	if held != nil && !held.Expired(lock.CreatedAt) {
		return bookingserrors.ErrSlotLocked
	}

	r.cfg.Log.Info("Replacing expired booking lock",
		"key", key,
		"previous_lock_id", lockID(held),
	)
	return r.store.Set(ctx, LockPath(key), lock)
}

func (r *docstoreBookingLockRepository) Release(ctx context.Context, key, id string) error {
	ctx, cancel := docstore.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	held, err := r.get(ctx, key)
	if err != nil {
		return err
	}
	if held == nil || held.ID != id {
		return nil
	}
	return r.store.Remove(ctx, LockPath(key))
}

func (r *docstoreBookingLockRepository) get(ctx context.Context, key string) (*model.BookingLock, error) {
	snap, err := r.store.Get(ctx, LockPath(key))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, nil
	}
	var lock model.BookingLock
	if err := snap.Decode(&lock); err != nil {
		// unreadable locks are treated as expired
		return &model.BookingLock{}, nil
	}
	return &lock, nil
}

func lockID(l *model.BookingLock) string {
	if l == nil {
		return ""
	}
	return l.ID
}
