package repository

import (
	"context"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	"staybook/pkg/model"
)

const (
	BookingsRoot = "hotelBookings"
	LocksRoot    = "bookingLocks"
)

type BookingRepository interface {
	// FindAll returns every user's bookings, each with Key set.
	FindAll(ctx context.Context) ([]*model.BookingRecord, error)
	// FindByUser returns userID's bookings in key order.
	FindByUser(ctx context.Context, userID string) ([]*model.BookingRecord, error)
	Put(ctx context.Context, userID, key string, record *model.BookingRecord) error
	// Delete removes one booking. Deleting a missing booking succeeds.
	Delete(ctx context.Context, userID, key string) error
}

type docstoreBookingRepository struct {
	cfg   *config.Config
	store docstore.Store
}

func NewBookingRepository(store docstore.Store, cfg *config.Config) BookingRepository {
	return &docstoreBookingRepository{
		cfg:   cfg,
		store: store,
	}
}

func BookingPath(userID, key string) string {
	return docstore.Join(BookingsRoot, userID, key)
}

func (r *docstoreBookingRepository) readPolicy() docstore.RetryPolicy {
	return docstore.RetryPolicy{
		Retries: r.cfg.StoreReadRetries,
		Backoff: r.cfg.StoreRetryBackoff,
		Timeout: r.cfg.StoreReadTimeout,
	}
}

func (r *docstoreBookingRepository) FindAll(ctx context.Context) ([]*model.BookingRecord, error) {
	snap, err := docstore.GetWithRetry(ctx, r.store, BookingsRoot, r.readPolicy())
	if err != nil {
		return nil, err
	}

	var records []*model.BookingRecord
	for _, user := range snap.Children() {
		records = append(records, r.decodeRecords(user)...)
	}
	return records, nil
}

func (r *docstoreBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.BookingRecord, error) {
	snap, err := docstore.GetWithRetry(ctx, r.store, docstore.Join(BookingsRoot, userID), r.readPolicy())
	if err != nil {
		return nil, err
	}
	return r.decodeRecords(snap), nil
}

// decodeRecords skips children that are not objects or do not decode.
func (r *docstoreBookingRepository) decodeRecords(user *docstore.Snapshot) []*model.BookingRecord {
	children := user.Children()
	records := make([]*model.BookingRecord, 0, len(children))
	for _, child := range children {
		if !child.IsObject() {
			continue
		}
		var record model.BookingRecord
		if err := child.Decode(&record); err != nil {
			r.cfg.Log.Warn("Skipping malformed booking record",
				"path", child.Path(),
				"error", err,
			)
			continue
		}
		record.Key = child.Key()
		records = append(records, &record)
	}
	return records
}

func (r *docstoreBookingRepository) Put(ctx context.Context, userID, key string, record *model.BookingRecord) error {
	ctx, cancel := docstore.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	return r.store.Set(ctx, BookingPath(userID, key), record.Stored())
}

func (r *docstoreBookingRepository) Delete(ctx context.Context, userID, key string) error {
	ctx, cancel := docstore.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	return r.store.Remove(ctx, BookingPath(userID, key))
}
