package repository

import (
	"context"
	"fmt"
	offeringserrors "staybook/internal/offerings/errors"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	"staybook/pkg/model"
)

const HotelsRoot = "hotels"

type OfferingRepository interface {
	// FindAll flattens every catalog entry into offerings.
	FindAll(ctx context.Context) ([]*model.Offering, error)
	// Put overwrites the catalog entry hotels/{entry}.
	Put(ctx context.Context, entry string, day *model.HotelDay) error
	// Watch calls fn with the flattened catalog now and after every change.
	Watch(ctx context.Context, fn func([]*model.Offering)) (func(), error)
}

type docstoreOfferingRepository struct {
	cfg   *config.Config
	store docstore.Store
}

func NewOfferingRepository(store docstore.Store, cfg *config.Config) OfferingRepository {
	return &docstoreOfferingRepository{
		cfg:   cfg,
		store: store,
	}
}

// EntryKey is the catalog child name used for new entries.
func EntryKey(hotelID, date string) string {
	return hotelID + "_" + date
}

func (r *docstoreOfferingRepository) FindAll(ctx context.Context) ([]*model.Offering, error) {
	snap, err := docstore.GetWithRetry(ctx, r.store, HotelsRoot, docstore.RetryPolicy{
		Retries: r.cfg.StoreReadRetries,
		Backoff: r.cfg.StoreRetryBackoff,
		Timeout: r.cfg.StoreReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return r.flatten(snap), nil
}

func (r *docstoreOfferingRepository) Put(ctx context.Context, entry string, day *model.HotelDay) error {
	if err := docstore.ValidateSegment(entry); err != nil {
		return fmt.Errorf("%w: %v", offeringserrors.ErrInvalidEntry, err)
	}

	ctx, cancel := docstore.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	if err := r.store.Set(ctx, docstore.Join(HotelsRoot, entry), day); err != nil {
		return fmt.Errorf("failed to write catalog entry %s: %w", entry, err)
	}
	return nil
}

func (r *docstoreOfferingRepository) Watch(ctx context.Context, fn func([]*model.Offering)) (func(), error) {
	return r.store.Subscribe(ctx, HotelsRoot, func(snap *docstore.Snapshot) {
		fn(r.flatten(snap))
	})
}

// flatten turns each hotels/{entry} into one offering per room type. Entries
// without a date field take the entry key as their date.
func (r *docstoreOfferingRepository) flatten(snap *docstore.Snapshot) []*model.Offering {
	var offerings []*model.Offering
	for _, entry := range snap.Children() {
		if !entry.IsObject() {
			continue
		}
		var day model.HotelDay
		if err := entry.Decode(&day); err != nil {
			r.cfg.Log.Warn("Skipping malformed catalog entry",
				"path", entry.Path(),
				"error", err,
			)
			continue
		}
		if day.Date == "" {
			day.Date = entry.Key()
		}
		for _, offering := range day.Offerings() {
			if offering.Location == "" || offering.RoomType == "" {
				continue
			}
			offerings = append(offerings, offering)
		}
	}
	return offerings
}
