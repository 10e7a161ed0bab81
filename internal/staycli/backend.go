// Package staycli implements the staycli command line client. Commands run
// against a Backend that either drives the booking services in process or
// calls a staybook server.
package staycli

import (
	"context"
	"errors"
	authservice "staybook/internal/auth/service"
	"staybook/internal/bookings/overlay"
	bookingrepository "staybook/internal/bookings/repository"
	bookingservice "staybook/internal/bookings/service"
	bookingvalidator "staybook/internal/bookings/validator"
	offeringrepository "staybook/internal/offerings/repository"
	offeringservice "staybook/internal/offerings/service"
	offeringvalidator "staybook/internal/offerings/validator"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/events"
	"staybook/pkg/model"
	"staybook/pkg/session"
)

var ErrWatchUnsupported = errors.New("watch needs direct document store access; drop --server")

type Backend interface {
	Register(ctx context.Context, email, name, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)

	Locations(ctx context.Context) ([]string, error)
	RoomTypes(ctx context.Context) ([]string, error)
	Search(ctx context.Context, criteria offeringservice.SearchCriteria) ([]*model.Offering, error)
	Offering(ctx context.Context, hotelID, date, roomType string) (*model.Offering, error)
	WatchOfferings(ctx context.Context, fn func([]*model.Offering)) (func(), error)

	IsAvailable(ctx context.Context, hotelID, date, roomType string) (bool, error)
	Reserve(ctx context.Context, offering *model.Offering) (*model.BookingRecord, error)
	ListBookings(ctx context.Context, refresh bool) ([]*model.BookingRecord, error)
	Cancel(ctx context.Context, key string) error
}

// LocalBackend drives the services directly. The booking service reads the
// signed-in user from the session store it was built with.
type LocalBackend struct {
	Auth      authservice.Authenticator
	Offerings offeringservice.OfferingService
	Bookings  bookingservice.BookingService
}

func (b *LocalBackend) Register(ctx context.Context, email, name, password string) (string, error) {
	return b.Auth.Register(ctx, email, name, password)
}

func (b *LocalBackend) Login(ctx context.Context, email, password string) (string, error) {
	return b.Auth.Authenticate(ctx, email, password)
}

func (b *LocalBackend) Locations(ctx context.Context) ([]string, error) {
	return b.Offerings.Locations(ctx)
}

func (b *LocalBackend) RoomTypes(ctx context.Context) ([]string, error) {
	return b.Offerings.RoomTypes(ctx)
}

func (b *LocalBackend) Search(ctx context.Context, criteria offeringservice.SearchCriteria) ([]*model.Offering, error) {
	return b.Offerings.Search(ctx, criteria)
}

func (b *LocalBackend) Offering(ctx context.Context, hotelID, date, roomType string) (*model.Offering, error) {
	return b.Offerings.Get(ctx, hotelID, date, roomType)
}

func (b *LocalBackend) WatchOfferings(ctx context.Context, fn func([]*model.Offering)) (func(), error) {
	return b.Offerings.Watch(ctx, fn)
}

func (b *LocalBackend) IsAvailable(ctx context.Context, hotelID, date, roomType string) (bool, error) {
	return b.Bookings.IsAvailable(ctx, hotelID, date, roomType)
}

func (b *LocalBackend) Reserve(ctx context.Context, offering *model.Offering) (*model.BookingRecord, error) {
	return b.Bookings.Reserve(ctx, offering)
}

func (b *LocalBackend) ListBookings(ctx context.Context, refresh bool) ([]*model.BookingRecord, error) {
	return b.Bookings.ListBookings(ctx, refresh)
}

func (b *LocalBackend) Cancel(ctx context.Context, key string) error {
	return b.Bookings.Cancel(ctx, key)
}

// RemoteBackend calls a staybook server, asserting the session email on every
// booking request.
type RemoteBackend struct {
	API      *client.API
	Sessions session.Store
}

func (b *RemoteBackend) Register(ctx context.Context, email, name, password string) (string, error) {
	id, err := b.API.Auth.Register(ctx, email, name, password)
	if err != nil {
		return "", err
	}
	return id.Email, nil
}

func (b *RemoteBackend) Login(ctx context.Context, email, password string) (string, error) {
	id, err := b.API.Auth.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	return id.Email, nil
}

func (b *RemoteBackend) Locations(ctx context.Context) ([]string, error) {
	return b.API.Offerings.Locations(ctx)
}

func (b *RemoteBackend) RoomTypes(ctx context.Context) ([]string, error) {
	return b.API.Offerings.RoomTypes(ctx)
}

func (b *RemoteBackend) Search(ctx context.Context, criteria offeringservice.SearchCriteria) ([]*model.Offering, error) {
	return b.API.Offerings.Search(ctx, criteria.Location, criteria.RoomType, criteria.Date)
}

// Offering scans the catalog; the API has no single-offering endpoint.
func (b *RemoteBackend) Offering(ctx context.Context, hotelID, date, roomType string) (*model.Offering, error) {
	all, err := b.API.Offerings.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range all {
		if o.HotelID == hotelID && o.Date == date && o.RoomType == roomType {
			return o, nil
		}
	}
	return nil, apperrors.NotFoundWithID("Offering", model.BookingKey(hotelID, date, roomType))
}

func (b *RemoteBackend) WatchOfferings(ctx context.Context, fn func([]*model.Offering)) (func(), error) {
	return nil, ErrWatchUnsupported
}

func (b *RemoteBackend) IsAvailable(ctx context.Context, hotelID, date, roomType string) (bool, error) {
	return b.API.Bookings.IsAvailable(ctx, hotelID, date, roomType)
}

func (b *RemoteBackend) Reserve(ctx context.Context, offering *model.Offering) (*model.BookingRecord, error) {
	if err := b.identify(ctx); err != nil {
		return nil, err
	}
	return b.API.Bookings.Reserve(ctx, offering)
}

func (b *RemoteBackend) ListBookings(ctx context.Context, refresh bool) ([]*model.BookingRecord, error) {
	if err := b.identify(ctx); err != nil {
		return nil, err
	}
	return b.API.Bookings.ListBookings(ctx, refresh)
}

func (b *RemoteBackend) Cancel(ctx context.Context, key string) error {
	if err := b.identify(ctx); err != nil {
		return err
	}
	return b.API.Bookings.Cancel(ctx, key)
}

// identify forwards the session email, or none, so the server decides
// whether the call is authenticated.
func (b *RemoteBackend) identify(ctx context.Context) error {
	email, ok, err := b.Sessions.CurrentUserEmail(ctx)
	if err != nil {
		return err
	}
	if !ok {
		email = ""
	}
	b.API.SetUserEmail(email)
	return nil
}

// NewLocalBackend wires the services over store the same way the server does,
// with sessions as the identity source.
func NewLocalBackend(store docstore.Store, sessions session.Store, publisher events.Publisher, cfg *config.Config) *LocalBackend {
	return &LocalBackend{
		Auth: authservice.NewAuthenticator(store, cfg),
		Offerings: offeringservice.NewOfferingService(
			offeringrepository.NewOfferingRepository(store, cfg),
			offeringvalidator.NewOfferingValidator(cfg.Log),
			cfg,
		),
		Bookings: bookingservice.NewBookingService(
			bookingrepository.NewBookingRepository(store, cfg),
			bookingrepository.NewBookingLockRepository(store, cfg),
			bookingvalidator.NewBookingValidator(cfg.Log),
			overlay.New(cfg.PendingTTL),
			sessions,
			publisher,
			cfg,
		),
	}
}
