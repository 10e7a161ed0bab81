package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/overlay"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/events"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"staybook/pkg/session"
	"time"

	"github.com/google/uuid"
)

// BookingService coordinates availability checks, reservations, the signed-in
// user's booking list and cancellations.
type BookingService interface {
	// IsAvailable reports whether no user holds a booking for the exact
	// (hotelID, date, roomType) triple. It needs no session.
	IsAvailable(ctx context.Context, hotelID, date, roomType string) (bool, error)
	// Reserve books the offering for the signed-in user and returns the stored record.
	Reserve(ctx context.Context, offering *model.Offering) (*model.BookingRecord, error)
	// ListBookings returns the signed-in user's pending and confirmed bookings.
	// refresh discards pending records instead of merging them.
	ListBookings(ctx context.Context, refresh bool) ([]*model.BookingRecord, error)
	// Cancel removes one of the signed-in user's bookings.
	Cancel(ctx context.Context, key string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	validator *validator.BookingValidator
	overlay   *overlay.Overlay
	sessions  session.Store
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	validator *validator.BookingValidator,
	overlay *overlay.Overlay,
	sessions session.Store,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		overlay:   overlay,
		sessions:  sessions,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) IsAvailable(ctx context.Context, hotelID, date, roomType string) (bool, error) {
	if hotelID == "" || date == "" || roomType == "" {
		return false, apperrors.InvalidInput("hotel_id, date and room_type are required")
	}

	records, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to read bookings for availability",
			"hotel_id", hotelID,
			"date", date,
			"room_type", roomType,
			"error", err,
		)
		return false, apperrors.Transport("Failed to read bookings", fmt.Errorf("%w: %w", bookingserrors.ErrTransport, err))
	}

	for _, record := range records {
		if record.Matches(hotelID, date, roomType) {
			return false, nil
		}
	}
	return true, nil
}

func (s *bookingService) Reserve(ctx context.Context, offering *model.Offering) (*model.BookingRecord, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validate(offering); err != nil {
		return nil, err
	}
	key := offering.BookingKey()

	if s.cfg.SlotLockEnabled {
		lockID, err := s.acquireSlotLock(ctx, key, userID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if releaseErr := s.releaseSlotLock(ctx, key, lockID); releaseErr != nil {
				s.cfg.Log.Warn("Failed to release booking lock", "key", key, "lock_id", lockID, "error", releaseErr)
			}
		}()
	}

	available, err := s.IsAvailable(ctx, offering.HotelID, offering.Date, offering.RoomType)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, roomNoLongerAvailable(key, bookingserrors.ErrRoomNoLongerAvailable)
	}

	record := model.NewBookingRecord(*offering, userID, s.now())
	if err := s.repo.Put(ctx, userID, key, record); err != nil {
		s.cfg.Log.Error("Failed to write booking", "key", key, "user_id", userID, "error", err)
		return nil, apperrors.Wrap(
			fmt.Errorf("%w: %w", bookingserrors.ErrBookingWriteFailed, err),
			apperrors.CodeBookingWriteFailed,
			"Failed to save booking",
			http.StatusBadGateway,
		).WithDetails(map[string]any{"key": key})
	}

	pending := *record
	pending.Key = model.NewTemporaryKey()
	s.overlay.AddPending(userID, &pending)

	record.Key = key
	s.publish(ctx, model.EventBookingCreated, key, record)

	s.cfg.Log.Info("Booking created successfully",
		"key", key,
		"user_id", userID,
		"hotel_id", record.HotelID,
		"date", record.Date,
		"room_type", record.RoomType,
	)
	return record, nil
}

func (s *bookingService) ListBookings(ctx context.Context, refresh bool) ([]*model.BookingRecord, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to read user bookings", "user_id", userID, "error", err)
		return nil, apperrors.Transport("Failed to read bookings", fmt.Errorf("%w: %w", bookingserrors.ErrTransport, err))
	}

	policy := overlay.DropMatched
	if refresh {
		policy = overlay.ReplaceAll
	}
	return s.overlay.Refresh(userID, confirmed, policy), nil
}

func (s *bookingService) Cancel(ctx context.Context, key string) error {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}
	if key == "" {
		return apperrors.InvalidInput("Booking key cannot be empty")
	}

	if model.IsTemporaryKey(key) {
		if s.overlay.DropPending(userID, key) {
			s.cfg.Log.Info("Pending booking dropped", "key", key, "user_id", userID)
		}
		return nil
	}

	if err := docstore.ValidateSegment(key); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid booking key: %v", err))
	}

	removed, restore := s.overlay.Remove(userID, key)
	if err := s.repo.Delete(ctx, userID, key); err != nil {
		restore()
		s.cfg.Log.Error("Failed to delete booking", "key", key, "user_id", userID, "error", err)
		return apperrors.Wrap(
			fmt.Errorf("%w: %w", bookingserrors.ErrBookingDeleteFailed, err),
			apperrors.CodeBookingDeleteFailed,
			"Failed to cancel booking",
			http.StatusBadGateway,
		).WithDetails(map[string]any{"key": key})
	}

	if dropped := s.overlay.DropSlot(userID, key); dropped > 0 {
		s.cfg.Log.Info("Dropped pending copies of cancelled booking", "key", key, "user_id", userID, "count", dropped)
	}

	if removed == nil {
		removed = &model.BookingRecord{UserID: userID}
	}
	s.publish(ctx, model.EventBookingCancelled, key, removed)

	s.cfg.Log.Info("Booking cancelled successfully", "key", key, "user_id", userID)
	return nil
}

// currentUserID resolves the signed-in user before any store access.
func (s *bookingService) currentUserID(ctx context.Context) (string, error) {
	email, ok, err := s.sessions.CurrentUserEmail(ctx)
	if err != nil {
		return "", apperrors.Internal("Failed to read session", err)
	}
	if !ok {
		return "", apperrors.Unauthenticated(bookingserrors.ErrNoSession)
	}

	userID := sanitizer.UserIDFromEmail(email)
	if err := s.validator.ValidateUserID(userID); err != nil {
		return "", apperrors.Validation("Session identity is not usable", map[string]any{"error": err.Error()})
	}
	return userID, nil
}

func (s *bookingService) validate(offering *model.Offering) error {
	if err := s.validator.Validate(offering); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	return nil
}

func (s *bookingService) acquireSlotLock(ctx context.Context, key, userID string) (string, error) {
	now := s.now()
	lock := &model.BookingLock{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(s.cfg.SlotLockTTL).UTC(),
	}

	err := s.lockRepo.Acquire(ctx, key, lock)
	switch {
	case err == nil:
		return lock.ID, nil
	case errors.Is(err, bookingserrors.ErrSlotLocked):
		s.cfg.Log.Info("Booking slot is locked by another reservation", "key", key, "user_id", userID)
		return "", roomNoLongerAvailable(key, err)
	default:
		s.cfg.Log.Error("Failed to acquire booking lock", "key", key, "error", err)
		return "", apperrors.Transport("Failed to lock booking slot", fmt.Errorf("%w: %w", bookingserrors.ErrTransport, err))
	}
}

// releaseSlotLock runs after the request may have been cancelled, so it
// detaches from ctx's cancellation.
func (s *bookingService) releaseSlotLock(ctx context.Context, key, lockID string) error {
	return s.lockRepo.Release(context.WithoutCancel(ctx), key, lockID)
}

func (s *bookingService) publish(ctx context.Context, eventType, key string, record *model.BookingRecord) {
	event := model.NewBookingEvent(eventType, key, record, s.now())
	event.EventID = uuid.NewString()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
	}
}

func roomNoLongerAvailable(key string, cause error) *apperrors.AppError {
	return apperrors.Wrap(
		cause,
		apperrors.CodeRoomNoLongerAvailable,
		"Room is no longer available",
		http.StatusConflict,
	).WithDetails(map[string]any{"key": key})
}
