package service

import (
	"context"
	"errors"
	offeringserrors "staybook/internal/offerings/errors"
	"staybook/internal/offerings/repository"
	"staybook/internal/offerings/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"strings"
	"time"
)

type SearchCriteria struct {
	Location string
	RoomType string
	Date     string
}

// OfferingService serves the hotel catalog.
type OfferingService interface {
	GetAll(ctx context.Context) ([]*model.Offering, error)
	// Search matches location and room type case-insensitively, the date
	// exactly, and only returns offerings with rooms left.
	Search(ctx context.Context, criteria SearchCriteria) ([]*model.Offering, error)
	Locations(ctx context.Context) ([]string, error)
	RoomTypes(ctx context.Context) ([]string, error)
	// Get returns the offering for an exact (hotelID, date, roomType).
	Get(ctx context.Context, hotelID, date, roomType string) (*model.Offering, error)
	Upsert(ctx context.Context, day *model.HotelDay) error
	Watch(ctx context.Context, fn func([]*model.Offering)) (func(), error)
}

type offeringService struct {
	repo      repository.OfferingRepository
	validator *validator.OfferingValidator
	cfg       *config.Config
}

func NewOfferingService(
	repo repository.OfferingRepository,
	validator *validator.OfferingValidator,
	cfg *config.Config,
) OfferingService {
	return &offeringService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *offeringService) GetAll(ctx context.Context) ([]*model.Offering, error) {
	offerings, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to read catalog", "error", err)
		return nil, apperrors.Transport("Failed to read catalog", err)
	}
	if offerings == nil {
		offerings = []*model.Offering{}
	}
	return offerings, nil
}

func (s *offeringService) Search(ctx context.Context, criteria SearchCriteria) ([]*model.Offering, error) {
	criteria.Location = sanitizer.TrimAndNormalize(criteria.Location)
	criteria.RoomType = sanitizer.TrimAndNormalize(criteria.RoomType)
	criteria.Date = strings.TrimSpace(criteria.Date)

	if criteria.Location == "" || criteria.RoomType == "" || criteria.Date == "" {
		return nil, apperrors.InvalidInput("location, room_type and date must all be provided")
	}
	if _, err := time.Parse(time.DateOnly, criteria.Date); err != nil {
		return nil, apperrors.InvalidInput("date must be in the form YYYY-MM-DD")
	}

	offerings, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*model.Offering, 0)
	for _, o := range offerings {
		if strings.EqualFold(o.Location, criteria.Location) &&
			strings.EqualFold(o.RoomType, criteria.RoomType) &&
			o.Date == criteria.Date &&
			o.Available > 0 {
			results = append(results, o)
		}
	}

	s.cfg.Log.Info("Catalog search completed",
		"location", criteria.Location,
		"room_type", criteria.RoomType,
		"date", criteria.Date,
		"results", len(results),
	)
	return results, nil
}

func (s *offeringService) Locations(ctx context.Context) ([]string, error) {
	return s.unique(ctx, func(o *model.Offering) string { return o.Location })
}

func (s *offeringService) RoomTypes(ctx context.Context) ([]string, error) {
	return s.unique(ctx, func(o *model.Offering) string { return o.RoomType })
}

func (s *offeringService) unique(ctx context.Context, field func(*model.Offering) string) ([]string, error) {
	offerings, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(offerings))
	for _, o := range offerings {
		values = append(values, field(o))
	}
	return sanitizer.UniqueValues(values), nil
}

func (s *offeringService) Get(ctx context.Context, hotelID, date, roomType string) (*model.Offering, error) {
	if hotelID == "" || date == "" || roomType == "" {
		return nil, apperrors.InvalidInput("hotel_id, date and room_type are required")
	}

	offerings, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range offerings {
		if o.HotelID == hotelID && o.Date == date && o.RoomType == roomType {
			return o, nil
		}
	}
	return nil, apperrors.NotFoundWithID("Offering", model.BookingKey(hotelID, date, roomType))
}

func (s *offeringService) Upsert(ctx context.Context, day *model.HotelDay) error {
	if day == nil {
		return apperrors.InvalidInput("catalog entry is required")
	}
	day.HotelID = strings.TrimSpace(day.HotelID)
	day.HotelName = sanitizer.TrimAndNormalize(day.HotelName)
	day.Location = sanitizer.TrimAndNormalize(day.Location)
	day.Date = strings.TrimSpace(day.Date)

	if err := s.validator.ValidateHotelDay(day); err != nil {
		s.cfg.Log.Warn("Catalog entry validation failed",
			"hotel_id", day.HotelID,
			"date", day.Date,
			"error", err,
		)
		return apperrors.Validation("Catalog entry validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	entry := repository.EntryKey(day.HotelID, day.Date)
	if err := s.repo.Put(ctx, entry, day); err != nil {
		if errors.Is(err, offeringserrors.ErrInvalidEntry) {
			return apperrors.InvalidInput(err.Error())
		}
		s.cfg.Log.Error("Failed to write catalog entry", "entry", entry, "error", err)
		return apperrors.Transport("Failed to write catalog entry", err)
	}

	s.cfg.Log.Info("Catalog entry saved",
		"entry", entry,
		"hotel_id", day.HotelID,
		"rooms", len(day.Rooms),
	)
	return nil
}

func (s *offeringService) Watch(ctx context.Context, fn func([]*model.Offering)) (func(), error) {
	cancel, err := s.repo.Watch(ctx, fn)
	if err != nil {
		return nil, apperrors.Transport("Failed to watch catalog", err)
	}
	return cancel, nil
}
