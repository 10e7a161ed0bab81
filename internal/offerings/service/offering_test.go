package service

import (
	"context"
	"errors"
	"staybook/internal/offerings/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"testing"
	"time"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockOfferingRepository struct {
	findAllFunc func(ctx context.Context) ([]*model.Offering, error)
	putFunc     func(ctx context.Context, entry string, day *model.HotelDay) error
}

func (m *mockOfferingRepository) FindAll(ctx context.Context) ([]*model.Offering, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockOfferingRepository) Put(ctx context.Context, entry string, day *model.HotelDay) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, entry, day)
	}
	return nil
}

func (m *mockOfferingRepository) Watch(ctx context.Context, fn func([]*model.Offering)) (func(), error) {
	fn(nil)
	return func() {}, nil
}

func newService(repo *mockOfferingRepository) OfferingService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:         log,
		ReadTimeout: 5 * time.Second,
	}
	return NewOfferingService(repo, validator.NewOfferingValidator(log), cfg)
}

func catalog() []*model.Offering {
	return []*model.Offering{
		{HotelID: "H1", Location: "Lisbon", Date: "2024-08-01", RoomType: "Deluxe Room", Available: 2},
		{HotelID: "H1", Location: "Lisbon", Date: "2024-08-01", RoomType: "Suite", Available: 0},
		{HotelID: "H2", Location: "lisbon", Date: "2024-08-01", RoomType: "deluxe room", Available: 1},
		{HotelID: "H3", Location: "Porto", Date: "2024-08-02", RoomType: "Twin", Available: 4},
	}
}

func TestSearch(t *testing.T) {
	svc := newService(&mockOfferingRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Offering, error) { return catalog(), nil },
	})

	tests := []struct {
		name     string
		criteria SearchCriteria
		wantIDs  []string
		wantCode string
	}{
		{
			name:     "case-insensitive location and room type",
			criteria: SearchCriteria{Location: "LISBON", RoomType: "Deluxe room", Date: "2024-08-01"},
			wantIDs:  []string{"H1", "H2"},
		},
		{
			name:     "sold out rooms are excluded",
			criteria: SearchCriteria{Location: "Lisbon", RoomType: "Suite", Date: "2024-08-01"},
			wantIDs:  []string{},
		},
		{
			name:     "date must match exactly",
			criteria: SearchCriteria{Location: "Porto", RoomType: "Twin", Date: "2024-08-01"},
			wantIDs:  []string{},
		},
		{
			name:     "surrounding whitespace is ignored",
			criteria: SearchCriteria{Location: "  Porto ", RoomType: "twin", Date: "2024-08-02"},
			wantIDs:  []string{"H3"},
		},
		{
			name:     "missing location",
			criteria: SearchCriteria{RoomType: "Twin", Date: "2024-08-02"},
			wantCode: apperrors.CodeInvalidInput,
		},
		{
			name:     "bad date",
			criteria: SearchCriteria{Location: "Porto", RoomType: "Twin", Date: "02/08/2024"},
			wantCode: apperrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := svc.Search(context.Background(), tt.criteria)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != len(tt.wantIDs) {
				t.Fatalf("expected %d results, got %d", len(tt.wantIDs), len(results))
			}
			for i, id := range tt.wantIDs {
				if results[i].HotelID != id {
					t.Errorf("result %d: expected %s, got %s", i, id, results[i].HotelID)
				}
			}
		})
	}
}

func TestLocationsAndRoomTypes(t *testing.T) {
	svc := newService(&mockOfferingRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Offering, error) { return catalog(), nil },
	})

	locations, err := svc.Locations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(locations) != 2 || locations[0] != "Lisbon" || locations[1] != "Porto" {
		t.Errorf("unexpected locations %v", locations)
	}

	roomTypes, err := svc.RoomTypes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(roomTypes) != 3 || roomTypes[0] != "Deluxe Room" {
		t.Errorf("unexpected room types %v", roomTypes)
	}
}

func TestGet(t *testing.T) {
	svc := newService(&mockOfferingRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Offering, error) { return catalog(), nil },
	})

	o, err := svc.Get(context.Background(), "H3", "2024-08-02", "Twin")
	if err != nil {
		t.Fatal(err)
	}
	if o.Available != 4 {
		t.Errorf("unexpected offering %+v", o)
	}

	_, err = svc.Get(context.Background(), "H3", "2024-08-02", "twin")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for a case mismatch, got %v", err)
	}
}

func TestGetAll_ReadFailure(t *testing.T) {
	svc := newService(&mockOfferingRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Offering, error) { return nil, errors.New("down") },
	})

	_, err := svc.GetAll(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeTransport) {
		t.Errorf("expected TRANSPORT_ERROR, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	var gotEntry string
	svc := newService(&mockOfferingRepository{
		putFunc: func(ctx context.Context, entry string, day *model.HotelDay) error {
			gotEntry = entry
			return nil
		},
	})

	day := &model.HotelDay{
		HotelID:   " H1 ",
		HotelName: "Harbor   Inn",
		Location:  "Lisbon",
		Date:      "2024-08-01",
		Rooms:     map[string]model.Room{"Deluxe Room": {Total: 5, Available: 2, PricePerNight: 100}},
	}
	if err := svc.Upsert(context.Background(), day); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEntry != "H1_2024-08-01" {
		t.Errorf("unexpected entry %q", gotEntry)
	}
	if day.HotelName != "Harbor Inn" {
		t.Errorf("expected normalized hotel name, got %q", day.HotelName)
	}
}

func TestUpsert_Validation(t *testing.T) {
	tests := []struct {
		name string
		day  *model.HotelDay
	}{
		{
			name: "available above total",
			day: &model.HotelDay{HotelID: "H1", HotelName: "A", Location: "L", Date: "2024-08-01",
				Rooms: map[string]model.Room{"Suite": {Total: 1, Available: 2}}},
		},
		{
			name: "missing date",
			day: &model.HotelDay{HotelID: "H1", HotelName: "A", Location: "L",
				Rooms: map[string]model.Room{"Suite": {Total: 1, Available: 1}}},
		},
		{
			name: "room type not storable",
			day: &model.HotelDay{HotelID: "H1", HotelName: "A", Location: "L", Date: "2024-08-01",
				Rooms: map[string]model.Room{"Dbl. Room": {Total: 1, Available: 1}}},
		},
		{
			name: "no rooms",
			day:  &model.HotelDay{HotelID: "H1", HotelName: "A", Location: "L", Date: "2024-08-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&mockOfferingRepository{
				putFunc: func(ctx context.Context, entry string, day *model.HotelDay) error {
					t.Error("invalid entries must not be written")
					return nil
				},
			})
			err := svc.Upsert(context.Background(), tt.day)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}
