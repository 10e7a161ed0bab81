package main

import (
	"context"
	authhandler "staybook/internal/auth/handler"
	authservice "staybook/internal/auth/service"
	"staybook/internal/bookings/handler"
	"staybook/internal/bookings/overlay"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	offeringhandler "staybook/internal/offerings/handler"
	offeringrepository "staybook/internal/offerings/repository"
	offeringservice "staybook/internal/offerings/service"
	offeringvalidator "staybook/internal/offerings/validator"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/docstore"
	"staybook/pkg/docstore/backend"
	"staybook/pkg/events"
	"staybook/pkg/session"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	store, err := backend.Open(context.Background(), cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to open document store", "error", err)
	}

	publisher, err := events.New(cfg.EventsEnabled, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize booking events", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events publisher", "error", err)
		}
	}()

	cfg.Log.Info("Starting Bookings service")
	handlers := initHandlers(store, publisher, cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handlers...)
	serverApp.Run()
}

func initHandlers(store docstore.Store, publisher events.Publisher, cfg *config.Config) []contracts.Handler {
	bookingService := service.NewBookingService(
		repository.NewBookingRepository(store, cfg),
		repository.NewBookingLockRepository(store, cfg),
		validator.NewBookingValidator(cfg.Log),
		overlay.New(cfg.PendingTTL),
		session.NewRequestStore(),
		publisher,
		cfg,
	)
	offeringService := offeringservice.NewOfferingService(
		offeringrepository.NewOfferingRepository(store, cfg),
		offeringvalidator.NewOfferingValidator(cfg.Log),
		cfg,
	)
	authenticator := authservice.NewAuthenticator(store, cfg)

	cfg.Log.Info("Booking services initialized",
		"backend", cfg.DocstoreBackend,
		"slot_lock_enabled", cfg.SlotLockEnabled,
	)
	return []contracts.Handler{
		handler.NewBookingHandler(bookingService, cfg.Log),
		offeringhandler.NewOfferingHandler(offeringService, cfg.Log),
		authhandler.NewAuthHandler(authenticator, cfg.Log),
	}
}
