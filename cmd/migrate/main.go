package main

import (
	"context"
	authservice "staybook/internal/auth/service"
	mongoMigration "staybook/internal/migrations/mongo"
	"staybook/internal/migrations/seed"
	offeringrepository "staybook/internal/offerings/repository"
	offeringservice "staybook/internal/offerings/service"
	offeringvalidator "staybook/internal/offerings/validator"
	"staybook/pkg/config"
	"staybook/pkg/docstore/backend"
	"time"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	if cfg.DocstoreBackend == config.BackendMongo {
		cfg.SetMongo()
		cfg.Log.Info("Starting Mongo migration job")
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	}

	if cfg.SeedFile == "" {
		cfg.Log.Info("No seed file configured, skipping seed", "env", config.EnvSeedFile)
		return
	}
	seedStore(ctx, cfg)
}

func seedStore(ctx context.Context, cfg *config.Config) {
	f, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		cfg.Log.Fatal("Failed to load seed file", "file", cfg.SeedFile, "error", err)
	}

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to open document store", "error", err)
	}

	offerings := offeringservice.NewOfferingService(
		offeringrepository.NewOfferingRepository(store, cfg),
		offeringvalidator.NewOfferingValidator(cfg.Log),
		cfg,
	)
	if _, err := seed.Apply(ctx, f, offerings, authservice.NewAuthenticator(store, cfg), cfg.Log); err != nil {
		cfg.Log.Fatal("Seed failed", "file", cfg.SeedFile, "error", err)
	}
}
