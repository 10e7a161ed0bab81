// Package backend opens the document store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"staybook/pkg/config"
	"staybook/pkg/docstore"
	firestorestore "staybook/pkg/docstore/firestore"
	"staybook/pkg/docstore/memory"
	mongostore "staybook/pkg/docstore/mongo"
)

// Open connects the configured backend and registers it on cfg.Client so it
// is closed by cfg.GracefulShutdown.
func Open(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	var store docstore.Store

	switch cfg.DocstoreBackend {
	case config.BackendMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		store = mongostore.New(cfg.Client.Mongo, mongostore.Config{
			Database:     cfg.MongoDatabaseName,
			ReadTimeout:  cfg.StoreReadTimeout,
			WriteTimeout: cfg.StoreWriteTimeout,
		}, cfg.Log)

	case config.BackendFirestore:
		fs, err := firestorestore.Open(ctx, firestorestore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			ReadTimeout:     cfg.StoreReadTimeout,
			WriteTimeout:    cfg.StoreWriteTimeout,
		}, cfg.Log)
		if err != nil {
			return nil, err
		}
		store = fs

	case config.BackendMemory:
		store = memory.New()

	default:
		return nil, fmt.Errorf("unknown document store backend %q", cfg.DocstoreBackend)
	}

	cfg.Client.SetStore(store)
	cfg.Log.Info("Document store ready", "backend", cfg.DocstoreBackend)
	return store, nil
}
