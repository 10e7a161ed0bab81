package config

import "time"

const (
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

const (
	DefaultDocstoreBackend = BackendMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStoreReadTimeout  = 5 * time.Second
	DefaultStoreWriteTimeout = 5 * time.Second
	DefaultStoreReadRetries  = 2
	DefaultStoreRetryBackoff = 200 * time.Millisecond

	DefaultSlotLockEnabled = true
	DefaultSlotLockTTL     = 30 * time.Second

	DefaultPendingTTL = 10 * time.Minute

	DefaultEventsEnabled = false
	DefaultSessionFile   = ".staybook-session.json"
)
