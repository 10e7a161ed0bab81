package config

const (
	EnvDocstoreBackend = "DOCSTORE_BACKEND"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvFirestoreProjectID       = "FIRESTORE_PROJECT_ID"
	EnvFirestoreCredentialsFile = "FIRESTORE_CREDENTIALS_FILE"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStoreReadTimeout  = "STORE_READ_TIMEOUT"
	EnvStoreWriteTimeout = "STORE_WRITE_TIMEOUT"
	EnvStoreReadRetries  = "STORE_READ_RETRIES"
	EnvStoreRetryBackoff = "STORE_RETRY_BACKOFF"

	EnvSlotLockEnabled = "SLOT_LOCK_ENABLED"
	EnvSlotLockTTL     = "SLOT_LOCK_TTL"

	EnvPendingTTL = "PENDING_TTL"

	EnvEventsEnabled = "EVENTS_ENABLED"
	EnvSessionFile   = "SESSION_FILE"
	EnvSeedFile      = "SEED_FILE"
)
