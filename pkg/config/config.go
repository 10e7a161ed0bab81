package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"staybook/pkg/client"
	"staybook/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DocstoreBackend string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	Port     string
	LogLevel string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Per-call document store deadlines and read retry policy.
	StoreReadTimeout  time.Duration
	StoreWriteTimeout time.Duration
	StoreReadRetries  int
	StoreRetryBackoff time.Duration

	SlotLockEnabled bool
	SlotLockTTL     time.Duration

	// Pending bookings not read back within PendingTTL are forgotten.
	PendingTTL time.Duration

	EventsEnabled bool
	SessionFile   string
	SeedFile      string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the process environment, and exits
// on invalid configuration.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from environment variables without validating it
// or creating a logger.
func FromEnv() *Config {
	return &Config{
		DocstoreBackend: strings.ToLower(getEnvStr(EnvDocstoreBackend, DefaultDocstoreBackend)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		FirestoreProjectID:       getEnvStr(EnvFirestoreProjectID, ""),
		FirestoreCredentialsFile: getEnvStr(EnvFirestoreCredentialsFile, ""),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		StoreReadTimeout:  getEnvDuration(EnvStoreReadTimeout, DefaultStoreReadTimeout),
		StoreWriteTimeout: getEnvDuration(EnvStoreWriteTimeout, DefaultStoreWriteTimeout),
		StoreReadRetries:  getEnvNum(EnvStoreReadRetries, DefaultStoreReadRetries),
		StoreRetryBackoff: getEnvDuration(EnvStoreRetryBackoff, DefaultStoreRetryBackoff),

		SlotLockEnabled: getEnvBool(EnvSlotLockEnabled, DefaultSlotLockEnabled),
		SlotLockTTL:     getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		PendingTTL: getEnvDuration(EnvPendingTTL, DefaultPendingTTL),

		EventsEnabled: getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		SessionFile:   getEnvStr(EnvSessionFile, DefaultSessionFile),
		SeedFile:      getEnvStr(EnvSeedFile, ""),

		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.DocstoreBackend {
	case BackendMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case BackendFirestore:
		if cfg.FirestoreProjectID == "" {
			errors = append(errors, "FirestoreProjectID cannot be empty when DOCSTORE_BACKEND=firestore")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("DocstoreBackend must be one of mongo, firestore, memory, got: %s", cfg.DocstoreBackend))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.StoreReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StoreReadTimeout must be positive, got: %s", cfg.StoreReadTimeout))
	}
	if cfg.StoreWriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StoreWriteTimeout must be positive, got: %s", cfg.StoreWriteTimeout))
	}
	if cfg.StoreReadRetries < 0 {
		errors = append(errors, fmt.Sprintf("StoreReadRetries cannot be negative, got: %d", cfg.StoreReadRetries))
	}
	if cfg.StoreRetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("StoreRetryBackoff cannot be negative, got: %s", cfg.StoreRetryBackoff))
	}
	if cfg.SlotLockEnabled && cfg.SlotLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must be positive when slot locks are enabled, got: %s", cfg.SlotLockTTL))
	}
	if cfg.PendingTTL < 0 {
		errors = append(errors, fmt.Sprintf("PendingTTL cannot be negative, got: %s", cfg.PendingTTL))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"docstore_backend", cfg.DocstoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"firestore_project", cfg.FirestoreProjectID,
		"firestore_credentials_set", cfg.FirestoreCredentialsFile != "",
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"store_read_timeout", cfg.StoreReadTimeout,
		"store_write_timeout", cfg.StoreWriteTimeout,
		"store_read_retries", cfg.StoreReadRetries,
		"store_retry_backoff", cfg.StoreRetryBackoff,
		"slot_lock_enabled", cfg.SlotLockEnabled,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"pending_ttl", cfg.PendingTTL,
		"events_enabled", cfg.EventsEnabled,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	cfg.Client.GracefulShutdown(ctx, cfg.Log)
}
