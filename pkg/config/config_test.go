package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DocstoreBackend:   BackendMemory,
		Port:              "8080",
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Hour,
		MaxRequestSize:    1024,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		StoreReadTimeout:  time.Second,
		StoreWriteTimeout: time.Second,
		StoreReadRetries:  1,
		SlotLockEnabled:   true,
		SlotLockTTL:       time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid memory config", mutate: func(*Config) {}},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "Port must be between",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.DocstoreBackend = "redis" },
			wantErr: "DocstoreBackend must be one of",
		},
		{
			name: "mongo needs a mongodb uri",
			mutate: func(c *Config) {
				c.DocstoreBackend = BackendMongo
				c.MongoURI = "postgres://localhost"
				c.MongoDatabaseName = "staybook"
				c.MongoConnTimeout = time.Second
			},
			wantErr: "MongoURI must start with",
		},
		{
			name:    "firestore needs a project",
			mutate:  func(c *Config) { c.DocstoreBackend = BackendFirestore },
			wantErr: "FirestoreProjectID cannot be empty",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.StoreReadRetries = -1 },
			wantErr: "StoreReadRetries cannot be negative",
		},
		{
			name:    "slot lock without ttl",
			mutate:  func(c *Config) { c.SlotLockTTL = 0 },
			wantErr: "SlotLockTTL must be positive",
		},
		{
			name:    "negative pending ttl",
			mutate:  func(c *Config) { c.PendingTTL = -time.Second },
			wantErr: "PendingTTL cannot be negative",
		},
		{
			name: "slot lock disabled ignores ttl",
			mutate: func(c *Config) {
				c.SlotLockEnabled = false
				c.SlotLockTTL = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvDocstoreBackend, "MEMORY")
	t.Setenv(EnvSlotLockEnabled, "false")
	t.Setenv(EnvStoreReadRetries, "4")
	t.Setenv(EnvStoreRetryBackoff, "50ms")
	t.Setenv(EnvEventsEnabled, "not-a-bool")

	cfg := FromEnv()

	if cfg.DocstoreBackend != BackendMemory {
		t.Errorf("expected backend to be lowercased, got %q", cfg.DocstoreBackend)
	}
	if cfg.SlotLockEnabled {
		t.Errorf("expected slot lock disabled")
	}
	if cfg.StoreReadRetries != 4 {
		t.Errorf("expected 4 retries, got %d", cfg.StoreReadRetries)
	}
	if cfg.StoreRetryBackoff != 50*time.Millisecond {
		t.Errorf("expected 50ms backoff, got %s", cfg.StoreRetryBackoff)
	}
	if cfg.EventsEnabled != DefaultEventsEnabled {
		t.Errorf("unparseable bool should fall back to the default")
	}
	if cfg.Client == nil {
		t.Errorf("expected a client holder")
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if strings.Contains(got, "secret") {
		t.Errorf("password leaked: %s", got)
	}
	if got != "mongodb://***:***@db:27017" {
		t.Errorf("unexpected redaction %s", got)
	}
}
