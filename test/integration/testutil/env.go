//go:build integration

package testutil

import (
	"context"
	"os"
	"staybook/pkg/client"
	"testing"
	"time"
)

const DefaultHealthCheckTimeout = 30 * time.Second

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    getEnv("TEST_SERVER_URL", "http://localhost:8080"),
	}
}

// Setup cleans the database and waits for the server under test to be healthy.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.API) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDocuments(t)

	api := client.NewAPI(e.ServerURL)
	ctx, cancel := context.WithTimeout(context.Background(), DefaultHealthCheckTimeout)
	defer cancel()
	if err := api.WaitForHealthy(ctx); err != nil {
		t.Fatalf("server at %s never became healthy: %v", e.ServerURL, err)
	}
	return mongo, api
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDocuments(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
