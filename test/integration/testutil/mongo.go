//go:build integration

package testutil

import (
	"context"
	mongostore "staybook/pkg/docstore/mongo"
	"staybook/pkg/logger"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "staybook"
	ConnectionTimeout   = 10 * time.Second
)

// MongoHelper gives tests direct access to the database the server under test uses.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

// Store opens the document store over the same database.
func (m *MongoHelper) Store() *mongostore.Store {
	return mongostore.New(m.Client, mongostore.Config{
		Database:     m.DBName,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, logger.Discard())
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanDocuments empties the document tree but keeps the collection, its
// validator and indexes.
func (m *MongoHelper) CleanDocuments(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Database.Collection(mongostore.DefaultCollectionName).DeleteMany(ctx, bson.M{})
	if err != nil {
		t.Fatalf("failed to clean documents: %v", err)
	}
	t.Logf("Cleaned %d documents", result.DeletedCount)
}

func (m *MongoHelper) CountDocuments(t *testing.T, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(mongostore.DefaultCollectionName).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	return count
}
