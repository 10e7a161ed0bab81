package client

import (
	"context"
	"staybook/pkg/docstore"
	"staybook/pkg/logger"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Client owns the long-lived connections of a process so they can be closed
// together on shutdown.
type Client struct {
	Mongo *mongo.Client
	Store docstore.Store
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	client, err := ConnectMongo(context.Background(), mongoURI, mongoConnTimeout)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetStore(store docstore.Store) {
	c.Store = store
}

func (c *Client) GracefulShutdown(ctx context.Context, log *logger.Logger) {
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			log.Error("Failed to close document store", "error", err)
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
			return
		}
		log.Info("Disconnected from MongoDB")
	}
}
