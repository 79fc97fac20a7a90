package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/pkg/logger"
)

// Client wraps a pooled mongo.Client. It is created once at startup and
// shared by every command handler; handlers never reconfigure it.
type Client struct {
	client   *mongo.Client
	db       *mongo.Database
	database string
	timeout  time.Duration
}

func NewClient(uri, database string, timeoutSec int) (*Client, error) {
	timeout := time.Duration(timeoutSec) * time.Second

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout).
		SetMaxPoolSize(3).
		SetMinPoolSize(1)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	c := &Client{
		client:   client,
		db:       client.Database(database),
		database: database,
		timeout:  timeout,
	}

	if err := c.Ping(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	logger.Info("MongoDB client initialized", zap.String("database", database))

	return c, nil
}

// Ping is bounded by the configured timeout so a failing store cannot
// hang a command indefinitely.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Client) DatabaseName() string {
	return c.database
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
