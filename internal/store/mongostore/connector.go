// Package mongostore implements core.MemberStore on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectorConfig holds the connection settings.
type ConnectorConfig struct {
	URI                    string
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
}

// Connector owns the process-wide MongoDB client. Connect is idempotent:
// the first successful call dials, later calls return the same client.
// A failed dial is not cached, so the next call retries.
type Connector struct {
	cfg ConnectorConfig

	mu     sync.Mutex
	client *mongo.Client
}

// NewConnector returns an unconnected Connector.
func NewConnector(cfg ConnectorConfig) *Connector {
	return &Connector{cfg: cfg}
}

// Connect returns the shared client, dialing and pinging on first use.
func (c *Connector) Connect(ctx context.Context) (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.cfg.URI == "" {
		return nil, errors.New("mongostore: missing MONGODB_URI")
	}

	opts := options.Client().ApplyURI(c.cfg.URI)
	if c.cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(c.cfg.ServerSelectionTimeout)
	}
	if c.cfg.SocketTimeout > 0 {
		opts.SetSocketTimeout(c.cfg.SocketTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	c.client = client
	return client, nil
}

// Close disconnects the client if one was established.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
