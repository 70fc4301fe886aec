// Package elasticsearch maintains the search index of active regulatory
// documents and executes ranked queries against it. Postgres remains the
// source of truth; the index holds only the current active version per URL.
package elasticsearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
)

// DefaultIndex is the index holding active regulatory documents.
const DefaultIndex = "regulatory_documents"

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 5 * time.Second

// Config holds Elasticsearch configuration.
type Config struct {
	URL        string `mapstructure:"url"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Index      string `mapstructure:"index"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// Client wraps the Elasticsearch client with the operations this service
// needs: index bootstrap, document mirroring, and search.
type Client struct {
	esClient *es.Client
	index    string
}

// NewClient creates a client and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	addresses := []string{cfg.URL}
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		addresses = []string{"http://" + cfg.URL}
	}

	clientConfig := es.Config{
		Addresses:  addresses,
		MaxRetries: cfg.MaxRetries,
	}

	if cfg.Username != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}

	client := &Client{
		esClient: esClient,
		index:    index,
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if pingErr := client.ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", pingErr)
	}

	return client, nil
}

// Index returns the configured index name.
func (c *Client) Index() string {
	return c.index
}

// ping verifies the cluster is reachable.
func (c *Client) ping(ctx context.Context) error {
	res, err := c.esClient.Ping(c.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned %s", res.Status())
	}

	return nil
}
