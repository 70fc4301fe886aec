package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// documentMapping is the index schema for active regulatory documents.
// Keyword fields carry the filters; text fields carry the ranked search.
func documentMapping() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"document_id": map[string]any{
					"type": "keyword",
				},
				"country": map[string]any{
					"type": "keyword",
				},
				"category": map[string]any{
					"type": "keyword",
				},
				"status": map[string]any{
					"type": "keyword",
				},
				"source_url": map[string]any{
					"type": "keyword",
				},
				"title": map[string]any{
					"type": "text",
				},
				"extracted_text": map[string]any{
					"type":     "text",
					"analyzer": "standard",
				},
				"summary": map[string]any{
					"type": "text",
				},
				"effective_date": map[string]any{
					"type": "date",
				},
				"scraped_at": map[string]any{
					"type": "date",
				},
			},
		},
	}
}

// EnsureIndex creates the documents index with its mapping when missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	exists, err := c.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body, err := json.Marshal(documentMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	res, err := c.esClient.Indices.Create(
		c.index,
		c.esClient.Indices.Create.WithBody(bytes.NewReader(body)),
		c.esClient.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index returned %s", res.Status())
	}

	return nil
}

// indexExists checks whether the documents index is present.
func (c *Client) indexExists(ctx context.Context) (bool, error) {
	res, err := c.esClient.Indices.Exists(
		[]string{c.index},
		c.esClient.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}
