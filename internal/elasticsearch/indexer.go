package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledgerkeep/regwatch/internal/domain"
)

// fallbackExcerptLength bounds the excerpt taken from the document body when
// no highlight fragment comes back.
const fallbackExcerptLength = 200

// indexedDocument is the wire shape stored in the index. Raw content stays
// in Postgres; only the searchable projection is mirrored.
type indexedDocument struct {
	DocumentID    string `json:"document_id"`
	Country       string `json:"country"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	SourceURL     string `json:"source_url"`
	Title         string `json:"title"`
	ExtractedText string `json:"extracted_text"`
	Summary       string `json:"summary,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
	ScrapedAt     string `json:"scraped_at"`
}

// IndexDocument mirrors one active document into the search index. The
// document ID doubles as the index document ID so re-indexing is idempotent.
func (c *Client) IndexDocument(ctx context.Context, doc *domain.Document) error {
	body, err := json.Marshal(toIndexed(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal document for indexing: %w", err)
	}

	res, err := c.esClient.Index(
		c.index,
		bytes.NewReader(body),
		c.esClient.Index.WithDocumentID(doc.ID),
		c.esClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index document %s returned %s", doc.ID, res.Status())
	}

	return nil
}

// DeleteDocument removes a superseded document from the index. A missing
// document is not an error; the desired end state already holds.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	res, err := c.esClient.Delete(
		c.index,
		id,
		c.esClient.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document %s returned %s", id, res.Status())
	}

	return nil
}

// Search executes a ranked query over active documents.
func (c *Client) Search(ctx context.Context, req *domain.SearchRequest) ([]domain.SearchResult, error) {
	query := NewQueryBuilder().Build(req)

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.esClient.Search(
		c.esClient.Search.WithContext(ctx),
		c.esClient.Search.WithIndex(c.index),
		c.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search returned %s", res.Status())
	}

	var response searchResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return response.results(), nil
}

// searchResponse is the subset of the Elasticsearch response we consume.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score     float64             `json:"_score"`
			Source    indexedDocument     `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

// results converts raw hits into domain search results.
func (r *searchResponse) results() []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		result := domain.SearchResult{
			DocumentID:     hit.Source.DocumentID,
			Title:          hit.Source.Title,
			SourceURL:      hit.Source.SourceURL,
			Category:       domain.Category(hit.Source.Category),
			Country:        hit.Source.Country,
			RelevanceScore: hit.Score,
			Excerpt:        excerptFrom(hit.Highlight, hit.Source.ExtractedText),
		}

		if hit.Source.Summary != "" {
			result.Metadata = domain.JSONBMap{"summary": hit.Source.Summary}
		}

		if hit.Source.EffectiveDate != "" {
			if effective, err := time.Parse(dateLayout, hit.Source.EffectiveDate); err == nil {
				result.EffectiveDate = &effective
			}
		}

		results = append(results, result)
	}

	return results
}

// excerptFrom prefers highlight fragments and falls back to the leading
// slice of the document body.
func excerptFrom(highlight map[string][]string, extractedText string) string {
	if fragments := highlight["extracted_text"]; len(fragments) > 0 {
		return strings.Join(fragments, " ... ")
	}

	if len(extractedText) > fallbackExcerptLength {
		// Back off to a rune boundary so the cut never splits a multibyte
		// character.
		cut := fallbackExcerptLength
		for cut > 0 && !utf8.RuneStart(extractedText[cut]) {
			cut--
		}
		return extractedText[:cut]
	}

	return extractedText
}

// toIndexed projects a document into its indexed shape. The summary text is
// lifted out of metadata when the summarizer produced one.
func toIndexed(doc *domain.Document) indexedDocument {
	indexed := indexedDocument{
		DocumentID:    doc.ID,
		Country:       doc.Country,
		Category:      string(doc.Category),
		Status:        string(doc.Status),
		SourceURL:     doc.SourceURL,
		Title:         doc.Title,
		ExtractedText: doc.ExtractedText,
		ScrapedAt:     doc.ScrapedAt.UTC().Format(time.RFC3339),
	}

	if summary, ok := doc.Metadata["summary"].(string); ok {
		indexed.Summary = summary
	}

	if doc.EffectiveDate != nil {
		indexed.EffectiveDate = doc.EffectiveDate.Format(dateLayout)
	}

	return indexed
}
