package domain

import "time"

// SearchRequest describes one ranked retrieval over active documents.
type SearchRequest struct {
	// Query is the required full-text query string.
	Query string `json:"query"`
	// Country filters by exact country code when non-empty.
	Country string `json:"country,omitempty"`
	// Categories filters to documents in any of the listed categories
	// (OR within the list).
	Categories []Category `json:"categories,omitempty"`
	// EffectiveFrom and EffectiveTo bound the effective_date range.
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	// Limit caps the number of results. Zero means the default.
	Limit int `json:"limit,omitempty"`
	// ExcludeID removes one document from the result set. Used by the
	// similar-documents operation.
	ExcludeID string `json:"exclude_id,omitempty"`
}

// SearchResult is one ranked hit. Derived per query, never persisted.
type SearchResult struct {
	DocumentID     string     `json:"document_id"`
	Title          string     `json:"title"`
	SourceURL      string     `json:"source_url"`
	Category       Category   `json:"category"`
	Country        string     `json:"country"`
	RelevanceScore float64    `json:"relevance_score"`
	Excerpt        string     `json:"excerpt"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	Metadata       JSONBMap   `json:"metadata,omitempty"`
}
