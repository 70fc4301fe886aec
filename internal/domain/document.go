package domain

import "time"

// DocumentStatus is the lifecycle state of a document version.
type DocumentStatus string

const (
	// StatusActive marks the current, queryable version for a source URL.
	StatusActive DocumentStatus = "active"
	// StatusSuperseded marks a retained prior version, visible for audit
	// but excluded from search.
	StatusSuperseded DocumentStatus = "superseded"
)

// Document is one version of a regulatory document. For a given source URL
// at most one row is active at any instant; rows are never deleted.
type Document struct {
	ID            string         `json:"id" db:"id"`
	Country       string         `json:"country" db:"country"`
	Category      Category       `json:"category" db:"category"`
	Title         string         `json:"title" db:"title"`
	SourceURL     string         `json:"source_url" db:"source_url"`
	RawContent    string         `json:"raw_content,omitempty" db:"raw_content"`
	ExtractedText string         `json:"extracted_text" db:"extracted_text"`
	ContentHash   string         `json:"content_hash" db:"content_hash"`
	TokenCount    int            `json:"token_count" db:"token_count"`
	EffectiveDate *time.Time     `json:"effective_date,omitempty" db:"effective_date"`
	ExpiryDate    *time.Time     `json:"expiry_date,omitempty" db:"expiry_date"`
	Status        DocumentStatus `json:"status" db:"status"`
	ScrapedAt     time.Time      `json:"scraped_at" db:"scraped_at"`
	LastCheckedAt time.Time      `json:"last_checked_at" db:"last_checked_at"`
	Metadata      JSONBMap       `json:"metadata,omitempty" db:"metadata"`
}

// DocumentSummary is the schema-validated structured summary produced by the
// summarizer boundary. It is enrichment only; a document persists correctly
// without it.
type DocumentSummary struct {
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Obligations   []string `json:"obligations"`
	EffectiveDate string   `json:"effective_date,omitempty"`
	Citations     []string `json:"citations,omitempty"`
}

// UpsertAction is the versioning decision taken for one scraped source.
type UpsertAction string

const (
	// ActionCreated means no active version existed and one was inserted.
	ActionCreated UpsertAction = "created"
	// ActionUpdated means the active version was superseded by new content.
	ActionUpdated UpsertAction = "updated"
	// ActionUnchanged means content was identical; only last_checked_at moved.
	ActionUnchanged UpsertAction = "unchanged"
	// ActionFailed means the source could not be scraped or persisted.
	ActionFailed UpsertAction = "failed"
)
