package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema holds the DDL applied at startup. Both tables are append-mostly:
// documents are versioned via supersession and never deleted; scrape_jobs
// form an append-only run log.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id              UUID PRIMARY KEY,
		country         TEXT NOT NULL,
		category        TEXT NOT NULL,
		title           TEXT NOT NULL,
		source_url      TEXT NOT NULL,
		raw_content     TEXT NOT NULL DEFAULT '',
		extracted_text  TEXT NOT NULL,
		content_hash    TEXT NOT NULL,
		token_count     INTEGER NOT NULL DEFAULT 0,
		effective_date  TIMESTAMPTZ,
		expiry_date     TIMESTAMPTZ,
		status          TEXT NOT NULL DEFAULT 'active',
		scraped_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_checked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		metadata        JSONB
	)`,

	// The versioning invariant: at most one active row per source URL.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_active_url
		ON documents (source_url) WHERE status = 'active'`,

	`CREATE INDEX IF NOT EXISTS idx_documents_source_url
		ON documents (source_url)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_country_category
		ON documents (country, category) WHERE status = 'active'`,

	`CREATE TABLE IF NOT EXISTS scrape_jobs (
		id                 UUID PRIMARY KEY,
		country            TEXT,
		category           TEXT,
		priority           TEXT,
		status             TEXT NOT NULL DEFAULT 'pending',
		started_at         TIMESTAMPTZ,
		completed_at       TIMESTAMPTZ,
		documents_scraped  INTEGER NOT NULL DEFAULT 0,
		documents_updated  INTEGER NOT NULL DEFAULT 0,
		documents_archived INTEGER NOT NULL DEFAULT 0,
		error_message      TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_scrape_jobs_created_at
		ON scrape_jobs (created_at DESC)`,
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
