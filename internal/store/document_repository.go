package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ledgerkeep/regwatch/internal/domain"
)

// documentColumns is the select list shared by document queries.
const documentColumns = `id, country, category, title, source_url, raw_content,
	extracted_text, content_hash, token_count, effective_date, expiry_date,
	status, scraped_at, last_checked_at, metadata`

// DocumentRepository handles database operations for document versions.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// GetActiveBySourceURL returns the active version for a source URL, or
// ErrNoActiveDocument when none exists.
func (r *DocumentRepository) GetActiveBySourceURL(ctx context.Context, sourceURL string) (*domain.Document, error) {
	var doc domain.Document
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE source_url = $1 AND status = 'active'`

	err := r.db.GetContext(ctx, &doc, query, sourceURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveDocument
		}
		return nil, fmt.Errorf("failed to get active document: %w", err)
	}

	return &doc, nil
}

// GetByID retrieves a document version by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	err := r.db.GetContext(ctx, &doc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// Insert adds a new active document version.
func (r *DocumentRepository) Insert(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, country, category, title, source_url,
			raw_content, extracted_text, content_hash, token_count,
			effective_date, status, scraped_at, last_checked_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Country,
		doc.Category,
		doc.Title,
		doc.SourceURL,
		doc.RawContent,
		doc.ExtractedText,
		doc.ContentHash,
		doc.TokenCount,
		doc.EffectiveDate,
		doc.Status,
		doc.ScrapedAt,
		doc.LastCheckedAt,
		doc.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// TouchLastChecked advances last_checked_at on an unchanged active version.
func (r *DocumentRepository) TouchLastChecked(ctx context.Context, id string, checkedAt time.Time) error {
	query := `UPDATE documents SET last_checked_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, checkedAt, id)
	if err != nil {
		return fmt.Errorf("failed to touch document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	return nil
}

// SupersedeAndInsert atomically retires the current active version and
// inserts its replacement. Both statements run in one transaction so a
// reader never observes zero or two active rows for the URL.
func (r *DocumentRepository) SupersedeAndInsert(ctx context.Context, oldID string, expiry time.Time, doc *domain.Document) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	supersede := `
		UPDATE documents
		SET status = 'superseded', expiry_date = $1
		WHERE id = $2 AND status = 'active'
	`

	result, err := tx.ExecContext(ctx, supersede, expiry, oldID)
	if err != nil {
		return fmt.Errorf("failed to supersede document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("active document %s: %w", oldID, ErrNotFound)
	}

	insert := `
		INSERT INTO documents (id, country, category, title, source_url,
			raw_content, extracted_text, content_hash, token_count,
			effective_date, status, scraped_at, last_checked_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(
		ctx,
		insert,
		doc.ID,
		doc.Country,
		doc.Category,
		doc.Title,
		doc.SourceURL,
		doc.RawContent,
		doc.ExtractedText,
		doc.ContentHash,
		doc.TokenCount,
		doc.EffectiveDate,
		doc.Status,
		doc.ScrapedAt,
		doc.LastCheckedAt,
		doc.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert replacement document: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit supersession: %w", commitErr)
	}

	return nil
}

// ListVersions returns every stored version for a source URL, newest first.
func (r *DocumentRepository) ListVersions(ctx context.Context, sourceURL string) ([]*domain.Document, error) {
	var docs []*domain.Document
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE source_url = $1
		ORDER BY scraped_at DESC`

	if err := r.db.SelectContext(ctx, &docs, query, sourceURL); err != nil {
		return nil, fmt.Errorf("failed to list document versions: %w", err)
	}

	if docs == nil {
		docs = []*domain.Document{}
	}

	return docs, nil
}

// CountActive returns the number of active rows for a source URL. The
// versioning invariant keeps this at 0 or 1.
func (r *DocumentRepository) CountActive(ctx context.Context, sourceURL string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM documents WHERE source_url = $1 AND status = 'active'`

	if err := r.db.GetContext(ctx, &count, query, sourceURL); err != nil {
		return 0, fmt.Errorf("failed to count active documents: %w", err)
	}

	return count, nil
}
