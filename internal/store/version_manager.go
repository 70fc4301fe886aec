package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
)

// effectiveDateLayout matches the summarizer's date output.
const effectiveDateLayout = "2006-01-02"

// DocumentStore is the repository surface the version manager needs.
// *DocumentRepository implements it; tests substitute an in-memory fake.
type DocumentStore interface {
	GetActiveBySourceURL(ctx context.Context, sourceURL string) (*domain.Document, error)
	Insert(ctx context.Context, doc *domain.Document) error
	TouchLastChecked(ctx context.Context, id string, checkedAt time.Time) error
	SupersedeAndInsert(ctx context.Context, oldID string, expiry time.Time, doc *domain.Document) error
}

// Indexer mirrors active documents into the search index. Implemented by
// the elasticsearch package; a nil Indexer disables mirroring.
type Indexer interface {
	IndexDocument(ctx context.Context, doc *domain.Document) error
	DeleteDocument(ctx context.Context, id string) error
}

// UpsertInput carries one freshly scraped source through the versioning
// decision.
type UpsertInput struct {
	Source        domain.Source
	Title         string
	RawContent    string
	ExtractedText string
	TokenCount    int
	Summary       *domain.DocumentSummary
}

// VersionManager applies the create/update/unchanged decision for scraped
// content and maintains the one-active-version-per-URL invariant. Upserts
// for the same URL are serialized by a per-URL lock; the partial unique
// index in the schema is the database-level backstop.
type VersionManager struct {
	repo    DocumentStore
	indexer Indexer
	log     logger.Interface

	mu      sync.Mutex
	urlLock map[string]*sync.Mutex

	now func() time.Time
}

// NewVersionManager creates a version manager. indexer may be nil.
func NewVersionManager(repo DocumentStore, indexer Indexer, log logger.Interface) *VersionManager {
	return &VersionManager{
		repo:    repo,
		indexer: indexer,
		log:     log,
		urlLock: make(map[string]*sync.Mutex),
		now:     time.Now,
	}
}

// ComputeHash returns the hex-encoded SHA-256 of content. Stored alongside
// the text so the "content changed" test is a constant-time comparison.
func ComputeHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// Upsert decides created/updated/unchanged for the scraped content and
// persists accordingly. The returned document is the active version after
// the call. Errors map to the caller's "failed" outcome.
func (vm *VersionManager) Upsert(ctx context.Context, input UpsertInput) (domain.UpsertAction, *domain.Document, error) {
	lock := vm.lockFor(input.Source.URL)
	lock.Lock()
	defer lock.Unlock()

	newHash := ComputeHash(input.ExtractedText)
	now := vm.now()

	current, err := vm.repo.GetActiveBySourceURL(ctx, input.Source.URL)
	switch {
	case errors.Is(err, ErrNoActiveDocument):
		doc := vm.buildDocument(input, newHash, now)
		if insertErr := vm.repo.Insert(ctx, doc); insertErr != nil {
			return domain.ActionFailed, nil, insertErr
		}
		vm.mirror(ctx, doc)
		return domain.ActionCreated, doc, nil

	case err != nil:
		return domain.ActionFailed, nil, err

	case current.ContentHash == newHash && current.ExtractedText == input.ExtractedText:
		if touchErr := vm.repo.TouchLastChecked(ctx, current.ID, now); touchErr != nil {
			return domain.ActionFailed, nil, touchErr
		}
		current.LastCheckedAt = now
		return domain.ActionUnchanged, current, nil

	default:
		doc := vm.buildDocument(input, newHash, now)
		if swapErr := vm.repo.SupersedeAndInsert(ctx, current.ID, now, doc); swapErr != nil {
			return domain.ActionFailed, nil, swapErr
		}
		vm.unmirror(ctx, current.ID)
		vm.mirror(ctx, doc)
		return domain.ActionUpdated, doc, nil
	}
}

// buildDocument assembles a new active version from scraped input.
func (vm *VersionManager) buildDocument(input UpsertInput, hash string, now time.Time) *domain.Document {
	doc := &domain.Document{
		ID:            uuid.NewString(),
		Country:       input.Source.Country,
		Category:      input.Source.Category,
		Title:         input.Title,
		SourceURL:     input.Source.URL,
		RawContent:    input.RawContent,
		ExtractedText: input.ExtractedText,
		ContentHash:   hash,
		TokenCount:    input.TokenCount,
		Status:        domain.StatusActive,
		ScrapedAt:     now,
		LastCheckedAt: now,
	}

	if input.Summary != nil {
		if input.Summary.Title != "" {
			doc.Title = input.Summary.Title
		}
		doc.Metadata = domain.JSONBMap{
			"summary":     input.Summary.Summary,
			"obligations": input.Summary.Obligations,
			"citations":   input.Summary.Citations,
		}
		if input.Summary.EffectiveDate != "" {
			if effective, parseErr := time.Parse(effectiveDateLayout, input.Summary.EffectiveDate); parseErr == nil {
				doc.EffectiveDate = &effective
			}
		}
	}

	if doc.Title == "" {
		doc.Title = input.Source.URL
	}

	return doc
}

// mirror indexes the active version for search. Index failures are logged,
// not propagated: postgres is the source of truth.
func (vm *VersionManager) mirror(ctx context.Context, doc *domain.Document) {
	if vm.indexer == nil {
		return
	}
	if err := vm.indexer.IndexDocument(ctx, doc); err != nil {
		vm.log.Error("failed to index document",
			"document_id", doc.ID,
			"source_url", doc.SourceURL,
			"error", err.Error(),
		)
	}
}

// unmirror removes a superseded version from the search index.
func (vm *VersionManager) unmirror(ctx context.Context, id string) {
	if vm.indexer == nil {
		return
	}
	if err := vm.indexer.DeleteDocument(ctx, id); err != nil {
		vm.log.Error("failed to remove superseded document from index",
			"document_id", id,
			"error", err.Error(),
		)
	}
}

// lockFor returns the mutex serializing upserts for one URL.
func (vm *VersionManager) lockFor(url string) *sync.Mutex {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	lock, ok := vm.urlLock[url]
	if !ok {
		lock = &sync.Mutex{}
		vm.urlLock[url] = lock
	}
	return lock
}
