// Package search exposes ranked retrieval over active regulatory documents,
// both as a service for the HTTP API and as a bounded tool for an agent
// runtime.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
)

// ErrEmptyQuery is returned when a search is requested without a query.
var ErrEmptyQuery = errors.New("search query must not be empty")

// Searcher executes ranked queries against the document index.
type Searcher interface {
	Search(ctx context.Context, req *domain.SearchRequest) ([]domain.SearchResult, error)
}

// DocumentGetter loads a single document by ID.
type DocumentGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// Service coordinates search requests and the similar-documents lookup.
type Service struct {
	searcher  Searcher
	documents DocumentGetter
	log       logger.Interface
}

// NewService creates a search service.
func NewService(searcher Searcher, documents DocumentGetter, log logger.Interface) *Service {
	return &Service{
		searcher:  searcher,
		documents: documents,
		log:       log,
	}
}

// Search runs a ranked query over active documents.
func (s *Service) Search(ctx context.Context, req *domain.SearchRequest) ([]domain.SearchResult, error) {
	if req == nil || req.Query == "" {
		return nil, ErrEmptyQuery
	}

	results, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	s.log.Debug("search completed",
		"query", req.Query,
		"results", len(results))

	return results, nil
}

// Similar finds documents related to the given one by searching with its
// title and excluding the document itself from the results.
func (s *Service) Similar(ctx context.Context, documentID string, limit int) ([]domain.SearchResult, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	return s.Search(ctx, &domain.SearchRequest{
		Query:     doc.Title,
		Country:   doc.Country,
		Limit:     limit,
		ExcludeID: doc.ID,
	})
}
