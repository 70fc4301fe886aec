package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
	"github.com/ledgerkeep/regwatch/internal/search"
	"github.com/ledgerkeep/regwatch/internal/store"
)

// queryDateLayout parses the effective_from / effective_to parameters.
const queryDateLayout = "2006-01-02"

// SearchService runs ranked queries and the similar-documents lookup.
type SearchService interface {
	Search(ctx context.Context, req *domain.SearchRequest) ([]domain.SearchResult, error)
	Similar(ctx context.Context, documentID string, limit int) ([]domain.SearchResult, error)
}

// SearchHandler handles search HTTP requests.
type SearchHandler struct {
	service SearchService
	log     logger.Interface
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(service SearchService, log logger.Interface) *SearchHandler {
	return &SearchHandler{
		service: service,
		log:     log,
	}
}

// Search handles GET /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	req := &domain.SearchRequest{
		Query:   query,
		Country: c.Query("country"),
		Limit:   parseLimit(c.Query("limit")),
	}

	if categories := c.Query("category"); categories != "" {
		for _, category := range strings.Split(categories, ",") {
			if category = strings.TrimSpace(category); category != "" {
				req.Categories = append(req.Categories, domain.Category(category))
			}
		}
	}

	var parseErr error
	if req.EffectiveFrom, parseErr = parseDate(c.Query("effective_from")); parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effective_from must be formatted YYYY-MM-DD"})
		return
	}
	if req.EffectiveTo, parseErr = parseDate(c.Query("effective_to")); parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effective_to must be formatted YYYY-MM-DD"})
		return
	}

	results, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
			return
		}
		h.log.Error("search request failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"filters": gin.H{
			"country":        req.Country,
			"categories":     req.Categories,
			"effective_from": req.EffectiveFrom,
			"effective_to":   req.EffectiveTo,
		},
		"count":   len(results),
		"results": results,
	})
}

// Similar handles GET /api/v1/search/similar/:id.
func (h *SearchHandler) Similar(c *gin.Context) {
	documentID := c.Param("id")

	results, err := h.service.Similar(c.Request.Context(), documentID, parseLimit(c.Query("limit")))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrNoActiveDocument) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		h.log.Error("similar-documents request failed", "document_id", documentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_id": documentID,
		"count":       len(results),
		"results":     results,
	})
}

// parseLimit parses a limit parameter, leaving clamping to the search
// layer. Invalid values fall back to the default.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// parseDate parses an optional YYYY-MM-DD parameter.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
