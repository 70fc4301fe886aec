package elasticsearch

import (
	"time"

	"github.com/ledgerkeep/regwatch/internal/domain"
)

// Result sizing.
const (
	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit = 10
	// MaxLimit caps any caller-supplied limit.
	MaxLimit = 50
)

// Excerpt highlighting bounds.
const (
	excerptFragmentSize = 150
	excerptFragments    = 2
)

// dateLayout formats range bounds for the date field.
const dateLayout = "2006-01-02"

// QueryBuilder builds Elasticsearch queries from search requests.
type QueryBuilder struct{}

// NewQueryBuilder creates a new query builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build constructs the complete ranked query. Results are restricted to
// active documents and sorted strictly descending by relevance score.
func (qb *QueryBuilder) Build(req *domain.SearchRequest) map[string]any {
	return map[string]any{
		"query": qb.buildBoolQuery(req),
		"size":  ClampLimit(req.Limit),
		"sort": []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
		},
		"highlight": map[string]any{
			"fields": map[string]any{
				"extracted_text": map[string]any{
					"fragment_size":       excerptFragmentSize,
					"number_of_fragments": excerptFragments,
				},
			},
		},
		"_source": []string{
			"document_id", "title", "source_url", "category", "country",
			"effective_date", "extracted_text", "summary",
		},
		"track_total_hits": true,
	}
}

// ClampLimit normalizes a caller-supplied limit into [1, MaxLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// buildBoolQuery assembles the must/filter/must_not clauses.
func (qb *QueryBuilder) buildBoolQuery(req *domain.SearchRequest) map[string]any {
	boolQuery := map[string]any{
		"must": []any{
			qb.buildMultiMatchQuery(req.Query),
		},
		"filter": qb.buildFilters(req),
	}

	if req.ExcludeID != "" {
		boolQuery["must_not"] = []any{
			map[string]any{
				"term": map[string]any{"document_id": req.ExcludeID},
			},
		}
	}

	return map[string]any{"bool": boolQuery}
}

// buildMultiMatchQuery ranks title matches above body and summary matches.
func (qb *QueryBuilder) buildMultiMatchQuery(query string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":    query,
			"fields":   []string{"title^3", "extracted_text", "summary"},
			"type":     "best_fields",
			"operator": "or",
		},
	}
}

// buildFilters constructs filter clauses: AND across dimensions, OR within
// the category list. Active status is always enforced.
func (qb *QueryBuilder) buildFilters(req *domain.SearchRequest) []any {
	filters := []any{
		map[string]any{
			"term": map[string]any{"status": string(domain.StatusActive)},
		},
	}

	if req.Country != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"country": req.Country},
		})
	}

	if len(req.Categories) > 0 {
		categories := make([]string, 0, len(req.Categories))
		for _, c := range req.Categories {
			categories = append(categories, string(c))
		}
		filters = append(filters, map[string]any{
			"terms": map[string]any{"category": categories},
		})
	}

	if dateRange := buildDateRange(req.EffectiveFrom, req.EffectiveTo); dateRange != nil {
		filters = append(filters, map[string]any{
			"range": map[string]any{"effective_date": dateRange},
		})
	}

	return filters
}

// buildDateRange returns the range body for the effective_date filter, or
// nil when no bound was supplied.
func buildDateRange(from, to *time.Time) map[string]any {
	if from == nil && to == nil {
		return nil
	}

	dateRange := map[string]any{}
	if from != nil {
		dateRange["gte"] = from.Format(dateLayout)
	}
	if to != nil {
		dateRange["lte"] = to.Format(dateLayout)
	}
	return dateRange
}
