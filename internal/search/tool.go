package search

import (
	"context"

	"github.com/ledgerkeep/regwatch/internal/domain"
)

// ToolMaxResults is the hard cap on results returned through the tool,
// independent of what the caller asks for.
const ToolMaxResults = 10

// Tool wraps the search service as a bounded capability for an agent
// runtime. An optional country scope pins every call to one jurisdiction.
type Tool struct {
	service *Service
	country string
}

// NewTool creates a search tool. Pass an empty country for an unscoped tool.
func NewTool(service *Service, country string) *Tool {
	return &Tool{
		service: service,
		country: country,
	}
}

// Name identifies the tool to the agent runtime.
func (t *Tool) Name() string {
	return "search_regulatory_documents"
}

// Description tells the agent what the tool is for.
func (t *Tool) Description() string {
	return "Search current regulatory documents (awards, tax rulings, payroll tax) by keyword and return ranked excerpts with source URLs."
}

// Call runs a bounded search. The result count never exceeds ToolMaxResults
// and the configured country scope cannot be overridden per call.
func (t *Tool) Call(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 || limit > ToolMaxResults {
		limit = ToolMaxResults
	}

	return t.service.Search(ctx, &domain.SearchRequest{
		Query:   query,
		Country: t.country,
		Limit:   limit,
	})
}
