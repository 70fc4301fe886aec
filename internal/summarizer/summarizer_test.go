package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
)

var testSource = domain.Source{
	Country:  "AU",
	Section:  "Taxation",
	URL:      "https://example.gov.au/tax/rulings",
	Category: domain.CategoryTaxRuling,
}

// chatServer returns a test server answering chat completions with content.
func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func validSummaryJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(domain.DocumentSummary{
		Title:         "Payroll Tax Ruling PTA-001",
		Summary:       "Clarifies grouping provisions for payroll tax.",
		Obligations:   []string{"Register for payroll tax when wages exceed the threshold."},
		EffectiveDate: "2026-07-01",
		Citations:     []string{"Payroll Tax Act 2007 s 32"},
	})
	require.NoError(t, err)
	return string(b)
}

func TestSummarizeSuccess(t *testing.T) {
	srv := chatServer(t, http.StatusOK, validSummaryJSON(t))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test", Model: "gpt-4o-mini"}, logger.NewNoOp())

	summary := c.Summarize(context.Background(), testSource, "ruling text")
	require.NotNil(t, summary)
	assert.Equal(t, "Payroll Tax Ruling PTA-001", summary.Title)
	assert.Len(t, summary.Obligations, 1)
	assert.Equal(t, "2026-07-01", summary.EffectiveDate)
}

func TestSummarizeReturnsNilOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"rate limited", http.StatusTooManyRequests, ""},
		{"content is not json", http.StatusOK, "here is your summary:"},
		{"missing title", http.StatusOK, `{"summary":"s","obligations":["a"]}`},
		{"missing summary", http.StatusOK, `{"title":"t","obligations":["a"]}`},
		{"zero obligations", http.StatusOK, `{"title":"t","summary":"s","obligations":[]}`},
		{"bad effective date", http.StatusOK, `{"title":"t","summary":"s","obligations":["a"],"effective_date":"July 2026"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.content)
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, APIKey: "test"}, logger.NewNoOp())

			summary := c.Summarize(context.Background(), testSource, "text")
			assert.Nil(t, summary)
		})
	}
}

func TestSummarizeTruncatesInputOnRuneBoundary(t *testing.T) {
	var userPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		userPrompt = req.Messages[1].Content

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": validSummaryJSON(t)}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test"}, logger.NewNoOp())

	// The odd-length prefix puts a 2-byte rune across the cutoff.
	text := "a" + strings.Repeat("é", maxInputChars)
	summary := c.Summarize(context.Background(), testSource, text)

	require.NotNil(t, summary)
	assert.True(t, utf8.ValidString(userPrompt))
	assert.Contains(t, userPrompt, "é")
	assert.NotContains(t, userPrompt, string(utf8.RuneError))
}

func TestSummarizeUnreachableEndpoint(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "")
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test"}, logger.NewNoOp())

	assert.Nil(t, c.Summarize(context.Background(), testSource, "text"))
}

func TestValidate(t *testing.T) {
	many := make([]string, 11)
	for i := range many {
		many[i] = "x"
	}

	tests := []struct {
		name    string
		summary domain.DocumentSummary
		wantErr bool
	}{
		{
			name: "valid minimal",
			summary: domain.DocumentSummary{
				Title: "t", Summary: "s", Obligations: []string{"a"},
			},
		},
		{
			name: "valid full",
			summary: domain.DocumentSummary{
				Title: "t", Summary: "s",
				Obligations:   many[:10],
				EffectiveDate: "2026-01-31",
				Citations:     many[:10],
			},
		},
		{
			name: "too many obligations",
			summary: domain.DocumentSummary{
				Title: "t", Summary: "s", Obligations: many,
			},
			wantErr: true,
		},
		{
			name: "too many citations",
			summary: domain.DocumentSummary{
				Title: "t", Summary: "s", Obligations: []string{"a"}, Citations: many,
			},
			wantErr: true,
		},
		{
			name: "whitespace title",
			summary: domain.DocumentSummary{
				Title: "   ", Summary: "s", Obligations: []string{"a"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.summary)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDisabledSummarizer(t *testing.T) {
	assert.Nil(t, NewDisabled().Summarize(context.Background(), testSource, "text"))
}
