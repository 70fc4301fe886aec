// Package summarizer is the boundary to the external LLM capability that
// turns extracted regulatory text into a structured summary. The output is
// validated against a strict schema; any call or validation failure yields
// nil metadata. Persistence never depends on this package succeeding.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
)

// Schema bounds for the structured summary.
const (
	minObligations = 1
	maxObligations = 10
	maxCitations   = 10
	// maxInputChars bounds the text sent to the model.
	maxInputChars = 30_000
	// requestTimeout bounds one summarization call.
	requestTimeout = 60 * time.Second
	// effectiveDateLayout is the date format the model is asked for.
	effectiveDateLayout = "2006-01-02"
)

// Validation errors for summarizer output.
var (
	errMissingTitle       = errors.New("summary missing title")
	errMissingSummary     = errors.New("summary missing summary text")
	errObligationsBounds  = errors.New("obligations must contain 1 to 10 entries")
	errCitationsBounds    = errors.New("citations must contain at most 10 entries")
	errBadEffectiveDate   = errors.New("effective_date must be YYYY-MM-DD")
	errEmptyModelResponse = errors.New("model returned no choices")
)

// Summarizer produces a structured summary for extracted text, or nil when
// the capability is unavailable or its output fails schema validation.
type Summarizer interface {
	Summarize(ctx context.Context, src domain.Source, text string) *domain.DocumentSummary
}

// Config configures the OpenAI-compatible client.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	client *resty.Client
	model  string
	log    logger.Interface
}

// NewClient creates a summarizer client.
func NewClient(cfg Config, log logger.Interface) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(requestTimeout)

	return &Client{
		client: client,
		model:  cfg.Model,
		log:    log,
	}
}

// chatRequest is the OpenAI-compatible chat completion request body.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the completion response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You summarize regulatory documents for a bookkeeping
compliance system. Respond with a single JSON object:
{"title": string, "summary": string, "obligations": [1-10 strings],
"effective_date": "YYYY-MM-DD" or omitted, "citations": [0-10 strings]}.
Obligations are concrete employer duties stated in the document.`

// Summarize calls the model and validates its output. Returns nil on any
// failure; the document persists without metadata in that case.
func (c *Client) Summarize(ctx context.Context, src domain.Source, text string) *domain.DocumentSummary {
	if len(text) > maxInputChars {
		// Back off to a rune boundary so the prompt stays valid UTF-8.
		cut := maxInputChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	userPrompt := fmt.Sprintf(
		"Source: %s (%s, %s)\nURL: %s\n\nDocument text:\n%s",
		src.Section, src.Country, src.Category, src.URL, text,
	)

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	summary, err := c.complete(ctx, body)
	if err != nil {
		c.log.Warn("summarization failed, continuing without metadata",
			"url", src.URL,
			"error", err.Error(),
		)
		return nil
	}

	return summary
}

// complete executes the chat call and parses the structured summary.
func (c *Client) complete(ctx context.Context, body chatRequest) (*domain.DocumentSummary, error) {
	var parsed chatResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("chat completion status %d", resp.StatusCode())
	}

	if len(parsed.Choices) == 0 {
		return nil, errEmptyModelResponse
	}

	var summary domain.DocumentSummary
	content := parsed.Choices[0].Message.Content
	if unmarshalErr := json.Unmarshal([]byte(content), &summary); unmarshalErr != nil {
		return nil, fmt.Errorf("decode summary: %w", unmarshalErr)
	}

	if validateErr := Validate(&summary); validateErr != nil {
		return nil, fmt.Errorf("validate summary: %w", validateErr)
	}

	return &summary, nil
}

// Validate checks a summary against the strict schema.
func Validate(s *domain.DocumentSummary) error {
	if strings.TrimSpace(s.Title) == "" {
		return errMissingTitle
	}
	if strings.TrimSpace(s.Summary) == "" {
		return errMissingSummary
	}
	if len(s.Obligations) < minObligations || len(s.Obligations) > maxObligations {
		return errObligationsBounds
	}
	if len(s.Citations) > maxCitations {
		return errCitationsBounds
	}
	if s.EffectiveDate != "" {
		if _, err := time.Parse(effectiveDateLayout, s.EffectiveDate); err != nil {
			return errBadEffectiveDate
		}
	}
	return nil
}

// Disabled is a no-op summarizer for runs without an API key.
type Disabled struct{}

// NewDisabled creates the no-op summarizer.
func NewDisabled() Disabled {
	return Disabled{}
}

// Summarize always returns nil metadata.
func (Disabled) Summarize(ctx context.Context, src domain.Source, text string) *domain.DocumentSummary {
	return nil
}
