// Package fetcher retrieves regulatory pages over HTTP and reduces them to
// normalized plain text. All outbound requests pass through a shared rate
// limiter; every failure is returned as a tagged FetchError value.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ledgerkeep/regwatch/internal/logger"
	"github.com/ledgerkeep/regwatch/internal/ratelimit"
)

// Fetch limits.
const (
	// DefaultTimeout is the per-request timeout, independent of any
	// caller-side job deadline.
	DefaultTimeout = 30 * time.Second
	// maxResponseBodyBytes limits the size of fetched responses.
	maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB
	// minBodyBytes is the smallest body treated as real content.
	minBodyBytes = 64
	// defaultUserAgent identifies the service to source sites.
	defaultUserAgent = "regwatch/1.0 (+https://github.com/ledgerkeep/regwatch)"
)

// Result is a successful fetch: the raw page plus its extracted text.
type Result struct {
	URL        string
	RawContent string
	Content    *ExtractedContent
}

// Config configures a Fetcher.
type Config struct {
	UserAgent string
	Client    *http.Client
}

// Fetcher fetches pages through the shared rate limiter and extracts text.
type Fetcher struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	extractor *ContentExtractor
	userAgent string
	log       logger.Interface
}

// New creates a fetcher. The limiter must be the process-wide instance so
// the minimum interval holds across all callers.
func New(limiter *ratelimit.Limiter, log logger.Interface, cfg Config) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		client:    client,
		limiter:   limiter,
		extractor: NewContentExtractor(),
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch retrieves the URL and extracts its text. The returned error, when
// non-nil, is always a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if err := f.limiter.Acquire(ctx); err != nil {
		return nil, &FetchError{Kind: FailureNetwork, URL: url, Err: err}
	}

	body, statusCode, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{Kind: FailureStatus, URL: url, StatusCode: statusCode}
	}

	if len(body) < minBodyBytes {
		return nil, &FetchError{Kind: FailureEmptyBody, URL: url}
	}

	content, extractErr := f.extractor.Extract(body)
	if extractErr != nil {
		return nil, &FetchError{Kind: FailureEmptyBody, URL: url, Err: extractErr}
	}

	if content.Text == "" {
		return nil, &FetchError{Kind: FailureEmptyBody, URL: url}
	}

	f.log.Debug("page fetched",
		"url", url,
		"bytes", len(body),
		"tokens", content.TokenCount,
		"truncated", content.Truncated,
	)

	return &Result{
		URL:        url,
		RawContent: string(body),
		Content:    content,
	}, nil
}

// doRequest performs the HTTP GET and reads the capped body.
func (f *Fetcher) doRequest(ctx context.Context, url string) (body []byte, statusCode int, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, 0, &FetchError{Kind: FailureNetwork, URL: url, Err: reqErr}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, 0, &FetchError{Kind: FailureNetwork, URL: url, Err: doErr}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, resp.StatusCode, &FetchError{Kind: FailureNetwork, URL: url, Err: readErr}
	}

	return body, resp.StatusCode, nil
}
