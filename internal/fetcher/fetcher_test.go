package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/regwatch/internal/logger"
	"github.com/ledgerkeep/regwatch/internal/ratelimit"
)

const pageHTML = `<html><head><title>Minimum Wage</title></head><body>
<p>The national minimum wage is $23.23 per hour effective 1 July 2024.
This applies to all award-free employees over 21 years of age.</p>
</body></html>`

func newTestFetcher(client *http.Client) *Fetcher {
	// 1ms interval keeps tests fast while still exercising the limiter.
	return New(ratelimit.New(time.Millisecond), logger.NewNoOp(), Config{Client: client})
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "regwatch")
		_, _ = w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.Client())

	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, result.URL)
	assert.Equal(t, pageHTML, result.RawContent)
	assert.Equal(t, "Minimum Wage", result.Content.Title)
	assert.Contains(t, result.Content.Text, "$23.23 per hour")
	assert.Positive(t, result.Content.TokenCount)
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind FailureKind
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind: FailureStatus,
		},
		{
			name: "not found status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantKind: FailureStatus,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(""))
			},
			wantKind: FailureEmptyBody,
		},
		{
			name: "near-empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html></html>"))
			},
			wantKind: FailureEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f := newTestFetcher(srv.Client())

			result, err := f.Fetch(context.Background(), srv.URL)
			assert.Nil(t, result)
			require.Error(t, err)

			fe, ok := AsFetchError(err)
			require.True(t, ok, "expected a *FetchError, got %T", err)
			assert.Equal(t, tt.wantKind, fe.Kind)
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	f := newTestFetcher(&http.Client{Timeout: time.Second})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, fe.Kind)
}

func TestFetchTimeoutIndependentOfCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(pageHTML))
	}))
	defer srv.Close()

	f := newTestFetcher(&http.Client{Timeout: 50 * time.Millisecond})

	// Caller context has no deadline; the request's own timeout fires.
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, fe.Kind)
}

func TestFetchCancelledDuringRateLimit(t *testing.T) {
	f := New(ratelimit.New(time.Hour), logger.NewNoOp(), Config{})

	// Consume the free first slot so the next acquire must wait.
	require.NoError(t, f.limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, "https://example.gov.au/never-reached")
	require.Error(t, err)

	fe, ok := AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, fe.Kind)
}

func TestFetchCapsResponseBody(t *testing.T) {
	big := "<html><body><p>" + strings.Repeat("x", maxResponseBodyBytes) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.Client())

	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.RawContent), maxResponseBodyBytes)
}
