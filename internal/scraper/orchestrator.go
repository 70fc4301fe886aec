// Package scraper drives scrape jobs: it resolves the source catalogue
// against the job's filters, walks the sources through fetch, summarize,
// and the versioning upsert, and tracks the job state machine. A source
// failing never fails the job; partial success is an expected outcome.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerkeep/regwatch/internal/catalogue"
	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/fetcher"
	"github.com/ledgerkeep/regwatch/internal/logger"
	"github.com/ledgerkeep/regwatch/internal/store"
	"github.com/ledgerkeep/regwatch/internal/summarizer"
)

// ErrNoSources is the job-fatal error for a filter set matching nothing.
var ErrNoSources = errors.New("no sources found matching filters")

// cancelledMessage is recorded on jobs terminated by context cancellation.
const cancelledMessage = "job cancelled"

// terminalStateTimeout bounds the database write that moves a job out of
// in_progress after its context has already been cancelled.
const terminalStateTimeout = 10 * time.Second

// JobStore persists the job state machine.
type JobStore interface {
	Create(ctx context.Context, filter domain.SourceFilter) (*domain.ScrapeJob, error)
	MarkInProgress(ctx context.Context, id string, startedAt time.Time) error
	UpdateProgress(ctx context.Context, id string, counters domain.JobCounters) error
	MarkCompleted(ctx context.Context, id string, counters domain.JobCounters, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, errorMessage string, completedAt time.Time) error
}

// SourceProvider yields the catalogue for a run. The catalogue is re-read
// per job, never cached across runs.
type SourceProvider interface {
	Sources() []domain.Source
}

// SourceProviderFunc adapts a function to the SourceProvider interface.
type SourceProviderFunc func() []domain.Source

// Sources calls f.
func (f SourceProviderFunc) Sources() []domain.Source { return f() }

// PageFetcher fetches one source page and extracts its text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// Upserter applies the versioning decision for one scraped source.
type Upserter interface {
	Upsert(ctx context.Context, input store.UpsertInput) (domain.UpsertAction, *domain.Document, error)
}

// CheckTracker decides whether a stable source is due for another fetch.
type CheckTracker interface {
	Due(ctx context.Context, sourceURL string) bool
	RecordCheck(ctx context.Context, sourceURL string, changed bool) error
}

// Orchestrator runs scrape jobs sequentially over the filtered catalogue.
type Orchestrator struct {
	jobs      JobStore
	sources   SourceProvider
	fetcher   PageFetcher
	summarize summarizer.Summarizer
	documents Upserter
	tracker   CheckTracker
	log       logger.Interface

	now func() time.Time
}

// NewOrchestrator creates an orchestrator. tracker may be nil; without it
// every source is fetched on every run.
func NewOrchestrator(
	jobs JobStore,
	sources SourceProvider,
	pageFetcher PageFetcher,
	summarize summarizer.Summarizer,
	documents Upserter,
	tracker CheckTracker,
	log logger.Interface,
) *Orchestrator {
	return &Orchestrator{
		jobs:      jobs,
		sources:   sources,
		fetcher:   pageFetcher,
		summarize: summarize,
		documents: documents,
		tracker:   tracker,
		log:       log,
		now:       time.Now,
	}
}

// StartJob creates a pending job for the given filters. The caller decides
// when (and on which goroutine) to Run it.
func (o *Orchestrator) StartJob(ctx context.Context, filter domain.SourceFilter) (*domain.ScrapeJob, error) {
	job, err := o.jobs.Create(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrape job: %w", err)
	}

	o.log.Info("scrape job created",
		"job_id", job.ID,
		"country", filter.Country,
		"category", filter.Category,
		"priority", filter.Priority)

	return job, nil
}

// Run executes a pending job to a terminal state. Per-source failures are
// counted, never propagated; only resolution-phase failures or cancellation
// fail the job.
func (o *Orchestrator) Run(ctx context.Context, job *domain.ScrapeJob) error {
	if err := o.jobs.MarkInProgress(ctx, job.ID, o.now()); err != nil {
		return fmt.Errorf("failed to start job %s: %w", job.ID, err)
	}

	filter := job.Filter()
	sources := catalogue.Filter(o.sources.Sources(), filter)

	if len(sources) == 0 && !filter.IsZero() {
		o.failJob(job.ID, ErrNoSources.Error())
		return ErrNoSources
	}

	o.log.Info("scrape job started",
		"job_id", job.ID,
		"sources", len(sources))

	var counters domain.JobCounters

	for _, src := range sources {
		if ctx.Err() != nil {
			o.failJob(job.ID, cancelledMessage)
			return fmt.Errorf("%s: %w", cancelledMessage, ctx.Err())
		}

		if o.tracker != nil && !o.tracker.Due(ctx, src.URL) {
			o.log.Debug("source not due, skipping", "url", src.URL)
			continue
		}

		action := o.processSource(ctx, src)
		counters.Record(action)

		if err := o.jobs.UpdateProgress(ctx, job.ID, counters); err != nil {
			o.log.Warn("failed to persist job progress",
				"job_id", job.ID,
				"error", err)
		}
	}

	// Cancellation during the final source would otherwise slip past the
	// loop-top check, and MarkCompleted on the dead context can never
	// reach a terminal state.
	if ctx.Err() != nil {
		o.failJob(job.ID, cancelledMessage)
		return fmt.Errorf("%s: %w", cancelledMessage, ctx.Err())
	}

	if err := o.jobs.MarkCompleted(ctx, job.ID, counters, o.now()); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", job.ID, err)
	}

	o.log.Info("scrape job completed",
		"job_id", job.ID,
		"scraped", counters.Scraped(),
		"updated", counters.Updated,
		"failed", counters.Failed)

	return nil
}

// processSource runs one source through fetch, summarize, and upsert,
// returning the single counter outcome for it.
func (o *Orchestrator) processSource(ctx context.Context, src domain.Source) domain.UpsertAction {
	result, err := o.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		o.log.Warn("source fetch failed",
			"url", src.URL,
			"error", err)
		return domain.ActionFailed
	}

	// Summarizer failures are tolerated: the text-only version persists.
	summary := o.summarize.Summarize(ctx, src, result.Content.Text)

	action, _, err := o.documents.Upsert(ctx, store.UpsertInput{
		Source:        src,
		Title:         o.resolveTitle(src, result),
		RawContent:    result.RawContent,
		ExtractedText: result.Content.Text,
		TokenCount:    result.Content.TokenCount,
		Summary:       summary,
	})
	if err != nil {
		o.log.Warn("source upsert failed",
			"url", src.URL,
			"error", err)
		return domain.ActionFailed
	}

	o.recordCheck(ctx, src.URL, action)

	return action
}

// resolveTitle prefers the page title, falling back to the catalogue's
// subsection then section names.
func (o *Orchestrator) resolveTitle(src domain.Source, result *fetcher.Result) string {
	if result.Content.Title != "" {
		return result.Content.Title
	}
	if src.Subsection != "" {
		return src.Subsection
	}
	return src.Section
}

// recordCheck feeds the adaptive tracker. Tracker errors are logged only;
// scheduling state is advisory.
func (o *Orchestrator) recordCheck(ctx context.Context, url string, action domain.UpsertAction) {
	if o.tracker == nil {
		return
	}

	changed := action == domain.ActionCreated || action == domain.ActionUpdated
	if err := o.tracker.RecordCheck(ctx, url, changed); err != nil {
		o.log.Warn("failed to record check state",
			"url", url,
			"error", err)
	}
}

// failJob moves a job to failed on its own context: the job's context may
// already be cancelled, and a cancelled job must still reach a terminal
// state.
func (o *Orchestrator) failJob(id, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), terminalStateTimeout)
	defer cancel()

	if err := o.jobs.MarkFailed(ctx, id, message, o.now()); err != nil {
		o.log.Error("failed to mark job failed",
			"job_id", id,
			"error", err)
	}
}
