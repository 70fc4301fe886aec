package domain

import "time"

// JobStatus is the state of a scrape job. Transitions are forward-only:
// pending -> in_progress -> {completed | failed}.
type JobStatus string

const (
	// JobPending means the job is created but not yet started.
	JobPending JobStatus = "pending"
	// JobInProgress means the job is running and counters are advancing.
	JobInProgress JobStatus = "in_progress"
	// JobCompleted means the source loop finished, regardless of
	// individual source failures.
	JobCompleted JobStatus = "completed"
	// JobFailed means filter resolution or infrastructure failed before
	// any per-source processing, or the job was cancelled.
	JobFailed JobStatus = "failed"
)

// ScrapeJob is one run of the scrape pipeline. Counters are persisted
// incrementally so progress is observable mid-flight; rows form an
// append-only run log.
type ScrapeJob struct {
	ID                string     `json:"id" db:"id"`
	Country           *string    `json:"country,omitempty" db:"country"`
	Category          *string    `json:"category,omitempty" db:"category"`
	Priority          *string    `json:"priority,omitempty" db:"priority"`
	Status            JobStatus  `json:"status" db:"status"`
	StartedAt         *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DocumentsScraped  int        `json:"documents_scraped" db:"documents_scraped"`
	DocumentsUpdated  int        `json:"documents_updated" db:"documents_updated"`
	DocumentsArchived int        `json:"documents_archived" db:"documents_archived"`
	ErrorMessage      *string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// Filter reconstructs the source filter snapshot recorded on the job.
func (j *ScrapeJob) Filter() SourceFilter {
	var f SourceFilter
	if j.Country != nil {
		f.Country = *j.Country
	}
	if j.Category != nil {
		f.Category = Category(*j.Category)
	}
	if j.Priority != nil {
		f.Priority = Priority(*j.Priority)
	}
	return f
}

// JobCounters aggregates per-source outcomes for one job run.
// Scraped() == Created+Updated+Unchanged; one archived row per update.
type JobCounters struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Scraped returns the number of sources that yielded a usable document.
func (c JobCounters) Scraped() int {
	return c.Created + c.Updated + c.Unchanged
}

// Archived returns the number of prior versions superseded during the run.
func (c JobCounters) Archived() int {
	return c.Updated
}

// Record increments the counter matching the given action.
func (c *JobCounters) Record(action UpsertAction) {
	switch action {
	case ActionCreated:
		c.Created++
	case ActionUpdated:
		c.Updated++
	case ActionUnchanged:
		c.Unchanged++
	case ActionFailed:
		c.Failed++
	}
}
