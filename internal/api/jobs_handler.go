package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
	"github.com/ledgerkeep/regwatch/internal/store"
)

// JobRunner starts scrape jobs and executes them.
type JobRunner interface {
	StartJob(ctx context.Context, filter domain.SourceFilter) (*domain.ScrapeJob, error)
	Run(ctx context.Context, job *domain.ScrapeJob) error
}

// JobReader reads persisted jobs.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeJob, error)
}

// JobsHandler handles scrape-job HTTP requests.
type JobsHandler struct {
	runner JobRunner
	jobs   JobReader
	log    logger.Interface
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(runner JobRunner, jobs JobReader, log logger.Interface) *JobsHandler {
	return &JobsHandler{
		runner: runner,
		jobs:   jobs,
		log:    log,
	}
}

// CreateJobRequest is the POST /api/v1/scrape/jobs body. All filters are
// optional; an empty body scrapes the whole catalogue.
type CreateJobRequest struct {
	Country  string `json:"country"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// CreateJob handles POST /api/v1/scrape/jobs. The job runs asynchronously;
// the response carries the created job snapshot.
func (h *JobsHandler) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	// An empty body is a valid unfiltered job.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	filter := domain.SourceFilter{
		Country:  req.Country,
		Category: domain.Category(req.Category),
		Priority: domain.Priority(req.Priority),
	}

	job, err := h.runner.StartJob(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create scrape job"})
		return
	}

	// The request context dies with the response; the run gets its own.
	go func() {
		if runErr := h.runner.Run(context.Background(), job); runErr != nil {
			h.log.Warn("scrape job run failed",
				"job_id", job.ID,
				"error", runErr)
		}
	}()

	c.JSON(http.StatusAccepted, job)
}

// ListJobs handles GET /api/v1/scrape/jobs.
func (h *JobsHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}

	jobs, err := h.jobs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list scrape jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// GetJob handles GET /api/v1/scrape/jobs/:id.
func (h *JobsHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}
