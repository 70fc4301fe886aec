// Package common builds the shared dependencies every subcommand needs:
// configuration, logging, storage, search, and the scrape pipeline.
package common

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ledgerkeep/regwatch/internal/adaptive"
	"github.com/ledgerkeep/regwatch/internal/catalogue"
	"github.com/ledgerkeep/regwatch/internal/config"
	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/elasticsearch"
	"github.com/ledgerkeep/regwatch/internal/fetcher"
	"github.com/ledgerkeep/regwatch/internal/logger"
	"github.com/ledgerkeep/regwatch/internal/ratelimit"
	"github.com/ledgerkeep/regwatch/internal/scraper"
	"github.com/ledgerkeep/regwatch/internal/search"
	"github.com/ledgerkeep/regwatch/internal/store"
	"github.com/ledgerkeep/regwatch/internal/summarizer"
)

// startupTimeout bounds database migration and index bootstrap.
const startupTimeout = 30 * time.Second

// Deps holds configuration and logging for a command invocation.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewDeps loads configuration and creates the logger from the root
// command's persistent flags.
func NewDeps(cmd *cobra.Command) (*Deps, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read config flag: %w", err)
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("failed to read debug flag: %w", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Debug = true
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}

	log, err := logger.New(&logger.Config{Level: level, Development: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// App is the assembled application: storage, search, and the scrape
// pipeline, ready for a command to drive.
type App struct {
	Documents    *store.DocumentRepository
	Jobs         *store.JobRepository
	Orchestrator *scraper.Orchestrator
	Search       *search.Service

	closers []func() error
}

// BuildApp connects to Postgres, Elasticsearch, and optionally Redis, runs
// migrations and index bootstrap, and wires the pipeline.
func BuildApp(deps *Deps) (*App, error) {
	cfg := deps.Config
	log := deps.Logger

	db, err := store.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	app := &App{closers: []func() error{db.Close}}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := store.Migrate(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	esClient, err := elasticsearch.NewClient(cfg.Elasticsearch)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}

	if err := esClient.EnsureIndex(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to bootstrap search index: %w", err)
	}

	var tracker scraper.CheckTracker
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.closers = append(app.closers, redisClient.Close)
		tracker = adaptive.NewTracker(redisClient, cfg.Scraper.AdaptiveBaseline)
		log.Info("adaptive check scheduling enabled", "redis", cfg.Redis.Address)
	}

	app.Documents = store.NewDocumentRepository(db)
	app.Jobs = store.NewJobRepository(db)

	versions := store.NewVersionManager(app.Documents, esClient, log)

	pageFetcher := fetcher.New(
		ratelimit.New(cfg.Scraper.RateLimit),
		log,
		fetcher.Config{
			UserAgent: cfg.Scraper.UserAgent,
			Client:    &http.Client{Timeout: cfg.Scraper.FetchTimeout},
		},
	)

	var summarize summarizer.Summarizer = summarizer.NewDisabled()
	if cfg.Summarizer.APIKey != "" {
		summarize = summarizer.NewClient(cfg.Summarizer, log)
	} else {
		log.Info("summarizer disabled, documents will persist without metadata")
	}

	provider := scraper.SourceProviderFunc(func() []domain.Source {
		return catalogue.LoadFile(cfg.Scraper.CataloguePath)
	})

	app.Orchestrator = scraper.NewOrchestrator(
		app.Jobs, provider, pageFetcher, summarize, versions, tracker, log,
	)
	app.Search = search.NewService(esClient, app.Documents, log)

	return app, nil
}

// Close releases the app's connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
