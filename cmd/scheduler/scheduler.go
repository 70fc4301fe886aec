// Package scheduler implements the cron-driven scrape scheduler command.
package scheduler

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ledgerkeep/regwatch/cmd/common"
	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/logger"
)

// Command returns the scheduler command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run scrape jobs on a schedule",
		Long: `Run unfiltered scrape jobs on the configured cron schedule.
The scheduler runs continuously until interrupted.`,
		RunE: run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewDeps(cmd)
	if err != nil {
		return err
	}

	app, err := common.BuildApp(deps)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := deps.Logger
	schedule := deps.Config.Scraper.Schedule

	c := cron.New()
	_, err = c.AddFunc(schedule, func() {
		runScheduledJob(ctx, app, log)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	log.Info("scheduler started", "schedule", schedule)
	c.Start()

	<-ctx.Done()

	// Let an in-flight job finish before exiting.
	<-c.Stop().Done()
	log.Info("scheduler stopped")

	return nil
}

func runScheduledJob(ctx context.Context, app *common.App, log logger.Interface) {
	job, err := app.Orchestrator.StartJob(ctx, domain.SourceFilter{})
	if err != nil {
		log.Warn("failed to create scheduled job", "error", err)
		return
	}

	if err := app.Orchestrator.Run(ctx, job); err != nil {
		log.Warn("scheduled job failed", "job_id", job.ID, "error", err)
	}
}
