// Package scrape implements the one-shot scrape command.
package scrape

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/regwatch/cmd/common"
	"github.com/ledgerkeep/regwatch/internal/domain"
)

// Command returns the scrape command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape job over the source catalogue",
		Long: `Run a single scrape job to completion. Optional filters narrow the
catalogue; supplying filters that match no sources fails the job.`,
		RunE: run,
	}

	cmd.Flags().String("country", "", "only scrape sources for this country code")
	cmd.Flags().String("category", "", "only scrape sources in this category (award, tax_ruling, payroll_tax, custom)")
	cmd.Flags().String("priority", "", "only scrape sources with this priority (high, medium, low)")

	return cmd
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

	country, _ := cmd.Flags().GetString("country")
	category, _ := cmd.Flags().GetString("category")
	priority, _ := cmd.Flags().GetString("priority")

	filter := domain.SourceFilter{
		Country:  country,
		Category: domain.Category(category),
		Priority: domain.Priority(priority),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job, err := app.Orchestrator.StartJob(ctx, filter)
	if err != nil {
		return err
	}

	if err := app.Orchestrator.Run(ctx, job); err != nil {
		return err
	}

	final, err := app.Jobs.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to load job result: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"job %s %s: scraped=%d updated=%d archived=%d\n",
		final.ID, final.Status,
		final.DocumentsScraped, final.DocumentsUpdated, final.DocumentsArchived,
	)

	return nil
}
