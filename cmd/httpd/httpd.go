// Package httpd implements the HTTP server command.
package httpd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/regwatch/cmd/common"
	"github.com/ledgerkeep/regwatch/internal/api"
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server for scrape job control and document search.
The server runs until interrupted.`,
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

	server := api.NewServer(
		api.Config{
			Address:      deps.Config.Server.Address,
			ReadTimeout:  deps.Config.Server.ReadTimeout,
			WriteTimeout: deps.Config.Server.WriteTimeout,
			Debug:        deps.Config.Debug,
		},
		api.NewJobsHandler(app.Orchestrator, app.Jobs, deps.Logger),
		api.NewSearchHandler(app.Search, deps.Logger),
		deps.Logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}
