// Package cmd implements the regwatch command-line interface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/regwatch/cmd/httpd"
	"github.com/ledgerkeep/regwatch/cmd/scheduler"
	"github.com/ledgerkeep/regwatch/cmd/scrape"
	"github.com/ledgerkeep/regwatch/cmd/search"
)

var rootCmd = &cobra.Command{
	Use:   "regwatch",
	Short: "Regulatory document ingestion, versioning, and search",
	Long: `regwatch keeps an auditable, versioned archive of regulatory documents.
It periodically fetches authoritative pages, versions changed content,
indexes active versions for ranked search, and serves both over HTTP.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yml", "path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(scrape.Command())
	rootCmd.AddCommand(search.Command())
	rootCmd.AddCommand(scheduler.Command())
}
