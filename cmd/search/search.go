// Package search implements the command-line search command.
package search

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerkeep/regwatch/cmd/common"
	"github.com/ledgerkeep/regwatch/internal/domain"
)

// Command returns the search command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search active regulatory documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}

	cmd.Flags().String("country", "", "filter by country code")
	cmd.Flags().StringSlice("category", nil, "filter by category, repeatable")
	cmd.Flags().Int("limit", 0, "maximum number of results")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
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
	categories, _ := cmd.Flags().GetStringSlice("category")
	limit, _ := cmd.Flags().GetInt("limit")

	req := &domain.SearchRequest{
		Query:   strings.Join(args, " "),
		Country: country,
		Limit:   limit,
	}
	for _, category := range categories {
		req.Categories = append(req.Categories, domain.Category(category))
	}

	results, err := app.Search.Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no documents matched")
		return nil
	}

	for i, result := range results {
		fmt.Fprintf(out, "%d. %s (%.2f)\n   %s\n", i+1, result.Title, result.RelevanceScore, result.SourceURL)
		if result.Excerpt != "" {
			fmt.Fprintf(out, "   %s\n", result.Excerpt)
		}
	}

	return nil
}
