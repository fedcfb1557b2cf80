package cmd

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/naka-gawa/github-pr-dashboard/internal/domain"
	"github.com/naka-gawa/github-pr-dashboard/internal/usecase"
	"github.com/spf13/cobra"
)

var pullsCmd = &cobra.Command{
	Use:   "pulls",
	Short: "Reports the pull requests of a repository with derived statistics as JSON",
	Long: `Fetches the pull requests of a repository together with their changed files and
outputs the list with closed PRs per author, weekly PR counts per author,
per-file-type line changes per author and PR size figures.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		org, _ := cmd.Flags().GetString("org")
		repo, _ := cmd.Flags().GetString("repo")
		opts := domain.PullRequestListOptions{}
		opts.State, _ = cmd.Flags().GetString("state")
		opts.Sort, _ = cmd.Flags().GetString("sort")
		opts.Direction, _ = cmd.Flags().GetString("direction")
		opts.Base, _ = cmd.Flags().GetString("base")
		if err := validator.New().Struct(opts); err != nil {
			return fmt.Errorf("invalid pull request options: %w", err)
		}

		cfg, githubGateway, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		// Inject dependencies and run the main business logic.
		aggregator := usecase.NewAggregator(githubGateway, logger, cfg.FileFetchConcurrency)
		report, err := aggregator.BuildReport(cmd.Context(), org, repo, opts)
		if err != nil {
			return fmt.Errorf("failed to build pull request report: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(pullsCmd)
	pullsCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	pullsCmd.Flags().StringP("repo", "r", "", "Target repository name (required)")
	pullsCmd.MarkFlagRequired("org")
	pullsCmd.MarkFlagRequired("repo")
	pullsCmd.Flags().String("state", "all", "Pull request state: open, closed or all")
	pullsCmd.Flags().String("sort", "", "Sort by created, updated, popularity or long-running")
	pullsCmd.Flags().String("direction", "", "Sort direction: asc or desc")
	pullsCmd.Flags().String("base", "", "Only pull requests targeting this base branch")
}
