// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-pr-dashboard",
	Short: "Browse GitHub organizations, repositories and pull request statistics.",
	Long: `github-pr-dashboard lists the organizations you belong to, their repositories
and the pull requests of a repository with derived statistics: per-file-type
line changes, weekly PR counts per author and closed PRs per author.

The GitHub token is read from GITHUB_TOKEN (or a .env file).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Load environment variables from these files (default .env)")
}
