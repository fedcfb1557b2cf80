package cmd

import (
	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Lists the repositories of an organization as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		org, _ := cmd.Flags().GetString("org")
		_, githubGateway, _, err := setup(cmd)
		if err != nil {
			return err
		}
		repos, err := githubGateway.FetchOrganizationRepositories(cmd.Context(), org)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), repos)
	},
}

func init() {
	rootCmd.AddCommand(reposCmd)
	reposCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	reposCmd.MarkFlagRequired("org")
}
