package cmd

import (
	"github.com/spf13/cobra"
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "Lists the organizations of the authenticated user as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, githubGateway, _, err := setup(cmd)
		if err != nil {
			return err
		}
		orgs, err := githubGateway.FetchUserOrganizations(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), orgs)
	},
}

func init() {
	rootCmd.AddCommand(orgsCmd)
}
