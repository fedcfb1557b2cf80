package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Prints the GitHub login the dashboard runs as",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, githubGateway, _, err := setup(cmd)
		if err != nil {
			return err
		}
		login := cfg.DefaultUsername
		if login == "" {
			login, err = githubGateway.FetchViewerLogin(cmd.Context())
			if err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), login)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
