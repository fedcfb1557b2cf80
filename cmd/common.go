package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/github-pr-dashboard/internal/config"
	"github.com/naka-gawa/github-pr-dashboard/internal/gateway"
	"github.com/spf13/cobra"
)

// newLogger discards all logs unless --verbose is set, then logs to standard error.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadConfig(cmd *cobra.Command, logger *log.Logger) (config.Config, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(logger, envFiles...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func gatewayOptions(cfg config.Config, token string) gateway.Options {
	return gateway.Options{
		Token:             token,
		BaseURL:           cfg.APIURL,
		GraphQLURL:        cfg.GraphQLURL,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

// setup loads the configuration and builds the gateway for the configured token.
func setup(cmd *cobra.Command) (config.Config, *gateway.GitHubGateway, *log.Logger, error) {
	logger := newLogger(cmd)
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return cfg, nil, nil, err
	}
	githubGateway, err := gateway.NewGitHubGateway(gatewayOptions(cfg, cfg.Token), logger)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return cfg, githubGateway, logger, nil
}

// printJSON writes v to w as pretty-printed JSON.
func printJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
