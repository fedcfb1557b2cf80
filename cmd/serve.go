package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/naka-gawa/github-pr-dashboard/internal/config"
	"github.com/naka-gawa/github-pr-dashboard/internal/dashboard"
	"github.com/naka-gawa/github-pr-dashboard/internal/gateway"
	"github.com/naka-gawa/github-pr-dashboard/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the dashboard JSON API for a browser front end",
	Long: `Starts an HTTP server that keeps the dashboard selection (organization,
repository) and serves the fetched lists and statistics as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid --addr %q: %w", addr, err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		newFetcher := func(token string) (gateway.Fetcher, error) {
			return gateway.NewGitHubGateway(gatewayOptions(cfg, token), logger)
		}
		session := dashboard.NewSession(newFetcher, dashboard.Options{
			DefaultUsername:      cfg.DefaultUsername,
			FileFetchConcurrency: cfg.FileFetchConcurrency,
		}, logger)
		if err := session.SetToken(ctx, cfg.Token); err != nil {
			logger.Printf("initial organization load failed: %v", err)
		}

		handler := server.NewHandler(session, logger)
		return server.Run(ctx, cfg.ListenAddr, handler.Router(), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides DASHBOARD_ADDR)")
}
