package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reposcope/internal/api"
	"reposcope/internal/platform/config"
	"reposcope/internal/platform/logger"
)

func newServeCmd() *cobra.Command {
	var (
		token          string
		mirrorStrategy string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(token, mirrorStrategy)
			if err != nil {
				return err
			}
			srv := api.NewServer(config.New().Prefix("REPOSCOPE_API_"), d.service, d.store)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Named("api").Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token (defaults to REPOSCOPE_GITHUB_TOKEN or GITHUB_TOKEN)")
	cmd.Flags().StringVar(&mirrorStrategy, "mirror-strategy", "archive", "how to mirror trees: archive or clone")
	return cmd
}
