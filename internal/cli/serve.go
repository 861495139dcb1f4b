package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/entrypoint"
)

func NewServeCommand(cfg *config.Config, info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return entrypoint.Run(ctx, cfg, info.Version)
		},
	}

	cmd.Flags().Int32Var(&cfg.HTTP.Port, "port", cfg.HTTP.Port, "Port to listen on")
	cmd.Flags().StringVar(&cfg.HTTP.Host, "host", cfg.HTTP.Host, "Interface to bind")
	cmd.Flags().StringVar(&cfg.API.BaseURL, "api-url", cfg.API.BaseURL, "Document service base URL")
	cmd.Flags().StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "Path to the portal database")
	return cmd
}
