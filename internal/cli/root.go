// Package cli holds the docsafe command line: the server itself plus a few
// operator tools that reuse the portal's packages.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/logging"
)

// BuildInfo is stamped at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
}

// NewRootCommand returns the docsafe command tree. Running it without a
// subcommand starts the server.
func NewRootCommand(info BuildInfo) *cobra.Command {
	cfg := config.NewConfig()

	serve := NewServeCommand(cfg, info)
	root := &cobra.Command{
		Use:           "docsafe",
		Short:         "DocuSafe document portal",
		Long:          "DocuSafe is the web portal in front of the document verification service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(cfg.Log, cmd.ErrOrStderr())
		},
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		serve,
		NewGateCommand(),
		NewLoginCommand(cfg),
		NewAuditCleanupCommand(cfg),
		NewVersionCommand(info),
	)
	return root
}
