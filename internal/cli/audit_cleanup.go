package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/docsafe/internal/audit"
	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/database"
	auditrepo "github.com/mrlokans/docsafe/internal/database/audit"
	"github.com/mrlokans/docsafe/internal/scheduler"
)

func NewAuditCleanupCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-cleanup",
		Short: "Delete auth events older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Audit.RetentionDays <= 0 {
				return fmt.Errorf("retention must be positive, got %d days", cfg.Audit.RetentionDays)
			}

			db, err := database.NewDatabase(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			svc := audit.NewService(auditrepo.NewRepository(db.DB))
			ctx := log.Logger.WithContext(cmd.Context())
			if err := scheduler.DirectCleanup(svc, cfg.Audit.RetentionDays)(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed auth events older than %d days from %s\n",
				cfg.Audit.RetentionDays, cfg.Database.Path)
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "Path to the portal database")
	cmd.Flags().IntVar(&cfg.Audit.RetentionDays, "days", cfg.Audit.RetentionDays, "Keep events newer than this many days")
	return cmd
}
