package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

const adminSettingsPath = "/admin/settings"

// CleanupRunner is the audit retention job as the admin pages see it.
// *scheduler.AuditCleanupScheduler satisfies it.
type CleanupRunner interface {
	NextRun() time.Time
	RunNow(ctx context.Context) error
}

// MaintenanceController lets admins trigger background jobs by hand.
type MaintenanceController struct {
	*views
	cleanup CleanupRunner
}

func NewMaintenanceController(v *views, cleanup CleanupRunner) *MaintenanceController {
	return &MaintenanceController{views: v, cleanup: cleanup}
}

// RunAuditCleanup handles POST /admin/maintenance/audit-cleanup.
func (mc *MaintenanceController) RunAuditCleanup(c *gin.Context) {
	if mc.cleanup == nil {
		mc.failure(c, adminSettingsPath, apperrors.New(apperrors.KindValidation, "The audit trail is disabled"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := mc.cleanup.RunNow(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("manual audit cleanup failed")
		mc.failure(c, adminSettingsPath, apperrors.Wrap(apperrors.KindStorage, err, "Audit cleanup failed"))
		return
	}
	mc.success(c, adminSettingsPath, "Audit cleanup started")
}
