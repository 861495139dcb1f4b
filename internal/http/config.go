package http

import (
	"context"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/authctx"
	"github.com/mrlokans/docsafe/internal/database"
	"github.com/mrlokans/docsafe/internal/database/audit"
	"github.com/mrlokans/docsafe/internal/entities"
	"github.com/mrlokans/docsafe/internal/gate"
	"github.com/mrlokans/docsafe/internal/metrics"
	"github.com/mrlokans/docsafe/internal/scheduler"
	"github.com/mrlokans/docsafe/internal/security"
	"github.com/mrlokans/docsafe/internal/session"
)

// AuditLog is the slice of the audit service the pages use.
type AuditLog interface {
	authctx.Auditor
	LogAttempt(ctx context.Context, typ entities.AuthEventType, email, ip, userAgent string, err error)
	Summary(ctx context.Context, window time.Duration) (map[entities.AuthEventType]int64, error)
	GetEvents(ctx context.Context, f audit.Filter) ([]entities.AuthEvent, int64, error)
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	API      *api.Client
	Gate     *gate.Gate
	Database *database.Database

	// Browser session. SessionManager is optional; without it Storage must be
	// shared by all requests (tests) and flash messages are dropped.
	SessionManager *scs.SessionManager
	Storage        session.Storage
	CookieMaxAge   time.Duration
	SecureCookies  bool

	// Security
	CSRFSecret []byte
	Limiter    *security.RateLimiter

	// Optional observability
	Auditor AuditLog
	Metrics *metrics.Metrics

	// Audit retention job, shown and triggerable on the admin settings page
	AuditCleanup *scheduler.AuditCleanupScheduler

	// UI paths. Empty StaticPath serves the embedded assets.
	StaticPath string

	// Application info
	Version string
}
