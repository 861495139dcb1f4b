package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/audit"
	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/crypto"
	"github.com/mrlokans/docsafe/internal/database"
	auditrepo "github.com/mrlokans/docsafe/internal/database/audit"
	"github.com/mrlokans/docsafe/internal/gate"
	http_controllers "github.com/mrlokans/docsafe/internal/http"
	"github.com/mrlokans/docsafe/internal/metrics"
	"github.com/mrlokans/docsafe/internal/scheduler"
	"github.com/mrlokans/docsafe/internal/security"
	"github.com/mrlokans/docsafe/internal/session"
	"github.com/mrlokans/docsafe/internal/tasks"
)

// HKDF info labels binding each derived key to its use.
const (
	sealerInfo = "docsafe session credential v1"
	csrfInfo   = "docsafe csrf v1"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until ctx is cancelled, then drains it within
// the configured timeout. onShutdown runs before the server stops accepting.
func Serve(ctx context.Context, router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", timeout).Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

// Run builds the portal from cfg and serves until ctx is cancelled or a
// component fails.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	log.Info().Str("version", version).Str("api_url", cfg.API.BaseURL).Msg("Starting DocuSafe portal")

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	secret, err := sessionSecret(cfg.Session.Secret)
	if err != nil {
		return err
	}

	// Durable browser storage: scs in SQLite, with the credential sealed at rest
	sqlDB, err := db.SQL()
	if err != nil {
		return fmt.Errorf("get SQL DB for sessions: %w", err)
	}
	sessionManager, err := session.NewManager(sqlDB, cfg.Session)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}
	sealer, err := crypto.NewSealerFromSecret(secret, sealerInfo)
	if err != nil {
		return fmt.Errorf("derive session key: %w", err)
	}
	storage := session.NewSealedStorage(session.NewScsStorage(sessionManager), sealer)

	csrfKey, err := crypto.DeriveKey(secret, csrfInfo)
	if err != nil {
		return fmt.Errorf("derive CSRF key: %w", err)
	}

	m := metrics.New()

	client, err := api.NewClient(api.Config{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Cache:    api.NewQueryCache(api.ListTTL, 5*time.Minute),
		Observer: m,
	})
	if err != nil {
		return fmt.Errorf("initialize API client: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var auditService *audit.Service
	var cleanup *scheduler.AuditCleanupScheduler
	var taskClient *tasks.Client
	if cfg.Audit.Enabled {
		auditService = audit.NewService(auditrepo.NewRepository(db.DB))

		job := scheduler.DirectCleanup(auditService, cfg.Audit.RetentionDays)
		if cfg.Tasks.Enabled {
			taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
				Workers:         cfg.Tasks.Workers,
				ReleaseAfter:    cfg.Tasks.ReleaseAfter,
				CleanupInterval: cfg.Tasks.CleanupInterval,
			})
			if err != nil {
				return fmt.Errorf("initialize task queue: %w", err)
			}
			defer func() {
				if err := taskClient.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing task client")
				}
			}()
			taskClient.Register(tasks.NewCleanupAuthEventsQueue(auditService))
			job = scheduler.EnqueueCleanup(taskClient, cfg.Audit.RetentionDays)

			g.Go(func() error {
				taskClient.Start(gctx)
				return nil
			})
		}

		cleanup = scheduler.NewAuditCleanupScheduler(cfg.Audit.Schedule, job)
		if err := cleanup.Start(gctx); err != nil {
			return fmt.Errorf("start audit cleanup: %w", err)
		}
	} else {
		log.Info().Msg("Audit trail disabled")
	}

	routerCfg := http_controllers.RouterConfig{
		API:            client,
		Gate:           gate.New(gate.DefaultRoutes),
		Database:       db,
		SessionManager: sessionManager,
		Storage:        storage,
		CookieMaxAge:   cfg.Session.Lifetime,
		SecureCookies:  cfg.Session.SecureCookies,
		CSRFSecret:     csrfKey,
		Limiter:        security.NewRateLimiter(security.RateLimitConfigFrom(cfg.Session)),
		Metrics:        m,
		AuditCleanup:   cleanup,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}
	if auditService != nil {
		routerCfg.Auditor = auditService
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanup != nil {
			cleanup.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
	}

	g.Go(func() error {
		return Serve(gctx, router, cfg, onShutdown)
	})

	err = g.Wait()
	if auditService != nil {
		auditService.Wait()
	}
	return err
}

// sessionSecret decodes the configured secret, hex first and raw bytes
// otherwise. Without one a random secret is generated, so sessions and CSRF
// tokens do not survive a restart.
func sessionSecret(configured string) ([]byte, error) {
	if configured != "" {
		if decoded, err := hex.DecodeString(configured); err == nil && len(decoded) >= 16 {
			return decoded, nil
		}
		return []byte(configured), nil
	}

	secret, err := crypto.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn().Msg("Generated session secret (set SESSION_SECRET to persist sessions across restarts)")
	return secret, nil
}
