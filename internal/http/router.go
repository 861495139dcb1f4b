package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docsafe/internal/authctx"
	"github.com/mrlokans/docsafe/internal/entities"
	"github.com/mrlokans/docsafe/internal/gate"
	"github.com/mrlokans/docsafe/internal/logging"
	"github.com/mrlokans/docsafe/internal/security"
	"github.com/mrlokans/docsafe/internal/session"
	"github.com/mrlokans/docsafe/web"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
//
// Middleware order matters: the gate only reads cookies and must answer
// before the coordinator hydrates, and the coordinator needs the scs session
// loaded, which in turn must run after CSRF has replaced the request.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(logging.Middleware())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(security.HeadersMiddleware())

	// gorilla/csrf parses the whole form, so bodies are capped before it runs.
	router.Use(security.BodyLimit(formBodyLimit, map[string]int64{studentDocumentsPath: uploadBodyLimit}))

	if len(cfg.CSRFSecret) > 0 {
		router.Use(security.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	storage := cfg.Storage
	var flasher Flasher
	if cfg.SessionManager != nil {
		router.Use(session.LoadAndSave(cfg.SessionManager))
		flasher = cfg.SessionManager
		if storage == nil {
			storage = session.NewScsStorage(cfg.SessionManager)
		}
	}
	if storage == nil {
		storage = session.NewMemoryStorage()
	}

	g := cfg.Gate
	if g == nil {
		g = gate.New(gate.DefaultRoutes)
	}
	var gateObs gate.Observer
	var sessionObs authctx.EventObserver
	if cfg.Metrics != nil {
		gateObs = cfg.Metrics
		sessionObs = cfg.Metrics
	}
	router.Use(gate.Middleware(g, gateObs))

	providerCfg := authctx.ProviderConfig{
		Storage:       storage,
		SecureCookies: cfg.SecureCookies,
		CookieMaxAge:  cfg.CookieMaxAge,
		Observer:      sessionObs,
	}
	if cfg.Auditor != nil {
		providerCfg.Auditor = cfg.Auditor
	}
	if cfg.API != nil {
		providerCfg.Verifier = cfg.API.Auth
	}
	router.Use(authctx.Provider(providerCfg))

	tmpl, err := loadTemplates()
	if err != nil {
		panic(err)
	}
	router.SetHTMLTemplate(tmpl)

	// Serve static files
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	} else {
		router.StaticFS("/static", http.FS(web.Static()))
	}

	v := &views{flash: flasher}
	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(v, cfg.API, cfg.Limiter, cfg.Auditor)
	studentController := NewStudentController(v, cfg.API)
	adminController := NewAdminController(v, cfg.API, cfg.Auditor)
	reportsController := NewReportsController(v, cfg.API, cfg.Auditor)
	var cleanup CleanupRunner
	if cfg.AuditCleanup != nil {
		cleanup = cfg.AuditCleanup
	}
	settingsController := NewSettingsController(v, cfg.API, cleanup)
	maintenanceController := NewMaintenanceController(v, cleanup)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Public and anonymous-only pages
	router.GET("/", authController.Home)
	router.GET("/login", authController.LoginPage)
	router.POST("/login", authController.Login)
	router.GET("/signup", authController.SignupPage)
	router.POST("/signup", authController.Signup)
	router.POST("/logout", authController.Logout)
	router.GET("/forgot-password", authController.ForgotPasswordPage)
	router.POST("/forgot-password", authController.ForgotPassword)
	router.GET("/reset-password/:token", authController.ResetPasswordPage)
	router.POST("/reset-password/:token", authController.ResetPassword)

	// Student pages
	student := router.Group("/student", authctx.Require(entities.RoleStudent))
	student.GET("", redirectHandler(entities.StudentDashboardPath))
	student.GET("/dashboard", studentController.Dashboard)
	student.GET("/documents", studentController.Documents)
	student.POST("/documents", studentController.Upload)
	student.POST("/documents/:id/delete", studentController.DeleteDocument)
	student.GET("/requests", studentController.Requests)
	student.POST("/requests", studentController.CreateRequest)
	student.GET("/settings", settingsController.Page)
	student.POST("/settings/profile", settingsController.UpdateProfile)
	student.POST("/settings/password", settingsController.ChangePassword)

	// Admin pages
	admin := router.Group("/admin", authctx.Require(entities.RoleAdmin))
	admin.GET("", redirectHandler(entities.AdminDashboardPath))
	admin.GET("/dashboard", adminController.Dashboard)
	admin.GET("/documents", adminController.Documents)
	admin.POST("/documents/:id/verify", adminController.VerifyDocument)
	admin.POST("/documents/:id/reject", adminController.RejectDocument)
	admin.GET("/users", adminController.Users)
	admin.POST("/users/:id/toggle", adminController.ToggleUser)
	admin.POST("/users/:id/delete", adminController.DeleteUser)
	admin.GET("/requests", adminController.Requests)
	admin.POST("/requests/:id/approve", adminController.ApproveRequest)
	admin.POST("/requests/:id/reject", adminController.RejectRequest)
	admin.POST("/requests/:id/complete", adminController.CompleteRequest)
	admin.GET("/reports", reportsController.Page)
	admin.GET("/reports/export", reportsController.Export)
	admin.GET("/settings", settingsController.Page)
	admin.POST("/settings/profile", settingsController.UpdateProfile)
	admin.POST("/settings/password", settingsController.ChangePassword)
	admin.POST("/maintenance/audit-cleanup", maintenanceController.RunAuditCleanup)

	router.NoRoute(func(c *gin.Context) {
		v.errorPage(c, http.StatusNotFound, "The page you are looking for does not exist.")
	})

	return router
}

func redirectHandler(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, path)
	}
}
