package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

type (
	Config struct {
		HTTP
		API
		Session
		Audit
		Global
		Database
		UI
		Tasks
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Session struct {
		Secret          string
		Lifetime        time.Duration // Max-age of the gate cookies, renewed on every hydrated request
		StorageLifetime time.Duration // Lifetime of the durable browser session
		SecureCookies   bool          // Set to false for local dev without HTTPS

		// Rate limiting configuration for the login form
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Audit struct {
		Enabled       bool
		RetentionDays int    // Days to keep auth events (default: 30)
		Schedule      string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		StaticPath string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		Level  string
		Format LogFormat
	}
)

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("static_path", "")

	// Backend API defaults
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("api_timeout", "30s")

	// Session defaults
	v.SetDefault("session_secret", "")               // Auto-generated if empty
	v.SetDefault("session_lifetime", "24h")          // Gate cookie max-age
	v.SetDefault("session_storage_lifetime", "720h") // 30 days
	v.SetDefault("session_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("session_max_login_attempts", 5)
	v.SetDefault("session_rate_limit_window", "15m")
	v.SetDefault("session_lockout_duration", "30m")

	// Audit defaults
	v.SetDefault("audit_enabled", true)
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", string(LogFormatConsole))

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		API: API{
			BaseURL: v.GetString("API_URL"),
			Timeout: v.GetDuration("API_TIMEOUT"),
		},
		Session: Session{
			Secret:           v.GetString("SESSION_SECRET"),
			Lifetime:         v.GetDuration("SESSION_LIFETIME"),
			StorageLifetime:  v.GetDuration("SESSION_STORAGE_LIFETIME"),
			SecureCookies:    v.GetBool("SESSION_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("SESSION_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("SESSION_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("SESSION_LOCKOUT_DURATION"),
		},
		Audit: Audit{
			Enabled:       v.GetBool("AUDIT_ENABLED"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
			Schedule:      v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: LogFormat(v.GetString("LOG_FORMAT")),
		},
	}
}
