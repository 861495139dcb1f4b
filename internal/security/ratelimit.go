package security

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mrlokans/docsafe/internal/config"
)

// RateLimiter throttles login attempts per client IP and email. Records
// expire on their own once both the window and the lockout have passed.
type RateLimiter struct {
	mu              sync.Mutex
	attempts        *cache.Cache
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // default 5
	WindowDuration  time.Duration // default 15m
	LockoutDuration time.Duration // default 30m
}

// RateLimitConfigFrom reads the limiter settings from the session section.
func RateLimitConfigFrom(cfg config.Session) RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}

	ttl := cfg.WindowDuration + cfg.LockoutDuration
	return &RateLimiter{
		attempts:        cache.New(ttl, 5*time.Minute),
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
	}
}

func makeKey(ip, email string) string {
	return ip + "|" + strings.ToLower(strings.TrimSpace(email))
}

// Allow reports whether a login attempt may proceed and, if not, how long
// until it may.
func (rl *RateLimiter) Allow(ip, email string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, found := rl.attempts.Get(makeKey(ip, email))
	if !found {
		return true, 0
	}
	record := v.(attemptRecord)
	now := time.Now()

	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.windowDuration {
		return true, 0
	}
	return record.count < rl.maxAttempts, 0
}

// RecordFailure counts a rejected login and reports whether it triggered a lockout.
func (rl *RateLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	key := makeKey(ip, email)
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record := attemptRecord{firstAttempt: now}
	if v, found := rl.attempts.Get(key); found {
		record = v.(attemptRecord)
	}
	if now.Sub(record.firstAttempt) > rl.windowDuration {
		record = attemptRecord{firstAttempt: now}
	}

	record.count++
	locked := record.count >= rl.maxAttempts
	if locked {
		record.lockedUntil = now.Add(rl.lockoutDuration)
	}
	rl.attempts.SetDefault(key, record)

	if locked {
		return true, rl.lockoutDuration
	}
	return false, 0
}

// RecordSuccess forgets previous failures.
func (rl *RateLimiter) RecordSuccess(ip, email string) {
	rl.attempts.Delete(makeKey(ip, email))
}
