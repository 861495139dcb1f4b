// Package audit keeps a local, non-authoritative trail of session lifecycle
// events. The document service remains the source of truth for who is who;
// this trail only answers "what happened on this portal instance".
package audit

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/database/audit"
	"github.com/mrlokans/docsafe/internal/entities"
)

const (
	maxErrorLen     = 500
	maxUserAgentLen = 500
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuthEvent) error {
	event.ErrorMsg = truncate(event.ErrorMsg, maxErrorLen)
	event.UserAgent = truncate(event.UserAgent, maxUserAgentLen)
	return s.repo.LogEvent(ctx, event)
}

// RecordAuthEvent records an event in the background. It outlives the
// request that produced it.
func (s *Service) RecordAuthEvent(ctx context.Context, event *entities.AuthEvent) {
	logger := zerolog.Ctx(ctx)
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Log(ctx, event); err != nil {
			logger.Error().Err(err).Str("event_type", string(event.EventType)).Msg("Failed to log auth event")
		}
	}()
}

// LogAttempt records a login or signup attempt that did not produce a session.
func (s *Service) LogAttempt(ctx context.Context, typ entities.AuthEventType, email, ip, userAgent string, err error) {
	event := &entities.AuthEvent{
		EventType: typ,
		Email:     email,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    entities.AuthStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuthStatusFailed
		event.ErrorMsg = err.Error()
	}
	s.RecordAuthEvent(ctx, event)
}

// Wait blocks until every background write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetEvents retrieves paginated events.
func (s *Service) GetEvents(ctx context.Context, f audit.Filter) ([]entities.AuthEvent, int64, error) {
	return s.repo.GetEvents(ctx, f)
}

// Summary counts events by type over the given window ending now.
func (s *Service) Summary(ctx context.Context, window time.Duration) (map[entities.AuthEventType]int64, error) {
	return s.repo.CountByType(ctx, time.Now().Add(-window))
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(ctx, retention)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
