package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/docsafe/internal/database"
	auditRepo "github.com/mrlokans/docsafe/internal/database/audit"
	"github.com/mrlokans/docsafe/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(auditRepo.NewRepository(db.DB)), db.DB
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuthEvent{
		UserID:    "u1",
		EventType: entities.AuthEventLogout,
		Status:    entities.AuthStatusSuccess,
		UserAgent: strings.Repeat("a", 600),
	}
	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuthEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, entities.AuthEventLogout, saved.EventType)
	assert.Len(t, saved.UserAgent, maxUserAgentLen)
	assert.True(t, strings.HasSuffix(saved.UserAgent, "..."))
}

func TestService_RecordAuthEventOutlivesRequest(t *testing.T) {
	svc, db := setupTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	svc.RecordAuthEvent(ctx, &entities.AuthEvent{
		UserID:    "u1",
		Role:      entities.RoleAdmin,
		EventType: entities.AuthEventForcedLogout,
		Status:    entities.AuthStatusSuccess,
	})
	cancel()
	svc.Wait()

	var saved entities.AuthEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuthEventForcedLogout).First(&saved).Error)
	assert.Equal(t, entities.RoleAdmin, saved.Role)
}

func TestService_LogAttempt(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	svc.LogAttempt(ctx, entities.AuthEventLoginFailed, "asha@example.edu", "10.0.0.7", "curl/8", errors.New("Invalid credentials"))
	svc.LogAttempt(ctx, entities.AuthEventSignup, "new@example.edu", "10.0.0.8", "curl/8", nil)
	svc.Wait()

	var failed entities.AuthEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuthEventLoginFailed).First(&failed).Error)
	assert.Equal(t, entities.AuthStatusFailed, failed.Status)
	assert.Equal(t, "Invalid credentials", failed.ErrorMsg)
	assert.Equal(t, "10.0.0.7", failed.IPAddress)

	var signup entities.AuthEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuthEventSignup).First(&signup).Error)
	assert.Equal(t, entities.AuthStatusSuccess, signup.Status)
	assert.Empty(t, signup.ErrorMsg)
}

func TestService_SummaryAndCleanup(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuthEvent{EventType: entities.AuthEventLogin}))
	require.NoError(t, svc.Log(ctx, &entities.AuthEvent{EventType: entities.AuthEventLogin, CreatedAt: time.Now().Add(-45 * 24 * time.Hour)}))

	summary, err := svc.Summary(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary[entities.AuthEventLogin])

	deleted, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := svc.GetEvents(ctx, auditRepo.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, events, 1)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))

	// "é" is two bytes; a byte cut at 7 would split the first one.
	got := truncate("abcdefééé", 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "abcdef...", got)
	assert.LessOrEqual(t, len(got), 10)
}
