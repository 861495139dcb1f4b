package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/crypto"
	"github.com/mrlokans/docsafe/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupManager(t *testing.T) *scs.SessionManager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	sm, err := NewManager(sqlDB, config.Session{
		StorageLifetime: 24 * time.Hour,
		SecureCookies:   false,
	})
	require.NoError(t, err)
	return sm
}

func TestNewManager_CookieSettings(t *testing.T) {
	sm := setupManager(t)

	assert.Equal(t, CookieName, sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sm.Cookie.SameSite)
	assert.Equal(t, "/", sm.Cookie.Path)
}

func TestScsStorage_PersistsAcrossRequests(t *testing.T) {
	sm := setupManager(t)
	sealer, err := crypto.NewSealerFromSecret([]byte("test-secret"), crypto.CredentialKeyInfo)
	require.NoError(t, err)

	router := gin.New()
	router.Use(LoadAndSave(sm))
	router.POST("/login", func(c *gin.Context) {
		storage := NewSealedStorage(NewScsStorage(sm), sealer)
		repl := NewReplicator(NewStore(), storage, HTTPCookies{W: c.Writer})
		require.NoError(t, repl.Renew(c.Request.Context()))
		require.NoError(t, repl.Sync(c.Request.Context(), testIdentity(entities.RoleStudent), "cred-777"))
		c.Redirect(http.StatusFound, "/student/dashboard")
	})
	router.GET("/whoami", func(c *gin.Context) {
		storage := NewSealedStorage(NewScsStorage(sm), sealer)
		repl := NewReplicator(NewStore(), storage, HTTPCookies{W: c.Writer})
		identity, cred, err := repl.Load(c.Request.Context())
		if err != nil {
			c.String(http.StatusUnauthorized, err.Error())
			return
		}
		raw, _ := NewScsStorage(sm).Get(c.Request.Context(), KeyCredential)
		assert.NotEqual(t, "cred-777", raw, "credential must be sealed at rest")
		c.String(http.StatusOK, identity.Email+"|"+string(cred))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "session cookie must be written before the redirect")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asha@example.edu|cred-777", rec.Body.String())
}

func TestScsStorage_WithoutCookieIsEmpty(t *testing.T) {
	sm := setupManager(t)

	router := gin.New()
	router.Use(LoadAndSave(sm))
	router.GET("/", func(c *gin.Context) {
		_, ok := NewScsStorage(sm).Get(c.Request.Context(), KeyIdentity)
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSealedStorage_UnopenableCredentialReadsAbsent(t *testing.T) {
	ctx := t.Context()
	inner := NewMemoryStorage()
	require.NoError(t, inner.Put(ctx, KeyCredential, "plaintext-from-older-build"))
	require.NoError(t, inner.Put(ctx, KeyIdentity, `{"_id":"1"}`))

	sealer, err := crypto.NewSealer(make([]byte, crypto.KeySize))
	require.NoError(t, err)
	storage := NewSealedStorage(inner, sealer)

	_, ok := storage.Get(ctx, KeyCredential)
	assert.False(t, ok)

	v, ok := storage.Get(ctx, KeyIdentity)
	assert.True(t, ok)
	assert.Equal(t, `{"_id":"1"}`, v)
}
