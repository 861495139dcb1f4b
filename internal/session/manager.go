package session

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/docsafe/internal/config"
)

// CookieName is the name of the cookie carrying the durable session id.
const CookieName = "docsafe_session"

// NewManager creates the scs session manager that backs durable browser storage.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewManager(sqlDB *sql.DB, cfg config.Session) (*scs.SessionManager, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.StorageLifetime

	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax so the session survives the top-level redirect into /login?redirect=...
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = true

	return sm, nil
}

// ScsStorage exposes an scs session as Storage. The request context must have
// passed through LoadAndSave.
type ScsStorage struct {
	sm *scs.SessionManager
}

func NewScsStorage(sm *scs.SessionManager) *ScsStorage {
	return &ScsStorage{sm: sm}
}

func (s *ScsStorage) Get(ctx context.Context, key string) (string, bool) {
	if !s.sm.Exists(ctx, key) {
		return "", false
	}
	return s.sm.GetString(ctx, key), true
}

func (s *ScsStorage) Put(ctx context.Context, key, value string) error {
	s.sm.Put(ctx, key, value)
	return nil
}

func (s *ScsStorage) Remove(ctx context.Context, key string) error {
	s.sm.Remove(ctx, key)
	return nil
}

// Renew rotates the session id, keeping its data.
func (s *ScsStorage) Renew(ctx context.Context) error {
	return s.sm.RenewToken(ctx)
}
