package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/mrlokans/docsafe/internal/entities"
)

// Gate cookie names.
const (
	CookieToken = "token"
	CookieRole  = "userRole"
)

// DefaultCookieMaxAge is the fixed expiry written on every Sync.
const DefaultCookieMaxAge = 24 * time.Hour

// CookieJar is the cookie replica read by the edge gate.
type CookieJar interface {
	SetGateCookies(credential entities.Credential, role entities.Role)
	ExpireGateCookies()
}

// HTTPCookies writes the gate cookies on an HTTP response.
type HTTPCookies struct {
	W      http.ResponseWriter
	Secure bool
	MaxAge time.Duration // DefaultCookieMaxAge when zero
}

func (c HTTPCookies) SetGateCookies(credential entities.Credential, role entities.Role) {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultCookieMaxAge
	}
	expires := time.Now().Add(maxAge)
	http.SetCookie(c.W, c.cookie(CookieToken, string(credential), int(maxAge.Seconds()), expires))
	http.SetCookie(c.W, c.cookie(CookieRole, string(role), int(maxAge.Seconds()), expires))
}

// ExpireGateCookies overwrites both cookies with an already-passed expiry.
func (c HTTPCookies) ExpireGateCookies() {
	http.SetCookie(c.W, c.cookie(CookieToken, "", -1, time.Unix(0, 0)))
	http.SetCookie(c.W, c.cookie(CookieRole, "", -1, time.Unix(0, 0)))
}

func (c HTTPCookies) cookie(name, value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ReadGateCookies returns the raw token and role cookie values, empty when absent.
func ReadGateCookies(r *http.Request) (token, role string) {
	if c, err := r.Cookie(CookieToken); err == nil {
		token = c.Value
	}
	if c, err := r.Cookie(CookieRole); err == nil {
		role = c.Value
	}
	return token, role
}

// MemoryCookies records the gate cookies in memory.
type MemoryCookies struct {
	mu      sync.Mutex
	token   string
	role    string
	expired bool
}

func (m *MemoryCookies) SetGateCookies(credential entities.Credential, role entities.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role, m.expired = string(credential), string(role), false
}

func (m *MemoryCookies) ExpireGateCookies() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role, m.expired = "", "", true
}

// Values returns the current cookie values.
func (m *MemoryCookies) Values() (token, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.role
}

// Expired reports whether the last write was an expiry.
func (m *MemoryCookies) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}
