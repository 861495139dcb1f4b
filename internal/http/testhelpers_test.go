package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	studentJSON = `{"_id":"s1","name":"Asha","email":"asha@example.edu","role":"student","enrollmentNumber":"EN-1","course":"Physics","year":2,"isActive":true,"createdAt":"2024-01-12T09:00:00Z","updatedAt":"2024-01-12T09:00:00Z"}`
	adminJSON   = `{"_id":"a1","name":"Ravi","email":"ravi@example.edu","role":"admin","isActive":true,"createdAt":"2023-09-01T09:00:00Z","updatedAt":"2023-09-01T09:00:00Z"}`
)

// fakeService stands in for the document service. Handlers are registered
// per test with Go 1.22 method patterns under /api.
type fakeService struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server

	mu    sync.Mutex
	calls []string
	auth  []string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{t: t, mux: http.NewServeMux()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)

	f.handle("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch {
		case in.Email == "asha@example.edu" && in.Password == "secret1":
			writeRaw(w, http.StatusOK, `{"success":true,"data":{"token":"tok-student","user":`+studentJSON+`}}`)
		case in.Email == "ravi@example.edu" && in.Password == "secret1":
			writeRaw(w, http.StatusOK, `{"success":true,"data":{"token":"tok-admin","user":`+adminJSON+`}}`)
		default:
			writeRaw(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
		}
	})
	return f
}

func (f *fakeService) handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, h)
}

func (f *fakeService) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeService) lastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) == 0 {
		return ""
	}
	return f.auth[len(f.auth)-1]
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func emptyPage() string {
	return `{"success":true,"data":[],"pagination":{"currentPage":1,"totalPages":1,"totalItems":0,"itemsPerPage":10}}`
}

type testApp struct {
	router  *gin.Engine
	service *fakeService
	sm      *scs.SessionManager
	audit   *recordingAudit
}

type appOption func(*RouterConfig)

// newTestApp wires the real router against a fake document service, an
// in-memory scs session and no CSRF.
func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	svc := newFakeService(t)

	client, err := api.NewClient(api.Config{
		BaseURL: svc.server.URL + "/api",
		Timeout: 2 * time.Second,
		Cache:   api.NewQueryCache(time.Minute, time.Minute),
	})
	require.NoError(t, err)

	sm := scs.New()
	sm.Cookie.Name = session.CookieName
	audit := &recordingAudit{}

	cfg := RouterConfig{
		API:            client,
		SessionManager: sm,
		Auditor:        audit,
		Version:        "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testApp{router: NewRouter(cfg), service: svc, sm: sm, audit: audit}
}

// browser replays cookies between requests the way a browser would.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]string
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: map[string]string{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	w := httptest.NewRecorder()
	b.app.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// login signs the browser in through the real login page.
func (b *browser) login(email string) {
	b.t.Helper()
	w := b.post("/login", url.Values{"email": {email}, "password": {"secret1"}})
	require.Equal(b.t, http.StatusFound, w.Code, w.Body.String())
}
