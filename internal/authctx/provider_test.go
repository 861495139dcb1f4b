package authctx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docsafe/internal/entities"
	"github.com/mrlokans/docsafe/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProviderRouter(storage session.Storage, role entities.Role) *gin.Engine {
	r := gin.New()
	r.Use(Provider(ProviderConfig{Storage: storage}))
	r.GET("/student/dashboard", Require(role), func(c *gin.Context) {
		ac := FromGin(c)
		c.String(http.StatusOK, "hello %s", ac.Identity().Name)
	})
	r.POST("/logout", func(c *gin.Context) {
		FromContext(c.Request.Context()).Logout(c.Request.Context())
	})
	return r
}

func TestProvider_HydratesFromStorage(t *testing.T) {
	storage := session.NewMemoryStorage()
	storeIdentity(t, storage, student(), "tok-1")
	r := newProviderRouter(storage, entities.RoleStudent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/student/dashboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello Asha", w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, session.CookieToken, cookies[0].Name)
	assert.Equal(t, "tok-1", cookies[0].Value)
	assert.Equal(t, session.CookieRole, cookies[1].Name)
	assert.Equal(t, "student", cookies[1].Value)
}

func TestRequire_AnonymousGoesToLogin(t *testing.T) {
	r := newProviderRouter(session.NewMemoryStorage(), entities.RoleStudent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/student/dashboard", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Fstudent%2Fdashboard", w.Header().Get("Location"))
}

func TestRequire_WrongRole(t *testing.T) {
	storage := session.NewMemoryStorage()
	storeIdentity(t, storage, admin(), "tok-1")
	r := newProviderRouter(storage, entities.RoleStudent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/student/dashboard", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestProvider_LogoutExpiresCookies(t *testing.T) {
	storage := session.NewMemoryStorage()
	storeIdentity(t, storage, student(), "tok-1")
	r := newProviderRouter(storage, entities.RoleStudent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	assert.Equal(t, 0, storage.Len())

	var expired int
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			expired++
		}
	}
	assert.Equal(t, 2, expired)
}

func TestGinNavigator_HTMX(t *testing.T) {
	tests := []struct {
		name   string
		force  bool
		header string
	}{
		{name: "navigate", force: false, header: "HX-Location"},
		{name: "force", force: true, header: "HX-Redirect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/student/documents", nil)
			c.Request.Header.Set("HX-Request", "true")

			nav := NewGinNavigator(c)
			if tt.force {
				nav.ForceNavigate(LoginPath)
			} else {
				nav.Navigate(LoginPath)
			}
			c.Writer.WriteHeaderNow()

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, LoginPath, w.Header().Get(tt.header))
			assert.True(t, c.IsAborted())
		})
	}
}

func TestGinNavigator_FirstNavigationWins(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	nav := NewGinNavigator(c)
	nav.ForceNavigate(LoginPath)
	nav.Navigate("/student/dashboard")
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	assert.Equal(t, LoginPath, nav.Target())
}

func TestFromGin_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, FromGin(c))
}
