package authctx

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/entities"
	"github.com/mrlokans/docsafe/internal/session"
)

// ginContextKey is the gin context key under which Provider stores the coordinator.
const ginContextKey = "authctx"

// ProviderConfig wires the per-request coordinator.
type ProviderConfig struct {
	Storage       session.Storage
	SecureCookies bool
	CookieMaxAge  time.Duration
	Auditor       Auditor
	Observer      EventObserver
	Verifier      IdentityVerifier
}

// Provider builds and hydrates a coordinator for every request, then makes it
// available to handlers (FromGin, FromContext) and to the API client as its
// credential source.
func Provider(cfg ProviderConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookies := session.HTTPCookies{W: c.Writer, Secure: cfg.SecureCookies, MaxAge: cfg.CookieMaxAge}
		ac := New(session.NewStore(), cfg.Storage, cookies, NewGinNavigator(c), Options{
			Auditor:   cfg.Auditor,
			Observer:  cfg.Observer,
			Verifier:  cfg.Verifier,
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Path:      c.Request.URL.Path,
		})

		ctx := WithContext(c.Request.Context(), ac)
		ac.Hydrate(ctx)
		ctx = api.WithCredentials(ctx, ac)

		c.Request = c.Request.WithContext(ctx)
		c.Set(ginContextKey, ac)
		c.Next()
	}
}

// FromGin returns the coordinator Provider attached to c, or nil.
func FromGin(c *gin.Context) *Context {
	v, ok := c.Get(ginContextKey)
	if !ok {
		return nil
	}
	ac, _ := v.(*Context)
	return ac
}

// Require lets the request through only when the hydrated session holds role.
// An empty role accepts any authenticated session. It catches gate cookies
// that outlived their durable session.
func Require(role entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := FromGin(c)
		if ac == nil || !ac.IsAuthenticated() {
			target := LoginPath + "?" + url.Values{"redirect": {c.Request.URL.Path}}.Encode()
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		if role != "" && ac.Identity().Role != role {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
