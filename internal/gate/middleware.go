package gate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/session"
)

// Observer receives one call per evaluated request.
type Observer interface {
	GateDecision(rule string)
}

// Middleware returns a gin handler that enforces g. Requests outside the
// gate's matcher pass through untouched. obs may be nil.
func Middleware(g *Gate, obs Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !g.Matches(path) {
			c.Next()
			return
		}

		token, role := session.ReadGateCookies(c.Request)
		d := g.Decide(path, Cookies{Token: token, Role: role})
		if obs != nil {
			obs.GateDecision(d.Rule.String())
		}

		if d.Allow {
			c.Next()
			return
		}

		zerolog.Ctx(c.Request.Context()).Debug().
			Str("path", path).
			Str("rule", d.Rule.String()).
			Str("location", d.Location).
			Msg("gate redirect")

		c.Redirect(http.StatusFound, d.Location)
		c.Abort()
	}
}
