package security

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies before any middleware reads them. Paths in
// perPath get their own cap, every other request gets defaultMax. A declared
// Content-Length over the cap is refused with 413 without reading the body.
func BodyLimit(defaultMax int64, perPath map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		limit := defaultMax
		if n, ok := perPath[c.Request.URL.Path]; ok {
			limit = n
		}
		if c.Request.ContentLength > limit {
			c.Header("Connection", "close")
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
