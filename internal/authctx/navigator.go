package authctx

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// GinNavigator navigates by answering the current request with a redirect.
// Only the first navigation of a request takes effect.
type GinNavigator struct {
	c    *gin.Context
	once sync.Once
	to   string
}

func NewGinNavigator(c *gin.Context) *GinNavigator {
	return &GinNavigator{c: c}
}

// Navigate redirects with 302 Found. HTMX requests get an HX-Location header
// so the swap happens client side.
func (n *GinNavigator) Navigate(path string) {
	n.once.Do(func() {
		n.to = path
		if n.c.GetHeader("HX-Request") == "true" {
			n.c.Header("HX-Location", path)
			n.c.AbortWithStatus(http.StatusNoContent)
			return
		}
		n.c.Redirect(http.StatusFound, path)
		n.c.Abort()
	})
}

// ForceNavigate replaces the whole page. HTMX requests get HX-Redirect,
// which makes the browser perform a full load.
func (n *GinNavigator) ForceNavigate(path string) {
	n.once.Do(func() {
		n.to = path
		if n.c.GetHeader("HX-Request") == "true" {
			n.c.Header("HX-Redirect", path)
			n.c.AbortWithStatus(http.StatusNoContent)
			return
		}
		n.c.Redirect(http.StatusFound, path)
		n.c.Abort()
	})
}

// Target returns where the request was sent, empty if it was not.
func (n *GinNavigator) Target() string {
	return n.to
}

// RecordingNavigator remembers navigations without performing them.
type RecordingNavigator struct {
	mu     sync.Mutex
	Paths  []string
	Forced []bool
}

func (r *RecordingNavigator) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Paths = append(r.Paths, path)
	r.Forced = append(r.Forced, false)
}

func (r *RecordingNavigator) ForceNavigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Paths = append(r.Paths, path)
	r.Forced = append(r.Forced, true)
}

// Last returns the most recent navigation.
func (r *RecordingNavigator) Last() (path string, forced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Paths) == 0 {
		return "", false
	}
	return r.Paths[len(r.Paths)-1], r.Forced[len(r.Forced)-1]
}
