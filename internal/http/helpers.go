package http

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docsafe/internal/api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	// statsSampleLimit caps how many items a dashboard or report pulls per
	// resource family.
	statsSampleLimit = 100
)

// --- Response Types ---

// ErrorResponse is the JSON error body for non-page endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError sends a JSON error with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- HTMX Support ---

// isHTMXRequest returns true if the request is an HTMX request.
func isHTMXRequest(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// wantsJSON reports whether the client asked for JSON instead of a page.
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// --- Parameter Parsing ---

// listFilter reads status, search, role and page from the query string.
// The page size is fixed by the caller.
func listFilter(c *gin.Context, limit int) api.Filter {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return api.Filter{
		Status: strings.TrimSpace(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
		Role:   strings.TrimSpace(c.Query("role")),
		Page:   page,
		Limit:  limit,
	}
}

// pagerQuery returns the filter as a query string without the page, for
// building previous/next links.
func pagerQuery(f api.Filter) template.URL {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Role != "" {
		v.Set("role", f.Role)
	}
	return template.URL(v.Encode())
}

// redirectTo answers a form post with a redirect the browser follows with GET.
func redirectTo(c *gin.Context, path string) {
	if isHTMXRequest(c) {
		c.Header("HX-Location", path)
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, path)
}
