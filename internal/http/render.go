package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/authctx"
	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
	"github.com/mrlokans/docsafe/internal/security"
	"github.com/mrlokans/docsafe/web"
)

// Flash keys.
const (
	flashSuccess = "flash_success"
	flashError   = "flash_error"
)

// Flasher keeps one-shot messages across a redirect. *scs.SessionManager
// satisfies it.
type Flasher interface {
	Put(ctx context.Context, key string, val interface{})
	PopString(ctx context.Context, key string) string
}

var templateFuncs = template.FuncMap{
	"fieldError":  fieldError,
	"formatDate":  formatDate,
	"formatSize":  formatSize,
	"statusClass": statusClass,
	"upper":       strings.ToUpper,
	"add": func(a, b int) int {
		return a + b
	},
}

// loadTemplates parses the embedded page templates.
func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(web.Templates(), "templates/*.html")
}

func fieldError(errs any, field string) string {
	if m, ok := errs.(map[string]string); ok {
		return m[field]
	}
	return ""
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	}
	return ""
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// statusClass maps a document or request status onto its badge class.
func statusClass(status any) string {
	return strings.ToLower(fmt.Sprint(status))
}

// views renders pages and carries flash messages between requests.
type views struct {
	flash Flasher
}

// data builds the template data every page shares: the signed-in user, the
// CSRF field and any pending flash messages. extra wins on key clashes.
func (v *views) data(c *gin.Context, title string, extra gin.H) gin.H {
	h := gin.H{
		"Title":     title,
		"CSRFField": security.CSRFField(c),
	}
	if ac := authctx.FromGin(c); ac != nil && ac.IsAuthenticated() {
		identity := ac.Identity()
		h["User"] = identity
		h["IsAdmin"] = identity.IsAdmin()
		h["Dashboard"] = identity.Role.Dashboard()
	}
	if v.flash != nil {
		ctx := c.Request.Context()
		if msg := v.flash.PopString(ctx, flashSuccess); msg != "" {
			h["Success"] = msg
		}
		if msg := v.flash.PopString(ctx, flashError); msg != "" {
			h["Error"] = msg
		}
	}
	for k, val := range extra {
		h[k] = val
	}
	return h
}

func (v *views) html(c *gin.Context, status int, name, title string, extra gin.H) {
	c.HTML(status, name, v.data(c, title, extra))
}

// redirectWithFlash stores msg for the next page and redirects there.
func (v *views) redirectWithFlash(c *gin.Context, path, key, msg string) {
	if v.flash != nil && msg != "" {
		v.flash.Put(c.Request.Context(), key, msg)
	}
	redirectTo(c, path)
}

func (v *views) success(c *gin.Context, path, msg string) {
	v.redirectWithFlash(c, path, flashSuccess, msg)
}

func (v *views) failure(c *gin.Context, path string, err error) {
	v.redirectWithFlash(c, path, flashError, bannerMessage(err))
}

// errorPage renders the generic error page.
func (v *views) errorPage(c *gin.Context, status int, message string) {
	if wantsJSON(c) {
		respondError(c, status, message)
		return
	}
	v.html(c, status, "error", http.StatusText(status), gin.H{
		"Status":  status,
		"Message": message,
	})
}

// respondAPIError turns a classified failure into a response. When the
// unauthorized hook already answered the request nothing more is written.
// rerender draws the current page again with the given status and extra data.
func (v *views) respondAPIError(c *gin.Context, err error, rerender func(status int, extra gin.H)) {
	if apperrors.Handled(err) || c.IsAborted() {
		return
	}

	logger := zerolog.Ctx(c.Request.Context())
	kind := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindValidation:
		rerender(http.StatusUnprocessableEntity, gin.H{
			"Errors": apperrors.FieldErrors(err),
			"Error":  apperrors.Message(err),
		})
		return
	case apperrors.KindAuthzFailure:
		// A 401 without a coordinator to clear the session.
		c.Redirect(http.StatusFound, authctx.LoginPath)
		return
	}

	status := statusFor(err)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("kind", kind.String()).Int("status", status).Msg("request to document service failed")

	rerender(status, gin.H{"Error": bannerMessage(err)})
}

// statusFor picks the status code a page answers with for err.
func statusFor(err error) int {
	var e *apperrors.Error
	if !apperrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindAuthFailure:
		return http.StatusUnauthorized
	case apperrors.KindStorage:
		return http.StatusInternalServerError
	case apperrors.KindTransport:
		if e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// bannerMessage is the text shown in a page banner. Validation failures show
// their first field message when there is exactly one.
func bannerMessage(err error) string {
	if fields := apperrors.FieldErrors(err); len(fields) == 1 {
		for _, msg := range fields {
			return msg
		}
	}
	return apperrors.Message(err)
}

// currentIdentity returns the signed-in user. Require guarantees one on the
// role groups.
func currentIdentity(c *gin.Context) *entities.Identity {
	if ac := authctx.FromGin(c); ac != nil {
		return ac.Identity()
	}
	return nil
}
