package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
	"github.com/mrlokans/docsafe/internal/forms"
)

const (
	adminDocumentsPath = "/admin/documents"
	adminUsersPath     = "/admin/users"
	adminRequestsPath  = "/admin/requests"

	activityWindow = 7 * 24 * time.Hour
)

// AdminController serves the /admin pages except reports.
type AdminController struct {
	*views
	api     *api.Client
	auditor AuditLog
}

func NewAdminController(v *views, client *api.Client, auditor AuditLog) *AdminController {
	return &AdminController{views: v, api: client, auditor: auditor}
}

// Dashboard shows portal-wide counters and the verification queue.
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	render := func(status int, extra gin.H) {
		if _, ok := extra["Stats"]; !ok {
			extra["Stats"] = entities.Statistics{}
		}
		ctrl.html(c, status, "admin_dashboard", "Admin dashboard", extra)
	}

	stats, err := collectStatistics(ctx, ctrl.api)
	if err != nil {
		ctrl.respondAPIError(c, err, render)
		return
	}
	pending, err := ctrl.api.Documents.List(ctx, api.Filter{Status: string(entities.DocumentPending), Limit: recentItems})
	if err != nil {
		ctrl.respondAPIError(c, err, render)
		return
	}

	extra := gin.H{"Stats": stats, "Documents": pending.Data}
	if ctrl.auditor != nil {
		summary, err := ctrl.auditor.Summary(ctx, activityWindow)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to summarise auth events")
		} else if len(summary) > 0 {
			extra["Activity"] = summary
		}
	}
	render(http.StatusOK, extra)
}

// Documents lists every upload with status and search filters.
func (ctrl *AdminController) Documents(c *gin.Context) {
	filter := listFilter(c, defaultPageSize)
	filter.Role = ""
	extra := gin.H{"Filter": filter, "Query": pagerQuery(filter), "Statuses": documentStatuses}

	page, err := ctrl.api.Documents.List(c.Request.Context(), filter)
	if err != nil {
		ctrl.respondAPIError(c, err, func(status int, h gin.H) {
			h["Pagination"] = api.Pagination{}
			ctrl.html(c, status, "admin_documents", "Documents", merge(extra, h))
		})
		return
	}
	extra["Documents"] = page.Data
	extra["Pagination"] = page.Pagination
	ctrl.html(c, http.StatusOK, "admin_documents", "Documents", extra)
}

func (ctrl *AdminController) VerifyDocument(c *gin.Context) {
	var form forms.RemarksForm
	_ = c.ShouldBind(&form)
	if err := forms.Validate(form); err != nil {
		ctrl.failure(c, adminDocumentsPath, err)
		return
	}
	if _, err := ctrl.api.Documents.Verify(c.Request.Context(), c.Param("id"), form.Remarks); err != nil {
		ctrl.actionFailed(c, adminDocumentsPath, err)
		return
	}
	ctrl.success(c, adminDocumentsPath, "Document verified")
}

func (ctrl *AdminController) RejectDocument(c *gin.Context) {
	var form forms.RejectForm
	_ = c.ShouldBind(&form)
	if err := forms.Validate(form); err != nil {
		ctrl.failure(c, adminDocumentsPath, err)
		return
	}
	if _, err := ctrl.api.Documents.Reject(c.Request.Context(), c.Param("id"), form.Reason); err != nil {
		ctrl.actionFailed(c, adminDocumentsPath, err)
		return
	}
	ctrl.success(c, adminDocumentsPath, "Document rejected")
}

// Users lists accounts with search and role filters.
func (ctrl *AdminController) Users(c *gin.Context) {
	filter := listFilter(c, defaultPageSize)
	filter.Status = ""
	extra := gin.H{"Filter": filter, "Query": pagerQuery(filter)}

	page, err := ctrl.api.Users.List(c.Request.Context(), filter)
	if err != nil {
		ctrl.respondAPIError(c, err, func(status int, h gin.H) {
			h["Pagination"] = api.Pagination{}
			ctrl.html(c, status, "admin_users", "Users", merge(extra, h))
		})
		return
	}
	extra["Users"] = page.Data
	extra["Pagination"] = page.Pagination
	ctrl.html(c, http.StatusOK, "admin_users", "Users", extra)
}

// ToggleUser flips a user's active flag. Admins cannot deactivate themselves.
func (ctrl *AdminController) ToggleUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if me := currentIdentity(c); me != nil && me.ID == id {
		ctrl.failure(c, adminUsersPath, apperrors.New(apperrors.KindValidation, "You cannot deactivate your own account"))
		return
	}

	user, err := ctrl.api.Users.Get(ctx, id)
	if err != nil {
		ctrl.actionFailed(c, adminUsersPath, err)
		return
	}
	active := !user.IsActive
	if _, err := ctrl.api.Users.Update(ctx, id, api.UserUpdate{IsActive: &active}); err != nil {
		ctrl.actionFailed(c, adminUsersPath, err)
		return
	}

	msg := "User deactivated"
	if active {
		msg = "User activated"
	}
	ctrl.success(c, adminUsersPath, msg)
}

// DeleteUser removes a student account. Admin accounts are kept.
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	user, err := ctrl.api.Users.Get(ctx, id)
	if err != nil {
		ctrl.actionFailed(c, adminUsersPath, err)
		return
	}
	if user.IsAdmin() {
		ctrl.failure(c, adminUsersPath, apperrors.New(apperrors.KindValidation, "Admin accounts cannot be deleted"))
		return
	}
	if err := ctrl.api.Users.Delete(ctx, id); err != nil {
		ctrl.actionFailed(c, adminUsersPath, err)
		return
	}
	ctrl.success(c, adminUsersPath, "User deleted")
}

// Requests lists every student request with a status filter.
func (ctrl *AdminController) Requests(c *gin.Context) {
	filter := listFilter(c, defaultPageSize)
	filter.Search, filter.Role = "", ""
	extra := gin.H{"Filter": filter, "Query": pagerQuery(filter), "Statuses": requestStatuses}

	page, err := ctrl.api.Requests.List(c.Request.Context(), filter)
	if err != nil {
		ctrl.respondAPIError(c, err, func(status int, h gin.H) {
			h["Pagination"] = api.Pagination{}
			ctrl.html(c, status, "admin_requests", "Requests", merge(extra, h))
		})
		return
	}
	extra["Requests"] = page.Data
	extra["Pagination"] = page.Pagination
	ctrl.html(c, http.StatusOK, "admin_requests", "Requests", extra)
}

func (ctrl *AdminController) ApproveRequest(c *gin.Context) {
	ctrl.handleRequest(c, "Request approved", func(id, note string) (*entities.Request, error) {
		return ctrl.api.Requests.Approve(c.Request.Context(), id, note)
	}, false)
}

func (ctrl *AdminController) RejectRequest(c *gin.Context) {
	ctrl.handleRequest(c, "Request rejected", func(id, note string) (*entities.Request, error) {
		return ctrl.api.Requests.Reject(c.Request.Context(), id, note)
	}, true)
}

func (ctrl *AdminController) CompleteRequest(c *gin.Context) {
	ctrl.handleRequest(c, "Request completed", func(id, note string) (*entities.Request, error) {
		return ctrl.api.Requests.Complete(c.Request.Context(), id, note)
	}, false)
}

// handleRequest runs one request transition. Rejections require a reason;
// the other transitions take optional remarks.
func (ctrl *AdminController) handleRequest(c *gin.Context, done string, apply func(id, note string) (*entities.Request, error), needsReason bool) {
	var note string
	if needsReason {
		var form forms.RejectForm
		_ = c.ShouldBind(&form)
		if err := forms.Validate(form); err != nil {
			ctrl.failure(c, adminRequestsPath, err)
			return
		}
		note = form.Reason
	} else {
		var form forms.RemarksForm
		_ = c.ShouldBind(&form)
		if err := forms.Validate(form); err != nil {
			ctrl.failure(c, adminRequestsPath, err)
			return
		}
		note = form.Remarks
	}

	if _, err := apply(c.Param("id"), note); err != nil {
		ctrl.actionFailed(c, adminRequestsPath, err)
		return
	}
	ctrl.success(c, adminRequestsPath, done)
}

// actionFailed reports a failed form action on the list it came from.
func (ctrl *AdminController) actionFailed(c *gin.Context, path string, err error) {
	if apperrors.Handled(err) {
		return
	}
	zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("path", c.FullPath()).Msg("admin action failed")
	ctrl.failure(c, path, err)
}

// collectStatistics samples every resource family and tallies it.
func collectStatistics(ctx context.Context, client *api.Client) (entities.Statistics, error) {
	var stats entities.Statistics

	docs, err := client.Documents.List(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		return stats, err
	}
	users, err := client.Users.List(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		return stats, err
	}
	reqs, err := client.Requests.List(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		return stats, err
	}

	stats.CountDocuments(docs.Data)
	stats.CountUsers(users.Data)
	stats.CountRequests(reqs.Data)
	if docs.Pagination.TotalItems > stats.TotalDocuments {
		stats.TotalDocuments = docs.Pagination.TotalItems
	}
	if users.Pagination.TotalItems > stats.TotalUsers {
		stats.TotalUsers = users.Pagination.TotalItems
	}
	if reqs.Pagination.TotalItems > stats.TotalRequests {
		stats.TotalRequests = reqs.Pagination.TotalItems
	}
	return stats, nil
}

func merge(base, over gin.H) gin.H {
	out := make(gin.H, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
