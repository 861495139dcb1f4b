package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/authctx"
	"github.com/mrlokans/docsafe/internal/entities"
	"github.com/mrlokans/docsafe/internal/forms"
)

// SettingsController serves the profile and password pages of both roles.
type SettingsController struct {
	*views
	api     *api.Client
	cleanup CleanupRunner
}

func NewSettingsController(v *views, client *api.Client, cleanup CleanupRunner) *SettingsController {
	return &SettingsController{views: v, api: client, cleanup: cleanup}
}

func settingsPath(identity *entities.Identity) string {
	if identity.IsAdmin() {
		return "/admin/settings"
	}
	return "/student/settings"
}

func profileForm(identity *entities.Identity) forms.ProfileForm {
	form := forms.ProfileForm{
		Name:             identity.Name,
		Email:            identity.Email,
		EnrollmentNumber: identity.EnrollmentNumber,
		Course:           identity.Course,
	}
	if identity.Year > 0 {
		form.Year = strconv.Itoa(identity.Year)
	}
	return form
}

func (ctrl *SettingsController) Page(c *gin.Context) {
	identity := currentIdentity(c)
	ctrl.render(c, http.StatusOK, identity, gin.H{"Form": profileForm(identity)})
}

func (ctrl *SettingsController) render(c *gin.Context, status int, identity *entities.Identity, extra gin.H) {
	extra["SettingsPath"] = settingsPath(identity)
	if identity.IsAdmin() && ctrl.cleanup != nil {
		extra["Maintenance"] = true
		if next := ctrl.cleanup.NextRun(); !next.IsZero() {
			extra["NextCleanup"] = next
		}
	}
	if _, ok := extra["Form"]; !ok {
		extra["Form"] = profileForm(identity)
	}
	ctrl.html(c, status, "settings", "Settings", extra)
}

// UpdateProfile saves the profile upstream and refreshes the session's
// identity. The role is never taken from the response.
func (ctrl *SettingsController) UpdateProfile(c *gin.Context) {
	identity := currentIdentity(c)
	var form forms.ProfileForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		extra["Form"] = form
		ctrl.render(c, status, identity, extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	ctx := c.Request.Context()
	updated, err := ctrl.api.Users.UpdateProfile(ctx, form.Input())
	if err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	if updated == nil {
		updated = applyProfile(identity, form.Input())
	}

	if ac := authctx.FromGin(c); ac != nil {
		if err := ac.UpdateIdentity(ctx, updated); err != nil {
			ctrl.respondAPIError(c, err, rerender)
			return
		}
	}
	ctrl.success(c, settingsPath(identity), "Profile updated")
}

// applyProfile is the identity after in was saved, for services that answer
// without the updated user.
func applyProfile(identity *entities.Identity, in api.ProfileUpdate) *entities.Identity {
	next := *identity
	next.Name = in.Name
	next.Email = in.Email
	next.EnrollmentNumber = in.EnrollmentNumber
	next.Course = in.Course
	next.Year = in.Year
	return &next
}

func (ctrl *SettingsController) ChangePassword(c *gin.Context) {
	identity := currentIdentity(c)
	var form forms.ChangePasswordForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		if fields, ok := extra["Errors"]; ok {
			extra["PasswordErrors"] = fields
			delete(extra, "Errors")
		}
		ctrl.render(c, status, identity, extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	msg, err := ctrl.api.Auth.UpdatePassword(c.Request.Context(), form.CurrentPassword, form.NewPassword)
	if err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	if msg == "" {
		msg = "Password updated"
	}
	ctrl.success(c, settingsPath(identity), msg)
}
