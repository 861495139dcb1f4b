package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/authctx"
	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
	"github.com/mrlokans/docsafe/internal/forms"
	"github.com/mrlokans/docsafe/internal/security"
)

// AuthController serves the anonymous entry pages and logout.
type AuthController struct {
	*views
	api     *api.Client
	limiter *security.RateLimiter
	auditor AuditLog
}

func NewAuthController(v *views, client *api.Client, limiter *security.RateLimiter, auditor AuditLog) *AuthController {
	return &AuthController{views: v, api: client, limiter: limiter, auditor: auditor}
}

func (ctrl *AuthController) Home(c *gin.Context) {
	ctrl.html(c, http.StatusOK, "home", "Welcome", nil)
}

func (ctrl *AuthController) LoginPage(c *gin.Context) {
	ctrl.html(c, http.StatusOK, "login", "Sign in", gin.H{"Form": forms.LoginForm{}})
}

// Login signs in against the document service. On success the session is
// replicated and the browser lands on the role's dashboard; a redirect
// parameter is not honoured.
func (ctrl *AuthController) Login(c *gin.Context) {
	var form forms.LoginForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		extra["Form"] = forms.LoginForm{Email: form.Email}
		ctrl.html(c, status, "login", "Sign in", extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	input := form.Input()

	if ctrl.limiter != nil {
		if allowed, retryAfter := ctrl.limiter.Allow(ip, input.Email); !allowed {
			ctrl.throttled(c, retryAfter, rerender)
			return
		}
	}

	sess, err := ctrl.api.Auth.Login(ctx, input)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAuthFailure {
			ctrl.recordAttempt(c, entities.AuthEventLoginFailed, input.Email, err)
			if ctrl.limiter != nil {
				if locked, retryAfter := ctrl.limiter.RecordFailure(ip, input.Email); locked {
					ctrl.throttled(c, retryAfter, rerender)
					return
				}
			}
		}
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	if ctrl.limiter != nil {
		ctrl.limiter.RecordSuccess(ip, input.Email)
	}

	ctrl.establish(c, sess, rerender)
}

func (ctrl *AuthController) SignupPage(c *gin.Context) {
	ctrl.html(c, http.StatusOK, "signup", "Create account", gin.H{"Form": forms.SignupForm{}})
}

// Signup registers a student account and signs it in.
func (ctrl *AuthController) Signup(c *gin.Context) {
	var form forms.SignupForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		shown := form
		shown.Password, shown.ConfirmPassword = "", ""
		extra["Form"] = shown
		ctrl.html(c, status, "signup", "Create account", extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	input := form.Input()
	sess, err := ctrl.api.Auth.Register(c.Request.Context(), input)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAuthFailure {
			ctrl.recordAttempt(c, entities.AuthEventSignup, input.Email, err)
		}
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	ctrl.recordAttempt(c, entities.AuthEventSignup, input.Email, nil)

	ctrl.establish(c, sess, rerender)
}

// establish hands a fresh session to the coordinator, which navigates on
// success. A storage failure leaves the browser signed out on the same page.
func (ctrl *AuthController) establish(c *gin.Context, sess *api.Session, rerender func(int, gin.H)) {
	ac := authctx.FromGin(c)
	if ac == nil {
		ctrl.errorPage(c, http.StatusInternalServerError, "Session support is not configured")
		return
	}
	if err := ac.Login(c.Request.Context(), sess.Token, &sess.User); err != nil {
		ctrl.respondAPIError(c, err, rerender)
	}
}

// Logout clears every replica of the session and lands on the login page.
func (ctrl *AuthController) Logout(c *gin.Context) {
	ac := authctx.FromGin(c)
	if ac == nil {
		redirectTo(c, authctx.LoginPath)
		return
	}
	ac.Logout(c.Request.Context())
}

func (ctrl *AuthController) ForgotPasswordPage(c *gin.Context) {
	ctrl.html(c, http.StatusOK, "forgot_password", "Forgot password", gin.H{"Form": forms.ForgotPasswordForm{}})
}

func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	var form forms.ForgotPasswordForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		extra["Form"] = form
		ctrl.html(c, status, "forgot_password", "Forgot password", extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	msg, err := ctrl.api.Auth.ForgotPassword(c.Request.Context(), form.Email)
	if err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	if msg == "" {
		msg = "If an account exists for that email, a reset link is on its way."
	}
	ctrl.html(c, http.StatusOK, "forgot_password", "Forgot password", gin.H{
		"Form":    forms.ForgotPasswordForm{},
		"Success": msg,
	})
}

func (ctrl *AuthController) ResetPasswordPage(c *gin.Context) {
	ctrl.html(c, http.StatusOK, "reset_password", "Reset password", gin.H{"Token": c.Param("token")})
}

func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	var form forms.ResetPasswordForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		extra["Token"] = token
		ctrl.html(c, status, "reset_password", "Reset password", extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	if _, err := ctrl.api.Auth.ResetPassword(c.Request.Context(), token, form.Password); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	ctrl.success(c, authctx.LoginPath, "Your password has been reset. Please sign in.")
}

func (ctrl *AuthController) throttled(c *gin.Context, retryAfter time.Duration, rerender func(int, gin.H)) {
	msg := "Too many failed sign-in attempts. Please try again later."
	if retryAfter > 0 {
		minutes := int(retryAfter.Round(time.Minute).Minutes())
		if minutes < 1 {
			minutes = 1
		}
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		msg = fmt.Sprintf("Too many failed sign-in attempts. Try again in %d min.", minutes)
	}
	rerender(http.StatusTooManyRequests, gin.H{"Error": msg})
}

// recordAttempt writes a sign-in attempt to the audit trail. A nil err
// records a success.
func (ctrl *AuthController) recordAttempt(c *gin.Context, typ entities.AuthEventType, email string, err error) {
	if ctrl.auditor == nil {
		return
	}
	ctrl.auditor.LogAttempt(c.Request.Context(), typ, email, c.ClientIP(), c.Request.UserAgent(), err)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Info().Str("event", string(typ)).Msg("sign-in attempt rejected")
	}
}
