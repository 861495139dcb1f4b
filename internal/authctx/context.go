// Package authctx coordinates one browser's session for the length of a request.
//
// A Context is built per request by Provider, hydrated from durable storage,
// and carried in the request's context.Context. Handlers read identity and role
// flags from it and call Login or Logout; the API client calls Unauthorized on
// a 401. Every mutation goes through session.Replicator.Sync.
package authctx

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
	"github.com/mrlokans/docsafe/internal/session"
)

// State of the coordinator.
type State int

const (
	StateUninitialized State = iota
	StateHydrating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// LoginPath is where logout and forced logout land.
const LoginPath = "/login"

// Navigator moves the browser. Navigate is an in-app route change; ForceNavigate
// replaces the whole page.
type Navigator interface {
	Navigate(path string)
	ForceNavigate(path string)
}

// Auditor records session lifecycle events. Implementations must not block.
type Auditor interface {
	RecordAuthEvent(ctx context.Context, event *entities.AuthEvent)
}

// EventObserver counts session lifecycle events.
type EventObserver interface {
	SessionEvent(event string)
}

// IdentityVerifier asks the auth service who the credential belongs to.
type IdentityVerifier interface {
	Me(ctx context.Context) (*entities.Identity, error)
}

// Options are the optional collaborators of a Context.
type Options struct {
	Auditor   Auditor
	Observer  EventObserver
	Verifier  IdentityVerifier
	ClientIP  string
	UserAgent string
	Path      string
}

// Context is the per-request session coordinator.
type Context struct {
	mu    sync.RWMutex
	state State

	repl *session.Replicator
	nav  Navigator
	opts Options
}

// New creates a coordinator in StateUninitialized.
func New(store *session.Store, storage session.Storage, cookies session.CookieJar, nav Navigator, opts Options) *Context {
	return &Context{
		state: StateUninitialized,
		repl:  session.NewReplicator(store, storage, cookies),
		nav:   nav,
		opts:  opts,
	}
}

// Hydrate loads the session from durable storage. A complete, parsable
// session is replicated back out (refreshing the gate cookies) and the
// coordinator becomes authenticated. Anything else clears partial state and
// leaves it anonymous. Hydrate never fails.
func (c *Context) Hydrate(ctx context.Context) {
	c.setState(StateHydrating)
	logger := zerolog.Ctx(ctx)

	identity, credential, err := c.repl.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			logger.Debug().Err(err).Msg("discarding unreadable stored session")
			c.record(ctx, entities.AuthEventHydrateFailed, nil, err)
		}
		if clearErr := c.repl.Sync(ctx, nil, ""); clearErr != nil {
			logger.Debug().Err(clearErr).Msg("failed to clear stored session")
		}
		c.setState(StateAnonymous)
		return
	}

	if err := c.repl.Sync(ctx, identity, credential); err != nil {
		logger.Debug().Err(err).Msg("failed to replicate stored session")
		c.record(ctx, entities.AuthEventHydrateFailed, identity, err)
		c.setState(StateAnonymous)
		return
	}
	c.setState(StateAuthenticated)
}

// Login replicates a freshly issued session and navigates to the role's
// dashboard. If the session cannot be stored nothing is kept and the error is
// returned for the page to show; no navigation happens.
func (c *Context) Login(ctx context.Context, credential entities.Credential, identity *entities.Identity) error {
	if identity == nil || credential.IsZero() {
		return apperrors.New(apperrors.KindAuthFailure, "Login failed. Please try again.")
	}
	logger := zerolog.Ctx(ctx)

	if err := c.repl.Renew(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to renew browser session id")
	}
	if err := c.repl.Sync(ctx, identity, credential); err != nil {
		logger.Error().Err(err).Str("user_id", identity.ID).Msg("failed to store session")
		c.record(ctx, entities.AuthEventLogin, identity, err)
		c.setState(StateAnonymous)
		return err
	}

	c.setState(StateAuthenticated)
	c.record(ctx, entities.AuthEventLogin, identity, nil)
	logger.Info().Str("user_id", identity.ID).Str("role", string(identity.Role)).Msg("user logged in")

	c.nav.Navigate(identity.Role.Dashboard())
	return nil
}

// UpdateIdentity replaces the stored profile after the user edits it. The
// role and id of the current session are kept whatever the response says.
func (c *Context) UpdateIdentity(ctx context.Context, updated *entities.Identity) error {
	current := c.repl.Store().Snapshot()
	if !current.Authenticated() || updated == nil {
		return nil
	}
	next := *updated
	next.ID = current.Identity.ID
	next.Role = current.Identity.Role
	return c.repl.Sync(ctx, &next, current.Credential)
}

// Logout clears every replica and navigates to the login page. Calling it
// while anonymous is harmless.
func (c *Context) Logout(ctx context.Context) {
	identity := c.repl.Store().Identity()
	c.clear(ctx)
	if identity != nil {
		c.record(ctx, entities.AuthEventLogout, identity, nil)
	}
	c.nav.Navigate(LoginPath)
}

// ForceLogout clears every replica and forces a full navigation to the login
// page. It is the global reaction to an unauthorized response.
func (c *Context) ForceLogout(ctx context.Context) {
	identity := c.repl.Store().Identity()
	c.clear(ctx)
	c.record(ctx, entities.AuthEventForcedLogout, identity, nil)
	zerolog.Ctx(ctx).Info().Msg("session rejected by the document service, signing out")
	c.nav.ForceNavigate(LoginPath)
}

// Unauthorized implements the API client's credential source hook.
func (c *Context) Unauthorized(ctx context.Context) {
	c.ForceLogout(ctx)
}

// Credential implements the API client's credential source.
func (c *Context) Credential(context.Context) (entities.Credential, bool) {
	cred := c.repl.Store().Credential()
	return cred, !cred.IsZero()
}

// Verify confirms the stored credential with the auth service. A 401 has
// already forced a logout by the time it returns; other failures leave the
// session alone. The role is never refreshed from the response.
func (c *Context) Verify(ctx context.Context) bool {
	if c.opts.Verifier == nil || !c.IsAuthenticated() {
		return c.IsAuthenticated()
	}
	if _, err := c.opts.Verifier.Me(ctx); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("credential verification failed")
		return false
	}
	return true
}

func (c *Context) clear(ctx context.Context) {
	if err := c.repl.Sync(ctx, nil, ""); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to clear stored session")
	}
	c.setState(StateAnonymous)
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Context) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Identity returns a copy of the current identity, nil when anonymous.
func (c *Context) Identity() *entities.Identity {
	return c.repl.Store().Identity()
}

func (c *Context) IsAuthenticated() bool {
	return c.repl.Store().Identity() != nil
}

func (c *Context) IsAdmin() bool {
	return c.repl.Store().Identity().IsAdmin()
}

func (c *Context) IsStudent() bool {
	return c.repl.Store().Identity().IsStudent()
}

func (c *Context) record(ctx context.Context, typ entities.AuthEventType, identity *entities.Identity, err error) {
	if c.opts.Observer != nil {
		c.opts.Observer.SessionEvent(string(typ))
	}
	if c.opts.Auditor == nil {
		return
	}

	event := &entities.AuthEvent{
		EventType: typ,
		Path:      c.opts.Path,
		IPAddress: c.opts.ClientIP,
		UserAgent: c.opts.UserAgent,
		Status:    entities.AuthStatusSuccess,
	}
	if identity != nil {
		event.UserID = identity.ID
		event.Email = identity.Email
		event.Role = identity.Role
	}
	if err != nil {
		event.Status = entities.AuthStatusFailed
		event.ErrorMsg = err.Error()
	}
	c.opts.Auditor.RecordAuthEvent(ctx, event)
}

type ctxKey struct{}

// WithContext returns a copy of parent carrying ac.
func WithContext(parent context.Context, ac *Context) context.Context {
	return context.WithValue(parent, ctxKey{}, ac)
}

// FromContext returns the coordinator stored by WithContext, or nil.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(ctxKey{}).(*Context)
	return ac
}
