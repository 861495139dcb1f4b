// Package gate is the edge authorization check run before any page handler.
//
// The decision depends only on the request path and the two gate cookies
// ("token" and "userRole"). It never sees the in-memory session and never
// calls out, so it is safe under any number of concurrent requests.
//
// The role cookie is a routing hint, not a trust boundary: it is readable and
// forgeable by the browser, so every protected call to the document service
// is authorised again by the service itself.
package gate

import (
	"net/url"
	"strings"

	"github.com/mrlokans/docsafe/internal/entities"
)

// Rule identifies which row of the decision table produced a Decision.
type Rule int

const (
	RuleAllow Rule = iota
	RuleLoginRequired
	RuleAlreadyAuthenticated
	RuleAdminOnly
	RuleStudentOnly
)

func (r Rule) String() string {
	switch r {
	case RuleLoginRequired:
		return "login_required"
	case RuleAlreadyAuthenticated:
		return "already_authenticated"
	case RuleAdminOnly:
		return "admin_only"
	case RuleStudentOnly:
		return "student_only"
	default:
		return "allow"
	}
}

// Cookies are the raw gate cookie values; empty means absent.
type Cookies struct {
	Token string
	Role  string
}

// Decision is the outcome for one request.
type Decision struct {
	Allow    bool
	Location string // redirect target when !Allow
	Rule     Rule
}

// Routes configures the path prefixes the gate protects.
type Routes struct {
	Admin   []string
	Student []string
	Auth    []string // anonymous-only entry pages
	Login   string
}

// DefaultRoutes protects /admin and /student and treats /login and /signup
// as anonymous-only.
var DefaultRoutes = Routes{
	Admin:   []string{"/admin"},
	Student: []string{"/student"},
	Auth:    []string{"/login", "/signup"},
	Login:   "/login",
}

// Gate evaluates Routes against requests.
type Gate struct {
	routes Routes
}

func New(routes Routes) *Gate {
	if routes.Login == "" {
		routes.Login = DefaultRoutes.Login
	}
	return &Gate{routes: routes}
}

// Decide evaluates path against DefaultRoutes.
func Decide(path string, c Cookies) Decision {
	return defaultGate.Decide(path, c)
}

var defaultGate = New(DefaultRoutes)

// Decide applies the decision table; the first matching row wins.
//
//  1. protected path without a token: redirect to login with the path as return target
//  2. auth entry page with token and role: redirect to the role's dashboard
//  3. admin path with a role other than admin: redirect to login
//  4. student path with a role other than student: redirect to login
//  5. otherwise allow
func (g *Gate) Decide(path string, c Cookies) Decision {
	isAdmin := hasAnyPrefix(path, g.routes.Admin)
	isStudent := hasAnyPrefix(path, g.routes.Student)
	isAuth := hasAnyPrefix(path, g.routes.Auth)

	if (isAdmin || isStudent) && c.Token == "" {
		return Decision{Location: g.loginWithReturn(path), Rule: RuleLoginRequired}
	}
	if isAuth && c.Token != "" && c.Role != "" {
		return Decision{Location: entities.Role(c.Role).Dashboard(), Rule: RuleAlreadyAuthenticated}
	}
	if isAdmin && c.Role != string(entities.RoleAdmin) {
		return Decision{Location: g.routes.Login, Rule: RuleAdminOnly}
	}
	if isStudent && c.Role != string(entities.RoleStudent) {
		return Decision{Location: g.routes.Login, Rule: RuleStudentOnly}
	}
	return Decision{Allow: true, Rule: RuleAllow}
}

// Matches reports whether the gate applies to path at all. Role prefixes
// match themselves and anything below them; auth entry pages match exactly.
func (g *Gate) Matches(path string) bool {
	for _, p := range append(append([]string{}, g.routes.Admin...), g.routes.Student...) {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	for _, p := range g.routes.Auth {
		if path == p {
			return true
		}
	}
	return false
}

// LoginPath returns the configured login path.
func (g *Gate) LoginPath() string {
	return g.routes.Login
}

func (g *Gate) loginWithReturn(path string) string {
	return g.routes.Login + "?" + url.Values{"redirect": {path}}.Encode()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
