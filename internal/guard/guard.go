// Package guard decides, before any network call, whether the client may show
// a protected view.
//
// The guard decodes the stored token without verifying its signature. A
// tampered token with a future expiry and a forged role passes here; that is
// accepted because the guard only shapes navigation. Every protected API call
// is still checked by the server middleware, which the client cannot bypass.
package guard

import (
	"strings"
	"time"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
)

// Default view paths used for redirects.
const (
	DefaultLoginPath        = "/login"
	DefaultUnauthorizedPath = "/unauthorized"
)

// Action is the outcome of a navigation check.
type Action int

const (
	ActionRender Action = iota
	ActionRedirectLogin
	ActionRedirectUnauthorized
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionRedirectLogin:
		return "redirect_login"
	case ActionRedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Reason explains why a redirect happened.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNoToken        Reason = "no_token"
	ReasonStoreError     Reason = "store_error"
	ReasonMalformed      Reason = "malformed_token"
	ReasonExpired        Reason = "expired"
	ReasonRoleNotAllowed Reason = "role_not_allowed"
	ReasonUnknownRoute   Reason = "unknown_route"
)

// Decision tells the caller what to do with a navigation.
type Decision struct {
	Action Action
	// Target is the view to render or the redirect destination.
	Target string
	Reason Reason
	// Claimed is the decoded, unverified token content when one was readable.
	Claimed *auth.DecodedToken
}

// Route describes a protected view. A nil AllowedRoles admits any unexpired
// token. Children inherit the requirements of every ancestor.
type Route struct {
	Path         string
	AllowedRoles []domain.Role
	Children     []Route
}

// Guard evaluates navigations against a route table.
type Guard struct {
	store            TokenStore
	routes           []Route
	now              func() time.Time
	loginPath        string
	unauthorizedPath string
}

// Option customizes a Guard.
type Option func(*Guard)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithRedirects overrides the login and unauthorized view paths.
func WithRedirects(login, unauthorized string) Option {
	return func(g *Guard) {
		g.loginPath = login
		g.unauthorizedPath = unauthorized
	}
}

// New builds a guard for the route table.
func New(store TokenStore, routes []Route, opts ...Option) *Guard {
	g := &Guard{
		store:            store,
		routes:           routes,
		now:              time.Now,
		loginPath:        DefaultLoginPath,
		unauthorizedPath: DefaultUnauthorizedPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Navigate checks the route chain matching path.
func (g *Guard) Navigate(path string) Decision {
	chain, ok := resolve(g.routes, path)
	if !ok {
		return Decision{Action: ActionRedirectUnauthorized, Target: g.unauthorizedPath, Reason: ReasonUnknownRoute}
	}
	return g.check(path, chain)
}

// Check evaluates a single route outside any table.
func (g *Guard) Check(route Route) Decision {
	return g.check(route.Path, []Route{route})
}

func (g *Guard) check(target string, chain []Route) Decision {
	token, ok, err := g.store.Load()
	if err != nil {
		return g.toLogin(ReasonStoreError, nil)
	}
	if !ok {
		return g.toLogin(ReasonNoToken, nil)
	}

	claimed, err := auth.DecodeWithoutVerifying(token)
	if err != nil {
		return g.toLogin(ReasonMalformed, nil)
	}
	if !g.now().Before(claimed.ExpiresAt) {
		return g.toLogin(ReasonExpired, &claimed)
	}

	for _, route := range chain {
		if route.AllowedRoles != nil && !roleAllowed(claimed.Role, route.AllowedRoles) {
			return Decision{
				Action:  ActionRedirectUnauthorized,
				Target:  g.unauthorizedPath,
				Reason:  ReasonRoleNotAllowed,
				Claimed: &claimed,
			}
		}
	}

	return Decision{Action: ActionRender, Target: target, Claimed: &claimed}
}

func (g *Guard) toLogin(reason Reason, claimed *auth.DecodedToken) Decision {
	return Decision{Action: ActionRedirectLogin, Target: g.loginPath, Reason: reason, Claimed: claimed}
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// resolve walks the route tree segment by segment and returns the matched
// chain from the outermost route down to the target.
func resolve(routes []Route, path string) ([]Route, bool) {
	path = "/" + strings.Trim(path, "/")
	for _, route := range routes {
		prefix := "/" + strings.Trim(route.Path, "/")
		if path == prefix {
			return []Route{route}, true
		}
		if prefix != "/" && !strings.HasPrefix(path, prefix+"/") {
			continue
		}
		rest := strings.TrimPrefix(path, strings.TrimSuffix(prefix, "/"))
		if sub, ok := resolve(route.Children, rest); ok {
			return append([]Route{route}, sub...), true
		}
	}
	return nil, false
}
