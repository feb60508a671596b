package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/guard"
)

// Routes is the storefront view table checked before any protected request.
func Routes() []guard.Route {
	return []guard.Route{
		{Path: "/profile"},
		{Path: "/checkout", AllowedRoles: []domain.Role{domain.RoleCustomer, domain.RoleAdmin}},
		{
			Path:         "/admin",
			AllowedRoles: []domain.Role{domain.RoleAdmin},
			Children:     []guard.Route{{Path: "/users"}},
		},
	}
}

// App implements the CLI commands on top of the guard and the API client.
type App struct {
	api   *Client
	store guard.TokenStore
	guard *guard.Guard
	out   io.Writer
}

// NewApp wires the commands. Guard options are passed through.
func NewApp(api *Client, store guard.TokenStore, out io.Writer, opts ...guard.Option) *App {
	return &App{
		api:   api,
		store: store,
		guard: guard.New(store, Routes(), opts...),
		out:   out,
	}
}

// Login signs in and stores the token under the well-known key.
func (a *App) Login(email, password string) error {
	session, err := a.api.Login(email, password)
	if err != nil {
		return err
	}
	if err := a.store.Save(session.Auth.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Fprintf(a.out, "logged in as %s (%s), token expires %s\n",
		session.User.Email, session.User.Role, session.Auth.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Logout forgets the stored token.
func (a *App) Logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

// WhoAmI prints what the stored token claims. Nothing is verified.
func (a *App) WhoAmI() error {
	token, ok, err := a.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	claimed, err := auth.DecodeWithoutVerifying(token)
	if err != nil {
		fmt.Fprintln(a.out, "stored token is unreadable")
		return nil
	}
	fmt.Fprintf(a.out, "subject %s, role %s, expires %s (unverified)\n",
		claimed.SubjectID, claimed.Role, claimed.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Open navigates to path. The guard runs first; on a redirect no request is
// made. A 401 from the server drops the stored token.
func (a *App) Open(path string) error {
	decision := a.guard.Navigate(path)
	if decision.Action != guard.ActionRender {
		a.redirect(decision.Target, string(decision.Reason))
		return nil
	}

	token, _, err := a.store.Load()
	if err != nil {
		return err
	}

	var view any
	switch "/" + strings.Trim(path, "/") {
	case "/profile":
		view, err = a.api.Profile(token)
	case "/checkout":
		view, err = a.checkout(token)
	case "/admin":
		view = map[string]string{"view": "admin dashboard"}
	case "/admin/users":
		view, err = a.api.AdminUsers(token)
	default:
		return fmt.Errorf("no view for %s", path)
	}

	if err != nil {
		return a.handleAPIError(err)
	}
	return a.print(view)
}

// UserView is the checkout summary shown to a signed-in shopper.
type UserView struct {
	View  string `json:"view"`
	Email string `json:"email"`
}

func (a *App) checkout(token string) (*UserView, error) {
	user, err := a.api.Profile(token)
	if err != nil {
		return nil, err
	}
	return &UserView{View: "checkout", Email: user.Email}, nil
}

func (a *App) handleAPIError(err error) error {
	if IsUnauthorized(err) {
		if clearErr := a.store.Clear(); clearErr != nil {
			return clearErr
		}
		a.redirect(guard.DefaultLoginPath, "rejected_by_server")
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == fiber.StatusForbidden {
		a.redirect(guard.DefaultUnauthorizedPath, "forbidden_by_server")
		return nil
	}
	return err
}

func (a *App) redirect(target, reason string) {
	fmt.Fprintf(a.out, "redirect %s (%s)\n", target, reason)
}

func (a *App) print(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(raw))
	return err
}
