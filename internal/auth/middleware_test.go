package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util"
)

type countingRecorder struct {
	reasons []string
}

func (r *countingRecorder) RecordAuthRejection(reason string) {
	r.reasons = append(r.reasons, reason)
}

func newTestApp(t *testing.T, m *Middleware, handlers ...fiber.Handler) (*fiber.App, *bool) {
	t.Helper()
	reached := false

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Message, "code": de.Code})
		},
	})
	chain := append([]fiber.Handler{m.Authenticate}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		reached = true
		identity, ok := IdentityFromContext(c)
		if !ok {
			return errors.New("identity missing")
		}
		return c.JSON(identity)
	})
	app.Get("/protected", chain...)
	return app, &reached
}

func doRequest(t *testing.T, app *fiber.App, header string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	return resp.StatusCode, payload
}

func TestAuthenticateRejections(t *testing.T) {
	codec, clock := newTestCodec(testSecret)
	foreign, _ := newTestCodec("another-secret-value")

	valid, _, err := codec.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	forged, _, err := foreign.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	expiring, _, err := codec.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleCustomer}, time.Minute)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	tests := []struct {
		name   string
		header string
		code   string
		reason string
	}{
		{name: "no header", header: "", code: "MISSING_TOKEN", reason: "missing_token"},
		{name: "scheme only", header: "Bearer", code: "MALFORMED_HEADER", reason: "malformed_header"},
		{name: "empty segment", header: "Bearer ", code: "MALFORMED_HEADER", reason: "malformed_header"},
		{name: "foreign secret", header: "Bearer " + forged, code: "INVALID_TOKEN", reason: "invalid_signature"},
		{name: "garbage", header: "Bearer abc.def.ghi", code: "INVALID_TOKEN", reason: "invalid_signature"},
		{name: "expired", header: "Bearer " + expiring, code: "TOKEN_EXPIRED", reason: "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &countingRecorder{}
			app, reached := newTestApp(t, NewMiddleware(codec, nil, recorder))

			status, payload := doRequest(t, app, tt.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.code, payload["code"])
			assert.IsType(t, "", payload["error"])
			assert.False(t, *reached, "handler must not run")
			assert.Equal(t, []string{tt.reason}, recorder.reasons)
		})
	}

	t.Run("valid token", func(t *testing.T) {
		app, reached := newTestApp(t, NewMiddleware(codec, nil, nil))
		status, payload := doRequest(t, app, "Bearer "+valid)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, *reached)
		assert.Equal(t, "u1", payload["subject_id"])
		assert.Equal(t, "customer", payload["role"])
	})
}

func TestRequireRole(t *testing.T) {
	codec, _ := newTestCodec(testSecret)
	m := NewMiddleware(codec, nil, nil)

	customer, _, err := codec.Issue(IssueClaims{SubjectID: "c1", Role: domain.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	admin, _, err := codec.Issue(IssueClaims{SubjectID: "a1", Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	t.Run("wrong role is forbidden", func(t *testing.T) {
		app, reached := newTestApp(t, m, m.RequireRole(domain.RoleAdmin))
		status, payload := doRequest(t, app, "Bearer "+customer)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "FORBIDDEN", payload["code"])
		assert.False(t, *reached)
	})

	t.Run("matching role passes", func(t *testing.T) {
		app, reached := newTestApp(t, m, m.RequireRole(domain.RoleAdmin))
		status, _ := doRequest(t, app, "Bearer "+admin)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, *reached)
	})

	t.Run("role match is exact", func(t *testing.T) {
		app, _ := newTestApp(t, m, m.RequireRole("Admin"))
		status, _ := doRequest(t, app, "Bearer "+admin)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	codec, _ := newTestCodec(testSecret)
	m := NewMiddleware(codec, nil, nil)

	var gotErr error
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			gotErr = err
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/admin", m.RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.True(t, errors.Is(gotErr, ErrNotAuthenticated))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{header: "", err: ErrMissingToken},
		{header: "Bearer", err: ErrMalformedHeader},
		{header: "Bearer    ", err: ErrMalformedHeader},
		{header: "Bearer abc", token: "abc"},
		{header: "bearer abc", token: "abc"},
		{header: "Token abc", token: "abc"},
	}
	for _, tt := range tests {
		token, err := bearerToken(tt.header)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.token, token)
	}
}
