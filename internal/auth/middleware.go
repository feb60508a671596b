package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/domain"
	apperrors "github.com/spec-kit/storefront/pkg/util"
)

const identityKey = "auth_identity"

// RejectionRecorder counts rejected requests by reason.
type RejectionRecorder interface {
	RecordAuthRejection(reason string)
}

// Middleware validates bearer tokens and attaches the caller identity.
type Middleware struct {
	tokens   *TokenCodec
	logger   *zap.Logger
	recorder RejectionRecorder
}

// NewMiddleware constructs middleware. logger and recorder may be nil.
func NewMiddleware(tokens *TokenCodec, logger *zap.Logger, recorder RejectionRecorder) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{tokens: tokens, logger: logger, recorder: recorder}
}

// Authenticate rejects the request with 401 unless it carries a valid token.
// Downstream handlers never run for a rejected request.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return m.reject(c, err)
	}

	identity, err := m.tokens.Verify(token)
	if err != nil {
		return m.reject(c, err)
	}

	c.Locals(identityKey, &identity)
	return c.Next()
}

// bearerToken extracts the segment after the first space of the header. The
// scheme word itself is not interpreted.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	_, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", ErrMalformedHeader
	}
	return token, nil
}

func (m *Middleware) reject(c *fiber.Ctx, err error) error {
	reason := rejectionReason(err)
	m.logger.Warn("request rejected",
		zap.String("reason", reason),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()))
	if m.recorder != nil {
		m.recorder.RecordAuthRejection(reason)
	}
	return toHTTPError(err)
}

// IdentityFromContext returns the identity attached by Authenticate.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok && identity != nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "unknown"
	}
}

// toHTTPError converts auth failures into client safe responses. Messages are
// fixed strings so no parser detail leaks out.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrMissingToken):
		return apperrors.NewUnauthorized("MISSING_TOKEN", "missing authorization header", err)
	case errors.Is(err, ErrMalformedHeader):
		return apperrors.NewUnauthorized("MALFORMED_HEADER", "malformed authorization header", err)
	case errors.Is(err, ErrExpired):
		return apperrors.NewUnauthorized("TOKEN_EXPIRED", "token has expired", err)
	case errors.Is(err, ErrNotAuthenticated):
		return apperrors.NewUnauthorized("NOT_AUTHENTICATED", "authentication required", err)
	case errors.Is(err, ErrForbidden):
		return apperrors.NewForbidden("insufficient role", err)
	default:
		return apperrors.NewUnauthorized("INVALID_TOKEN", "invalid token", err)
	}
}
