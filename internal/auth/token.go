package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/storefront/internal/domain"
)

// DefaultTTL is used when Issue receives a non-positive ttl.
const DefaultTTL = 2 * time.Hour

// TokenCodec issues and verifies HS256 tokens. The zero value is not usable;
// build one with NewTokenCodec.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec builds a codec around the process-wide signing secret.
func NewTokenCodec(secret string, ttl time.Duration, opts ...CodecOption) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Claims describes the JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueClaims is the caller-supplied part of a token.
type IssueClaims struct {
	SubjectID string
	Role      domain.Role
}

// DecodedToken is what a token claims about itself. It carries no guarantee of
// authenticity.
type DecodedToken struct {
	SubjectID string
	Role      domain.Role
	ExpiresAt time.Time
}

// TTL returns the lifetime applied when Issue is called without one.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the subject. A ttl <= 0 falls back to the codec's
// configured lifetime.
func (c *TokenCodec) Issue(in IssueClaims, ttl time.Duration) (string, time.Time, error) {
	if in.SubjectID == "" || in.Role == "" {
		return "", time.Time{}, ErrInvalidClaims
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	issuedAt := c.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Role: in.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   in.SubjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// Failures are ErrExpired for a genuine but elapsed token and
// ErrInvalidSignature for anything that cannot be authenticated.
func (c *TokenCodec) Verify(tokenStr string) (domain.Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpired
		}
		return domain.Identity{}, ErrInvalidSignature
	}
	if !parsed.Valid || claims.Subject == "" || claims.Role == "" {
		return domain.Identity{}, ErrInvalidSignature
	}

	return domain.Identity{SubjectID: claims.Subject, Role: claims.Role}, nil
}

// DecodeWithoutVerifying reads the claims segment of a token without checking
// the signature. The result is advisory: it tells what the token says, not that
// the token is genuine, and must only drive UI decisions.
func DecodeWithoutVerifying(tokenStr string) (DecodedToken, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return DecodedToken{}, ErrDecode
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return DecodedToken{}, ErrDecode
	}
	return DecodedToken{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
