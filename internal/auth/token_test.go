package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront/internal/domain"
)

const testSecret = "test-secret-value"

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCodec(secret string) (*TokenCodec, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewTokenCodec(secret, 0, WithClock(clock.Now)), clock
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec, _ := newTestCodec(testSecret)

	cases := []IssueClaims{
		{SubjectID: "u1", Role: domain.RoleAdmin},
		{SubjectID: "c0ffee", Role: domain.RoleCustomer},
		{SubjectID: "7b0e9a3c-0000-4000-8000-000000000001", Role: "warehouse"},
	}
	for _, in := range cases {
		token, _, err := codec.Issue(in, time.Minute)
		require.NoError(t, err)

		identity, err := codec.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, domain.Identity{SubjectID: in.SubjectID, Role: in.Role}, identity)
	}
}

func TestIssueDefaultTTL(t *testing.T) {
	codec, clock := newTestCodec(testSecret)

	_, expiresAt, err := codec.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleCustomer}, 0)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(2*time.Hour), expiresAt)
	assert.Equal(t, DefaultTTL, codec.TTL())
}

func TestIssueRejectsIncompleteClaims(t *testing.T) {
	codec, _ := newTestCodec(testSecret)

	_, _, err := codec.Issue(IssueClaims{Role: domain.RoleAdmin}, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, _, err = codec.Issue(IssueClaims{SubjectID: "u1"}, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestVerifyExpiry(t *testing.T) {
	codec, clock := newTestCodec(testSecret)

	token, _, err := codec.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleAdmin}, 2*time.Hour)
	require.NoError(t, err)

	identity, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{SubjectID: "u1", Role: domain.RoleAdmin}, identity)

	clock.Advance(2*time.Hour - time.Second)
	_, err = codec.Verify(token)
	require.NoError(t, err)

	// exactly at expiry the token is no longer valid
	clock.Advance(time.Second)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)

	clock.Advance(24 * time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyForeignSecret(t *testing.T) {
	issuer, _ := newTestCodec("another-secret-value")
	verifier, _ := newTestCodec(testSecret)

	token, _, err := issuer.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec, _ := newTestCodec(testSecret)

	for _, raw := range []string{"", "abc", "a.b.c", strings.Repeat("x", 300)} {
		_, err := codec.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidSignature, raw)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	codec, clock := newTestCodec(testSecret)

	claims := &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	codec, _ := newTestCodec(testSecret)

	claims := &Claims{Role: domain.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyIsIdempotent(t *testing.T) {
	codec, _ := newTestCodec(testSecret)

	token, _, err := codec.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	first, err1 := codec.Verify(token)
	second, err2 := codec.Verify(token)
	assert.Equal(t, first, second)
	assert.Equal(t, err1, err2)
}

func TestDecodeWithoutVerifying(t *testing.T) {
	codec, clock := newTestCodec(testSecret)

	token, expiresAt, err := codec.Issue(IssueClaims{SubjectID: "u1", Role: domain.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	decoded, err := DecodeWithoutVerifying(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", decoded.SubjectID)
	assert.Equal(t, domain.RoleAdmin, decoded.Role)
	assert.True(t, decoded.ExpiresAt.Equal(expiresAt))

	// a token with a broken signature still decodes
	tampered := token[:strings.LastIndex(token, ".")+1] + "AAAA"
	decoded, err = DecodeWithoutVerifying(tampered)
	require.NoError(t, err)
	assert.Equal(t, "u1", decoded.SubjectID)

	// and so does an expired one
	clock.Advance(48 * time.Hour)
	_, err = DecodeWithoutVerifying(token)
	assert.NoError(t, err)
}

func TestDecodeWithoutVerifyingMalformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b", "e30.e30.sig"} {
		_, err := DecodeWithoutVerifying(raw)
		assert.ErrorIs(t, err, ErrDecode, raw)
	}
}
