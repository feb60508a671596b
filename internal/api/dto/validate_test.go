package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/storefront/pkg/util"
)

func TestValidateRegisterRequest(t *testing.T) {
	require.NoError(t, Validate(UserRegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "long-enough"}))

	err := Validate(UserRegisterRequest{Name: "", Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, map[string]any{
		"name":     "required",
		"email":    "email",
		"password": "min",
	}, domainErr.Details)
}

func TestValidateListUsersQuery(t *testing.T) {
	require.NoError(t, Validate(ListUsersQuery{Role: "admin", Limit: 10}))

	err := Validate(ListUsersQuery{Role: "owner", Limit: 500})
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "oneof", domainErr.Details["role"])
	assert.Equal(t, "lte", domainErr.Details["limit"])
}
