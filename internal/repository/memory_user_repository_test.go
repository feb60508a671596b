package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront/internal/domain"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.(*memoryUserRepository).now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ada := &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h", Role: domain.RoleCustomer}
	require.NoError(t, repo.Create(ctx, ada))
	assert.NotEmpty(t, ada.ID)

	bob := &domain.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "h", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, bob))

	err := repo.Create(ctx, &domain.User{Name: "Ada 2", Email: "ADA@example.com", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	all, err := repo.List(ctx, UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bob@example.com", all[0].Email, "newest first")

	admin := domain.RoleAdmin
	admins, err := repo.List(ctx, UserFilter{Role: &admin})
	require.NoError(t, err)
	require.Len(t, admins, 1)

	page, err := repo.List(ctx, UserFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "ada@example.com", page[0].Email)

	empty, err := repo.List(ctx, UserFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.UpdateRole(ctx, ada.ID, domain.RoleAdmin))
	got, err = repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.ErrorIs(t, repo.UpdateRole(ctx, "nope", domain.RoleAdmin), pgx.ErrNoRows)
}
