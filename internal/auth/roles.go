package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/domain"
)

// RequireRole admits only identities whose role equals required. It must be
// mounted after Authenticate. Comparison is a single exact match: there is no
// role hierarchy and no set membership.
func (m *Middleware) RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return m.reject(c, ErrNotAuthenticated)
		}
		if identity.Role != required {
			return m.reject(c, ErrForbidden)
		}
		return c.Next()
	}
}
