package middleware

import (
	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/store"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

// RequireRole rejects callers whose token role does not match. It must
// run after AuthRequired.
func RequireRole(role store.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if claims.Role != string(role) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
