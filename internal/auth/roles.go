package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireAccount ensures a genesis account is authenticated.
func RequireAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
