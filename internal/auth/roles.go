package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/startline/auth-server/internal/domain"
	apperrors "github.com/startline/auth-server/pkg/util"
)

// RequireAuthority ensures the caller carries at least one of the allowed authorities.
func RequireAuthority(allowed ...domain.AuthorityName) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, name := range allowed {
			if claims.HasAuthority(name) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient authority")
	}
}
