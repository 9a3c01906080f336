package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/startline/auth-server/pkg/util"
)

const claimsKey = "auth_claims"

// AuthMiddleware validates bearer access tokens.
type AuthMiddleware struct {
	codec *Codec
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(codec *Codec) *AuthMiddleware {
	return &AuthMiddleware{codec: codec}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.codec.DecodeAs(strings.TrimSpace(parts[1]), TokenTypeAccess)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the decoded access token claims.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
