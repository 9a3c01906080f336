package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/startline/auth-server/internal/api/dto"
	"github.com/startline/auth-server/internal/auth"
	"github.com/startline/auth-server/internal/domain"
	"github.com/startline/auth-server/internal/service"
	apperrors "github.com/startline/auth-server/pkg/util"
)

// AuthHandler exposes signup, login and caller introspection.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	principal, err := h.auth.Signup(c.UserContext(), domain.SignupRequest{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewPrincipalResponse(principal),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	pair, err := h.auth.Login(c.UserContext(), service.LoginRequest{
		Credentials:           domain.Credentials{Username: req.Username, Password: req.Password},
		RefreshToken:          c.Get(dto.HeaderRefreshToken),
		RefreshTokenExpiresIn: c.Get(dto.HeaderRefreshTokenExpiresIn),
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.NewTokenResponse(pair))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	authorities := claims.AuthorityList()
	if authorities == nil {
		authorities = []string{}
	}
	resp := dto.MeResponse{
		Username:    claims.Subject,
		Nickname:    claims.Nickname,
		Authorities: authorities,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UnixMilli()
	}
	return c.JSON(fiber.Map{"data": resp})
}
