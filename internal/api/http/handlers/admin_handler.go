package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/startline/auth-server/internal/api/dto"
	"github.com/startline/auth-server/internal/domain"
	"github.com/startline/auth-server/internal/service"
	apperrors "github.com/startline/auth-server/pkg/util"
)

// AdminHandler exposes principal administration.
type AdminHandler struct {
	accounts *service.AccountService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// GetEnabled handles GET /admin/users/:username/enabled.
func (h *AdminHandler) GetEnabled(c *fiber.Ctx) error {
	username := c.Params("username")
	enabled, err := h.accounts.IsEnabled(c.UserContext(), username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"username": username, "enabled": enabled}})
}

// SetEnabled handles PATCH /admin/users/:username/enabled.
func (h *AdminHandler) SetEnabled(c *fiber.Ctx) error {
	var req dto.EnabledRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return apperrors.NewValidationError("enabled flag required")
	}

	username := c.Params("username")
	if err := h.accounts.SetEnabled(c.UserContext(), username, *req.Enabled); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"username": username, "enabled": *req.Enabled}})
}

// GrantAuthority handles POST /admin/users/:username/authorities.
func (h *AdminHandler) GrantAuthority(c *fiber.Ctx) error {
	var req dto.GrantAuthorityRequest
	if err := c.BodyParser(&req); err != nil || req.Authority == "" {
		return apperrors.NewValidationError("authority required")
	}

	principal, err := h.accounts.GrantAuthority(c.UserContext(), c.Params("username"), domain.AuthorityName(req.Authority))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPrincipalResponse(principal)})
}
