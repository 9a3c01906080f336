package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/startline/auth-server/internal/api/http/handlers"
	"github.com/startline/auth-server/internal/auth"
	"github.com/startline/auth-server/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthority(), cfg.Auth.Me)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAuthority(domain.AuthorityAdmin))
	admin.Get("/users/:username/enabled", cfg.Admin.GetEnabled)
	admin.Patch("/users/:username/enabled", cfg.Admin.SetEnabled)
	admin.Post("/users/:username/authorities", cfg.Admin.GrantAuthority)
}
