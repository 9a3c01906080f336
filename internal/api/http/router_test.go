package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/startline/auth-server/internal/api/dto"
	"github.com/startline/auth-server/internal/api/http/handlers"
	"github.com/startline/auth-server/internal/auth"
	"github.com/startline/auth-server/internal/config"
	"github.com/startline/auth-server/internal/domain"
	"github.com/startline/auth-server/internal/observability"
	"github.com/startline/auth-server/internal/repository"
	"github.com/startline/auth-server/internal/service"
)

type testServer struct {
	app      *fiber.App
	accounts *service.AccountService
	metrics  *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test-secret-32-bytes-minimum",
		AccessTokenTTLMinutes:   40,
		RefreshTokenTTLHours:    7 * 24,
		RefreshRotateBeforeHour: 24,
		BcryptCost:              bcrypt.MinCost,
		SignupEnabled:           true,
	}}
	store := repository.NewMemoryStore()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	authService := service.NewAuthService(cfg, service.AuthDependencies{Transactor: store, Metrics: metrics, Logger: logger})
	accounts := service.NewAccountService(store, nil, logger)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("auth", "test", nil),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(accounts),
		AuthMiddleware: auth.NewAuthMiddleware(authService.Codec()),
	})
	return &testServer{app: app, accounts: accounts, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func bearer(token any) map[string]string {
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + token.(string)}
}

func TestSignupLoginAndRefreshFlow(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "alice", Password: "password-alice", Nickname: "Alice"}, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	data := body["data"].(map[string]any)
	require.Equal(t, "alice", data["username"])
	require.Equal(t, []any{"ROLE_PRE"}, data["authorities"])
	require.NotContains(t, data, "passwordHash")

	status, body = s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "alice", Password: "password-alice"}, nil)
	require.Equal(t, nethttp.StatusConflict, status)
	require.Equal(t, "DUPLICATE_USERNAME", body["code"])

	login := dto.LoginRequest{Username: "alice", Password: "password-alice"}
	status, body = s.do(t, nethttp.MethodPost, "/auth/login", login, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "bearer", body["grantType"])
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
	require.NotZero(t, body["refreshTokenExpiresIn"])

	refreshToken := body["refreshToken"].(string)
	refreshExpiry := strconv.FormatInt(int64(body["refreshTokenExpiresIn"].(float64)), 10)

	status, body = s.do(t, nethttp.MethodPost, "/auth/login", login, map[string]string{
		dto.HeaderRefreshToken:          refreshToken,
		dto.HeaderRefreshTokenExpiresIn: refreshExpiry,
	})
	require.Equal(t, nethttp.StatusOK, status)
	require.NotEmpty(t, body["accessToken"])
	require.NotContains(t, body, "refreshToken")
	require.NotContains(t, body, "refreshTokenExpiresIn")

	status, body = s.do(t, nethttp.MethodGet, "/auth/me", nil, bearer(body["accessToken"]))
	require.Equal(t, nethttp.StatusOK, status)
	me := body["data"].(map[string]any)
	require.Equal(t, "alice", me["username"])
	require.Equal(t, "Alice", me["nickname"])
	require.Equal(t, []any{"ROLE_PRE"}, me["authorities"])
}

func TestLoginFailuresAreClientErrors(t *testing.T) {
	s := newTestServer(t)
	s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "alice", Password: "password-alice"}, nil)

	status, body := s.do(t, nethttp.MethodPost, "/auth/login", dto.LoginRequest{Username: "alice", Password: "nope"}, nil)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "INVALID_CREDENTIALS", body["code"])
	require.Equal(t, "invalid credentials", body["message"])

	status, body = s.do(t, nethttp.MethodPost, "/auth/login", dto.LoginRequest{Username: "alice", Password: "password-alice"},
		map[string]string{dto.HeaderRefreshToken: "unknown"})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "LOGIN_FAILED", body["code"])
	require.Equal(t, "login failed", body["message"])

	status, body = s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "x", Password: "password"}, nil)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", body["code"])

	require.NotEmpty(t, s.metrics.Snapshot().Errors)
}

func TestAdminRoutesRequireAdminAuthority(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "alice", Password: "password-alice"}, nil)
	s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "root", Password: "password-root"}, nil)

	status, _ := s.do(t, nethttp.MethodGet, "/admin/users/alice/enabled", nil, nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)

	_, body := s.do(t, nethttp.MethodPost, "/auth/login", dto.LoginRequest{Username: "alice", Password: "password-alice"}, nil)
	status, _ = s.do(t, nethttp.MethodGet, "/admin/users/alice/enabled", nil, bearer(body["accessToken"]))
	require.Equal(t, nethttp.StatusForbidden, status)

	_, err := s.accounts.GrantAuthority(ctx, "root", domain.AuthorityAdmin)
	require.NoError(t, err)
	_, body = s.do(t, nethttp.MethodPost, "/auth/login", dto.LoginRequest{Username: "root", Password: "password-root"}, nil)
	admin := bearer(body["accessToken"])

	disabled := false
	status, _ = s.do(t, nethttp.MethodPatch, "/admin/users/alice/enabled", dto.EnabledRequest{Enabled: &disabled}, admin)
	require.Equal(t, nethttp.StatusOK, status)

	status, body = s.do(t, nethttp.MethodGet, "/admin/users/alice/enabled", nil, admin)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, false, body["data"].(map[string]any)["enabled"])

	status, _ = s.do(t, nethttp.MethodPost, "/auth/login", dto.LoginRequest{Username: "alice", Password: "password-alice"}, nil)
	require.Equal(t, nethttp.StatusBadRequest, status)

	status, body = s.do(t, nethttp.MethodPost, "/admin/users/alice/authorities", dto.GrantAuthorityRequest{Authority: "ROLE_USER"}, admin)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, []any{"ROLE_PRE", "ROLE_USER"}, body["data"].(map[string]any)["authorities"])

	status, _ = s.do(t, nethttp.MethodPatch, "/admin/users/ghost/enabled", dto.EnabledRequest{Enabled: &disabled}, admin)
	require.Equal(t, nethttp.StatusNotFound, status)

	status, _ = s.do(t, nethttp.MethodPatch, "/admin/users/alice/enabled", map[string]any{}, admin)
	require.Equal(t, nethttp.StatusBadRequest, status)
}

func TestRefreshTokenIsNotABearerCredential(t *testing.T) {
	s := newTestServer(t)
	s.do(t, nethttp.MethodPost, "/auth/signup", dto.SignupRequest{Username: "root", Password: "password-root"}, nil)
	_, err := s.accounts.GrantAuthority(context.Background(), "root", domain.AuthorityAdmin)
	require.NoError(t, err)

	_, body := s.do(t, nethttp.MethodPost, "/auth/login", dto.LoginRequest{Username: "root", Password: "password-root"}, nil)
	refresh := bearer(body["refreshToken"])

	status, _ := s.do(t, nethttp.MethodGet, "/auth/me", nil, refresh)
	require.Equal(t, nethttp.StatusUnauthorized, status)

	status, _ = s.do(t, nethttp.MethodGet, "/admin/users/root/enabled", nil, refresh)
	require.Equal(t, nethttp.StatusUnauthorized, status)

	status, _ = s.do(t, nethttp.MethodGet, "/auth/me", nil, bearer(body["accessToken"]))
	require.Equal(t, nethttp.StatusOK, status)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, nethttp.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "ready", body["status"])

	status, _ = s.do(t, nethttp.MethodGet, "/nope", nil, nil)
	require.Equal(t, nethttp.StatusNotFound, status)
}
