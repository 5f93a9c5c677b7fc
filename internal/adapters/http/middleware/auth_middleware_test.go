package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	identity *services.Identity
	err      error
}

func (s stubAuth) Authenticate(context.Context, string) (*services.Identity, error) {
	return s.identity, s.err
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/", "/health", "/api/v1/user/login", "/api/v1/user/login/", "/api/v1/librarians/register", "/swagger", "/swagger/index.html"}
	for _, p := range public {
		assert.True(t, IsPublicPath(p), p)
	}

	private := []string{"/api/v1/loans/add", "/api/v1/user/logout/1", "/swaggerx", "/api/v1/statistics"}
	for _, p := range private {
		assert.False(t, IsPublicPath(p), p)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Empty(t, bearerToken("Bearer "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}

func gateApp(auth Authenticator, guard ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(SessionGate(auth))
	handlers := append(guard, func(c *fiber.Ctx) error {
		identity := CurrentIdentity(c)
		return c.SendString(identity.Username)
	})
	app.Get("/private", handlers...)
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func status(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestSessionGateOutcomes(t *testing.T) {
	patron := &services.Identity{AccountID: 1, Username: "alice", Kind: domain.KindPatron, Roles: []string{"USER"}}

	tests := []struct {
		name  string
		auth  stubAuth
		token string
		want  int
	}{
		{"no token", stubAuth{identity: patron}, "", http.StatusUnauthorized},
		{"expired", stubAuth{err: domain.ErrCredentialExpired}, "t", http.StatusUnauthorized},
		{"invalid", stubAuth{err: domain.ErrCredentialInvalid}, "t", http.StatusUnauthorized},
		{"store failure", stubAuth{err: assert.AnError}, "t", http.StatusInternalServerError},
		{"valid", stubAuth{identity: patron}, "t", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status(t, gateApp(tt.auth), "/private", tt.token))
		})
	}

	assert.Equal(t, http.StatusOK, status(t, gateApp(stubAuth{err: domain.ErrCredentialInvalid}), "/health", ""))
}

func TestRoleMiddleware(t *testing.T) {
	patron := &services.Identity{AccountID: 1, Username: "alice", Kind: domain.KindPatron, Roles: []string{"USER"}}
	librarian := &services.Identity{AccountID: 2, Username: "root", Kind: domain.KindLibrarian, Roles: []string{"ADMIN"}}

	assert.Equal(t, http.StatusForbidden, status(t, gateApp(stubAuth{identity: patron}, AdminOnly()), "/private", "t"))
	assert.Equal(t, http.StatusOK, status(t, gateApp(stubAuth{identity: librarian}, AdminOnly()), "/private", "t"))
	assert.Equal(t, http.StatusOK, status(t, gateApp(stubAuth{identity: patron}, UserOrAdmin()), "/private", "t"))
}
