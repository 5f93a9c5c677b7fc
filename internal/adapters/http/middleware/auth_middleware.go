package middleware

import (
	"context"
	"errors"
	"strings"

	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves an access token into the caller's identity
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*services.Identity, error)
}

// publicPaths are reachable without a token
var publicPaths = map[string]bool{
	"/":                                true,
	"/health":                          true,
	"/favicon.ico":                     true,
	"/api/v1":                          true,
	"/api/v1/user/register":            true,
	"/api/v1/user/login":               true,
	"/api/v1/user/refresh-token":       true,
	"/api/v1/librarians/register":      true,
	"/api/v1/librarians/login":         true,
	"/api/v1/librarians/refresh-token": true,
}

// publicPrefixes cover documentation assets
var publicPrefixes = []string{
	"/swagger",
}

// IsPublicPath reports whether path skips authentication
func IsPublicPath(path string) bool {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// SessionGate authenticates every non-public request with a bearer access token
// and attaches the caller's identity with roles re-read from the store.
func SessionGate(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Public endpoints pass through
		if c.Method() == fiber.MethodOptions || IsPublicPath(c.Path()) {
			return c.Next()
		}

		// 2. Require Authorization: Bearer <token>
		accessToken := bearerToken(c.Get(fiber.HeaderAuthorization))
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 3. Verify the token and resolve the account
		identity, err := auth.Authenticate(c.UserContext(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrCredentialExpired):
				return response.Unauthorized(c, "Access token expired")
			case domain.KindOf(err) == domain.KindUnauthorized:
				return response.Unauthorized(c, "Invalid access token")
			default:
				return response.InternalServerError(c)
			}
		}

		// 4. Set identity in context
		c.Locals("identity", identity)
		c.Locals("accountID", identity.AccountID)
		c.Locals("username", identity.Username)
		c.Locals("accountKind", string(identity.Kind))
		c.Locals("roles", identity.Roles)

		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// CurrentIdentity returns the identity attached by SessionGate, or nil
func CurrentIdentity(c *fiber.Ctx) *services.Identity {
	identity, _ := c.Locals("identity").(*services.Identity)
	return identity
}

// RoleMiddleware allows the request when the caller holds any of the roles
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := CurrentIdentity(c)
		if identity == nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, role := range allowedRoles {
			if identity.HasRole(role) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// UserOrAdmin middleware allows USER or ADMIN roles
func UserOrAdmin() fiber.Handler {
	return RoleMiddleware(domain.RoleUser, domain.RoleAdmin)
}
