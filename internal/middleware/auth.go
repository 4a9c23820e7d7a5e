package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/blogcaster/api/internal/auth"
	"github.com/blogcaster/api/pkg/response"
)

// AuthMiddleware checks HMAC bearer tokens on protected routes
type AuthMiddleware struct {
	enabled   bool
	jwtSecret string
}

// NewAuthMiddleware creates auth middleware. When disabled every request
// passes through unauthenticated.
func NewAuthMiddleware(enabled bool, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		enabled:   enabled,
		jwtSecret: jwtSecret,
	}
}

// Authenticate validates the JWT from the Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.enabled {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		claims, err := auth.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", claims.UserID)
		c.Locals("email", claims.Email)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}
