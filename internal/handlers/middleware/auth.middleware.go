package middleware

import (
	"context"
	"strings"

	"digitaldome/internal/models"
	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// AuthContextKey is used to store auth info in context
type AuthContextKey string

const (
	UserKey       AuthContextKey = "user"
	UserKeyFiber  string         = "User" // Fiber context key (string)
	TokenKeyFiber string         = "SessionToken"
)

// RequireAuth validates the session token and loads the user into both
// the Fiber locals and the request context.
func (m *Middleware) RequireAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.Context()).Function("RequireAuth")

		token := bearerToken(c)
		if token == "" {
			log.Info("missing or malformed authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			log.Info("session validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Store user in Fiber context
		c.Locals(UserKeyFiber, user)
		c.Locals(TokenKeyFiber, token)

		// Add to Go context for services (preserve trace ID from TraceID middleware)
		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present but lets the
// request through anonymously otherwise. Catalog reads use this so the
// visibility scope can widen for signed-in viewers.
func (m *Middleware) OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}

		c.Locals(UserKeyFiber, user)
		c.Locals(TokenKeyFiber, token)
		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
		return ""
	}
	return tokenParts[1]
}

// GetUser extracts user from Fiber context
func GetUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(UserKeyFiber).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionToken extracts the raw session token from Fiber context
func GetSessionToken(c *fiber.Ctx) string {
	token, ok := c.Locals(TokenKeyFiber).(string)
	if !ok {
		return ""
	}
	return token
}
