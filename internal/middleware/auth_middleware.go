package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	jwtPkg "github.com/resumeforge/resumeforge-backend/pkg/jwt"
)

// AuthMiddleware validates the per-submission bearer token and stores
// the submission id it is scoped to in the request locals.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid authorization header format",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := jwtPkg.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid token",
			})
		}

		submissionID, ok := claims["sub"].(string)
		if !ok || submissionID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid subject in token",
			})
		}

		c.Locals("submissionID", submissionID)

		return c.Next()
	}
}
