package middleware

import (
	"strings"

	"fitlink/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the JWT session token from the cookie or the
// Authorization header. Tokens are issued by the main application's auth
// service; this service only validates them.
func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := c.Cookies("token")
	if tokenString == "" {
		if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - No token provided",
		})
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - Invalid token",
		})
	}

	c.Locals("userID", claims.UserID)
	c.Locals("role", claims.Role)

	return c.Next()
}

// GetUserID gets the authenticated user ID from context.
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return ""
	}
	return userID
}
