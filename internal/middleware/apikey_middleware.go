package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// APIKeyMiddleware guards the bank feed, which authenticates with "Authorization: apikey KEY".
func APIKeyMiddleware(key string) fiber.Handler {
	expected := []byte("apikey " + key)
	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(fiber.HeaderAuthorization))
		if key == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   401,
				"message": "Invalid api key",
			})
		}
		return c.Next()
	}
}
