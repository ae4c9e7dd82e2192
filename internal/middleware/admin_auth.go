package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

// AdminKeyHeader carries the admin API key
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards the admin API. An empty key locks the API entirely.
func RequireAdminKey(apiKey string) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup: "header:" + AdminKeyHeader,
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}
			return true, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing admin key",
			})
		},
	})
}
