package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/services"
)

// SignatureValidator checks a Twilio request signature
type SignatureValidator interface {
	ValidateSignature(url string, params map[string]string, signature string) bool
}

// ValidateTwilioSignature validates that the webhook request is from Twilio.
// publicURL, when set, replaces the scheme and host seen by the server
// (Cloud Run and ngrok terminate TLS in front of us).
func ValidateTwilioSignature(validator SignatureValidator, publicURL string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqLog := logger.FromFiber(c, log)

		twilioSignature := c.Get("X-Twilio-Signature")
		if twilioSignature == "" {
			reqLog.Warn("Webhook rejected: missing signature")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		if !validator.ValidateSignature(fullURL(c, publicURL), formParams, twilioSignature) {
			reqLog.Warn("Webhook rejected: invalid signature")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// fullURL rebuilds the URL Twilio signed
func fullURL(c *fiber.Ctx, publicURL string) string {
	path := c.OriginalURL()
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + path
	}
	return fmt.Sprintf("%s://%s%s", c.Protocol(), c.Hostname(), path)
}

var _ SignatureValidator = (*services.TwilioService)(nil)
