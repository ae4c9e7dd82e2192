package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/whatsapp-storefront/backend/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version     string
	StoreDriver string
	store       storage.Store
	twilio      bool
	ai          bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storeDriver string, store storage.Store, twilioConfigured, aiConfigured bool) *HealthHandler {
	return &HealthHandler{
		Version:     version,
		StoreDriver: storeDriver,
		store:       store,
		twilio:      twilioConfigured,
		ai:          aiConfigured,
	}
}

// Info describes the service
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "WhatsApp Storefront API",
		"version": h.Version,
		"storage": h.StoreDriver,
		"endpoints": fiber.Map{
			"health":     "/health",
			"webhook":    "/webhook/whatsapp",
			"storefront": "/api/storefront/:sellerId",
			"admin":      "/admin",
		},
	})
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK
	storeErr := h.store.Ping(ctx)
	if storeErr != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"version": h.Version,
		"services": fiber.Map{
			"database": storeErr == nil,
			"twilio":   h.twilio,
			"ai":       h.ai,
		},
	})
}
