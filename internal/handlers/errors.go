package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/whatsapp-storefront/backend/internal/storage"
)

// storeError maps a storage error onto a fiber error for the ErrorHandler
func storeError(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to load "+what)
}
