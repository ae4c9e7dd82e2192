package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/models"
	"github.com/whatsapp-storefront/backend/internal/services"
	"github.com/whatsapp-storefront/backend/internal/storage"
)

const notifyTimeout = 5 * time.Second

// AdminHandler handles admin operations on sellers and products
type AdminHandler struct {
	store    storage.Store
	notifier services.Notifier // nil when Twilio is not configured
	links    *services.WhatsAppService
	log      *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, notifier services.Notifier, links *services.WhatsAppService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:    store,
		notifier: notifier,
		links:    links,
		log:      log,
	}
}

// ListSellers returns all sellers
func (h *AdminHandler) ListSellers(c *fiber.Ctx) error {
	sellers, err := h.store.ListSellers(c.UserContext())
	if err != nil {
		return storeError(err, "sellers")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"sellers": sellers,
		"count":   len(sellers),
	})
}

// CreateSellerRequest is the body of POST /admin/sellers
type CreateSellerRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Active   *bool  `json:"active"`
}

// CreateSeller registers a seller; the id is derived from the phone number
func (h *AdminHandler) CreateSeller(c *fiber.Ctx) error {
	var req CreateSellerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	id := models.SenderID(req.Phone)
	if id == "" || strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Phone and name are required")
	}

	seller := &models.Seller{
		ID:       id,
		Name:     strings.TrimSpace(req.Name),
		Location: strings.TrimSpace(req.Location),
		Active:   req.Active == nil || *req.Active,
	}
	created, err := h.store.CreateSeller(c.UserContext(), seller)
	if errors.Is(err, storage.ErrDuplicate) {
		return fiber.NewError(fiber.StatusConflict, "Seller already exists")
	}
	if err != nil {
		logger.FromFiber(c, h.log).Error("Failed to create seller", zap.Error(err))
		return storeError(err, "seller")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"seller":     created,
		"storefront": h.links.StorefrontURL(created.ID),
	})
}

// GetSeller returns one seller
func (h *AdminHandler) GetSeller(c *fiber.Ctx) error {
	seller, err := h.store.GetSeller(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(err, "seller")
	}
	return c.JSON(seller)
}

// UpdateSeller edits name, location or the active flag
func (h *AdminHandler) UpdateSeller(c *fiber.Ctx) error {
	var req models.SellerUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	seller, err := h.store.UpdateSeller(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return storeError(err, "seller")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"seller":  seller,
	})
}

// ListProducts returns all products, or one seller's with ?sellerId=
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		products []*models.Product
		err      error
	)
	if sellerID := c.Query("sellerId"); sellerID != "" {
		products, err = h.store.ListProductsBySeller(ctx, models.SenderID(sellerID))
	} else {
		products, err = h.store.ListProducts(ctx)
	}
	if err != nil {
		return storeError(err, "products")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product
func (h *AdminHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.store.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return storeError(err, "product")
	}
	return c.JSON(product)
}

// UpdateProduct sets status, stock status or availability. The seller is
// told over WhatsApp when a product becomes available.
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	var req models.ProductUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Empty() {
		return fiber.NewError(fiber.StatusBadRequest, "Nothing to update")
	}

	ctx := c.UserContext()
	before, err := h.store.GetProduct(ctx, c.Params("id"))
	if err != nil {
		return storeError(err, "product")
	}

	product, err := h.store.UpdateProduct(ctx, before.ID, req)
	if err != nil {
		return storeError(err, "product")
	}

	notified := false
	if !before.IsAvailable && product.IsAvailable {
		notified = h.notifyAvailable(c, product)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"product":  product,
		"notified": notified,
	})
}

func (h *AdminHandler) notifyAvailable(c *fiber.Ctx, p *models.Product) bool {
	if h.notifier == nil {
		return false
	}
	log := logger.FromFiber(c, h.log)

	ctx, cancel := context.WithTimeout(c.UserContext(), notifyTimeout)
	defer cancel()

	msg := fmt.Sprintf("🎉 Your product is now live!\n\n📝 %s\n💰 %s\n\n🛍️ %s",
		p.Description, p.Price, h.links.StorefrontURL(p.SellerID))
	if err := h.notifier.Notify(ctx, p.SellerID, msg); err != nil {
		log.Warn("Failed to notify seller", zap.String("seller_id", p.SellerID), zap.Error(err))
		return false
	}
	return true
}

// DeleteProduct removes a product
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.store.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return storeError(err, "product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
