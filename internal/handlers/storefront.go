package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/whatsapp-storefront/backend/internal/models"
	"github.com/whatsapp-storefront/backend/internal/storage"
)

// StorefrontHandler serves a seller's public product listing
type StorefrontHandler struct {
	store storage.Store
}

// NewStorefrontHandler creates a new storefront handler
func NewStorefrontHandler(store storage.Store) *StorefrontHandler {
	return &StorefrontHandler{store: store}
}

type storefrontSeller struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

type storefrontProduct struct {
	*models.Product
	DisplayStatus string `json:"displayStatus"`
}

// GetStorefront returns the seller label and the seller's products. Products
// of a seller without a seller record are still listed under the default label.
func (h *StorefrontHandler) GetStorefront(c *fiber.Ctx) error {
	sellerID := models.SenderID(c.Params("sellerId"))
	if sellerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Seller ID is required")
	}
	ctx := c.UserContext()

	seller, err := h.store.GetSeller(ctx, sellerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storeError(err, "seller")
	}

	products, err := h.store.ListProductsBySeller(ctx, sellerID)
	if err != nil {
		return storeError(err, "products")
	}
	if seller == nil && len(products) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Store not found")
	}

	out := storefrontSeller{ID: sellerID, Name: models.SellerLabel(seller)}
	if seller != nil {
		out.Location = seller.Location
	}

	items := make([]storefrontProduct, 0, len(products))
	for _, p := range products {
		items = append(items, storefrontProduct{Product: p, DisplayStatus: p.DisplayStatus()})
	}

	return c.JSON(fiber.Map{
		"seller":   out,
		"products": items,
		"count":    len(items),
	})
}
