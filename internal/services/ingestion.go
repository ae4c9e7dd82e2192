package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/whatsapp-storefront/backend/internal/models"
)

// ErrStoreWrite marks a product that could not be persisted. It is not retried:
// the seller resends the message, which may create a duplicate.
var ErrStoreWrite = errors.New("store write failed")

// ProductCreator is the part of the store the ingestion path writes to
type ProductCreator interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
}

// IngestionService turns a parsed /addproduct command into a catalog entry
type IngestionService struct {
	products ProductCreator
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(products ProductCreator) *IngestionService {
	return &IngestionService{products: products}
}

// Ingest persists a product for sellerID. Status fields keep their defaults
// until an admin changes them.
func (s *IngestionService) Ingest(ctx context.Context, sellerID string, parsed ParseResult, imageURL string) (*models.Product, error) {
	if parsed.Kind != CommandMatched {
		return nil, fmt.Errorf("cannot ingest a %s command", parsed.Kind)
	}

	product := &models.Product{
		SellerID:    sellerID,
		ImageURL:    imageURL,
		Price:       parsed.Price,
		Description: parsed.Description,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return created, nil
}
