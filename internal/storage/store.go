package storage

import (
	"context"
	"errors"

	"github.com/whatsapp-storefront/backend/internal/models"
)

var (
	// ErrNotFound is returned when a product or seller does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a seller with the same id already exists
	ErrDuplicate = errors.New("already exists")
)

// Store defines the interface for storage operations. Implementations must be
// safe for concurrent use; product inserts never conflict with each other.
type Store interface {
	// Product operations
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListProductsBySeller(ctx context.Context, sellerID string) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Seller operations
	CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error)
	GetSeller(ctx context.Context, id string) (*models.Seller, error)
	ListSellers(ctx context.Context) ([]*models.Seller, error)
	UpdateSeller(ctx context.Context, id string, update models.SellerUpdate) (*models.Seller, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
