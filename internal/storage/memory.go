package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whatsapp-storefront/backend/internal/models"
)

// MemoryStore holds all data in memory. Used for local runs and tests.
type MemoryStore struct {
	products map[string]*models.Product
	sellers  map[string]*models.Seller

	productMu sync.RWMutex
	sellerMu  sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*models.Product),
		sellers:  make(map[string]*models.Seller),
	}
}

// Product operations
func (m *MemoryStore) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.productMu.Lock()
	defer m.productMu.Unlock()

	p := *product
	p.SellerID = strings.Clone(p.SellerID)
	p.ImageURL = strings.Clone(p.ImageURL)
	p.Price = strings.Clone(p.Price)
	p.Description = strings.Clone(p.Description)
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	m.products[p.ID] = &p

	out := p
	return &out, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.productMu.RLock()
	defer m.productMu.RUnlock()

	product, exists := m.products[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	out := *product
	return &out, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return m.filterProducts(func(*models.Product) bool { return true }), nil
}

func (m *MemoryStore) ListProductsBySeller(ctx context.Context, sellerID string) ([]*models.Product, error) {
	return m.filterProducts(func(p *models.Product) bool { return p.SellerID == sellerID }), nil
}

// filterProducts returns copies of matching products, newest first
func (m *MemoryStore) filterProducts(keep func(*models.Product) bool) []*models.Product {
	m.productMu.RLock()
	defer m.productMu.RUnlock()

	results := make([]*models.Product, 0)
	for _, product := range m.products {
		if !keep(product) {
			continue
		}
		p := *product
		results = append(results, &p)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	m.productMu.Lock()
	defer m.productMu.Unlock()

	product, exists := m.products[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	update.Apply(product)
	out := *product
	return &out, nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	m.productMu.Lock()
	defer m.productMu.Unlock()

	if _, exists := m.products[id]; !exists {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

// Seller operations
func (m *MemoryStore) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	m.sellerMu.Lock()
	defer m.sellerMu.Unlock()

	if _, exists := m.sellers[seller.ID]; exists {
		return nil, fmt.Errorf("seller %s: %w", seller.ID, ErrDuplicate)
	}
	s := *seller
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.sellers[s.ID] = &s

	out := s
	return &out, nil
}

func (m *MemoryStore) GetSeller(ctx context.Context, id string) (*models.Seller, error) {
	m.sellerMu.RLock()
	defer m.sellerMu.RUnlock()

	seller, exists := m.sellers[id]
	if !exists {
		return nil, fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}
	out := *seller
	return &out, nil
}

func (m *MemoryStore) ListSellers(ctx context.Context) ([]*models.Seller, error) {
	m.sellerMu.RLock()
	defer m.sellerMu.RUnlock()

	results := make([]*models.Seller, 0, len(m.sellers))
	for _, seller := range m.sellers {
		s := *seller
		results = append(results, &s)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *MemoryStore) UpdateSeller(ctx context.Context, id string, update models.SellerUpdate) (*models.Seller, error) {
	m.sellerMu.Lock()
	defer m.sellerMu.Unlock()

	seller, exists := m.sellers[id]
	if !exists {
		return nil, fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}
	update.Apply(seller)
	seller.UpdatedAt = time.Now().UTC()
	out := *seller
	return &out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}
