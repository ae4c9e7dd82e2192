package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/whatsapp-storefront/backend/internal/models"
)

// DatabaseStore persists products and sellers through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open, migrated gorm connection. Open it with
// TranslateError so duplicate keys surface as ErrDuplicate.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Product operations
func (d *DatabaseStore) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	p := *product
	p.ID = ""
	p.CreatedAt = time.Time{}
	if err := d.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &p, nil
}

func (d *DatabaseStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (d *DatabaseStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	if err := d.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (d *DatabaseStore) ListProductsBySeller(ctx context.Context, sellerID string) ([]*models.Product, error) {
	var products []*models.Product
	err := d.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}
	return products, nil
}

func (d *DatabaseStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	var out *models.Product
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		update.Apply(&p)
		// Select so false/empty values are written too
		if err := tx.Model(&p).Select("status", "stock_status", "is_available").Updates(&p).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return out, nil
}

func (d *DatabaseStore) DeleteProduct(ctx context.Context, id string) error {
	res := d.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// Seller operations
func (d *DatabaseStore) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	s := *seller
	if err := d.db.WithContext(ctx).Create(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("seller %s: %w", s.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert seller: %w", err)
	}
	return &s, nil
}

func (d *DatabaseStore) GetSeller(ctx context.Context, id string) (*models.Seller, error) {
	var s models.Seller
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get seller: %w", err)
	}
	return &s, nil
}

func (d *DatabaseStore) ListSellers(ctx context.Context) ([]*models.Seller, error) {
	var sellers []*models.Seller
	if err := d.db.WithContext(ctx).Order("id").Find(&sellers).Error; err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	return sellers, nil
}

func (d *DatabaseStore) UpdateSeller(ctx context.Context, id string, update models.SellerUpdate) (*models.Seller, error) {
	var out *models.Seller
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Seller
		if err := tx.Where("id = ?", id).First(&s).Error; err != nil {
			return err
		}
		update.Apply(&s)
		s.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&s).Select("name", "location", "active", "updated_at").Updates(&s).Error; err != nil {
			return err
		}
		out = &s
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update seller: %w", err)
	}
	return out, nil
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DatabaseStore) Close(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
