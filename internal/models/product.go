package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product statuses and stock tags used by the admin API. Both fields are
// free-form, these are just the values the dashboard offers.
const (
	ProductStatusUnknown  = "unknown"
	ProductStatusApproved = "approved"
	ProductStatusRejected = "rejected"

	StockStatusInStock    = "in_stock"
	StockStatusOutOfStock = "out_of_stock"
)

var (
	ErrMissingSeller      = errors.New("product seller id is required")
	ErrMissingDescription = errors.New("product description is required")
)

// Product is a catalog entry listed by a seller over WhatsApp
type Product struct {
	ID          string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey"`
	SellerID    string    `json:"sellerId" bson:"sellerId" gorm:"index;not null"`
	ImageURL    string    `json:"imageUrl" bson:"imageUrl"`
	Price       string    `json:"price" bson:"price"` // display string, e.g. "₵50"
	Description string    `json:"description" bson:"description" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	Status      string    `json:"status" bson:"status"`
	StockStatus string    `json:"stockStatus" bson:"stockStatus"`
	IsAvailable bool      `json:"isAvailable" bson:"isAvailable" gorm:"default:false"`
}

// Validate checks the fields every ingested product must carry
func (p *Product) Validate() error {
	if strings.TrimSpace(p.SellerID) == "" {
		return ErrMissingSeller
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrMissingDescription
	}
	return nil
}

// DisplayStatus returns the status shown to buyers and admins
func (p *Product) DisplayStatus() string {
	if p.Status == "" {
		return ProductStatusUnknown
	}
	return p.Status
}

// BeforeCreate assigns the product id and creation time
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ProductUpdate carries the admin-controlled product fields. Nil fields are
// left untouched.
type ProductUpdate struct {
	Status      *string `json:"status"`
	StockStatus *string `json:"stockStatus"`
	IsAvailable *bool   `json:"isAvailable"`
}

// Empty reports whether the update changes nothing
func (u ProductUpdate) Empty() bool {
	return u.Status == nil && u.StockStatus == nil && u.IsAvailable == nil
}

// Apply copies the set fields onto p
func (u ProductUpdate) Apply(p *Product) {
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.StockStatus != nil {
		p.StockStatus = *u.StockStatus
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
}
