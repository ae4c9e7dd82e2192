package models

import (
	"strings"
	"time"
)

// DefaultSellerLabel is shown for products whose seller record is missing
const DefaultSellerLabel = "Unknown Seller"

// Seller is a WhatsApp reseller. The ID is derived from the seller's phone number.
type Seller struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey"`
	Name      string    `json:"name" bson:"name"`
	Location  string    `json:"location" bson:"location"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SellerLabel returns the display name for a possibly missing seller
func SellerLabel(s *Seller) string {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return DefaultSellerLabel
	}
	return s.Name
}

// SellerUpdate holds the admin-editable seller fields
type SellerUpdate struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Active   *bool   `json:"active"`
}

// Apply copies the set fields onto s
func (u SellerUpdate) Apply(s *Seller) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Location != nil {
		s.Location = *u.Location
	}
	if u.Active != nil {
		s.Active = *u.Active
	}
}
