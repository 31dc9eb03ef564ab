package models

import "gorm.io/gorm"

// Offer represents a sellable listing in the marketplace.
type Offer struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID    string  `json:"seller_id" gorm:"index;type:varchar(36)" validate:"required"`
	Title       string  `json:"title" validate:"required,min=3,max=150"`
	Description string  `json:"description" validate:"omitempty,max=1000"`
	Category    string  `json:"category" validate:"omitempty,oneof=physical digital"`
	Price       float64 `json:"price" validate:"required,gt=0"` // Base currency (EUR)
	Stock       int     `json:"stock" validate:"gte=0"`
	Weight      string  `json:"weight"` // Free text, e.g. "500g" or "1.5kg"
	Material    string  `json:"material"`
	Color       string  `json:"color"`
	// Custom offers are private listings produced by an accepted chat proposal.
	// They reference the listing the negotiation started from and are not shown
	// in the public gallery.
	IsCustom      bool   `json:"is_custom"`
	ParentOfferID string `json:"parent_offer_id,omitempty" gorm:"type:varchar(36)"`
	gorm.Model           // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
