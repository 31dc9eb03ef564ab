package models

import "gorm.io/gorm"

// User represents a marketplace account. Every user can both buy and sell;
// Country doubles as the seller's ship-from country for shipping quotes, and
// PayoutAccountID holds the payment provider's connected-account id used for
// seller payouts.
type User struct {
	ID              string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username        string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email           string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password        string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	FullName        string `json:"full_name"`
	Address         string `json:"address"`
	City            string `json:"city"`
	ZipCode         string `json:"zip_code"`
	Country         string `json:"country" gorm:"type:varchar(2)" validate:"omitempty,iso3166_1_alpha2"`
	Currency        string `json:"currency" gorm:"type:varchar(3)"` // Display preference only, never settlement
	PayoutAccountID string `json:"payout_account_id,omitempty" gorm:"type:varchar(64)"`
	gorm.Model             // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
