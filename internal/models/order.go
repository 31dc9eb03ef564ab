package models

import "time"

// Order statuses. A settlement is created directly in StatusPaid; the status
// only ever advances forward from there (paid -> shipped -> delivered).
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// OrderItem is a single settled line of an Order. Rows are immutable once
// created; PriceAtPurchase freezes the unit price at settlement time so later
// offer edits cannot change historical totals or seller earnings.
type OrderItem struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID         string    `json:"order_id" gorm:"index;type:varchar(36)"`
	OfferID         string    `json:"offer_id" gorm:"type:varchar(36)"`
	BuyerID         string    `json:"buyer_id" gorm:"index;type:varchar(36)"`
	SellerID        string    `json:"seller_id" gorm:"index;type:varchar(36)"`
	Quantity        int       `json:"quantity"`
	PriceAtPurchase float64   `json:"price_at_purchase"`
	CreatedAt       time.Time `json:"created_at"`
}

// ShippingDetail is a denormalized address snapshot tied 1:1 to an Order.
// It is best-effort: an order without one is still a valid settlement.
type ShippingDetail struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   string    `json:"order_id" gorm:"uniqueIndex;type:varchar(36)"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Order represents one buyer transaction. PaymentReference carries the payment
// provider's session id (card path) or a synthetic "balance_" reference
// (balance path); its unique index is what makes webhook redelivery idempotent.
type Order struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID          string          `json:"buyer_id" gorm:"index;type:varchar(36)"`
	TotalAmount      float64         `json:"total_amount"` // Base currency (EUR), items + shipping
	ShippingCost     float64         `json:"shipping_cost"`
	Status           string          `json:"status"`
	PaymentReference string          `json:"payment_reference" gorm:"uniqueIndex;type:varchar(128)"`
	Items            []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingDetail   *ShippingDetail `json:"shipping_detail,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
