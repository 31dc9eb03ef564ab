package repositories

import (
	"printsi/internal/models"
)

// OrderRepository defines the interface for settlement data access. Orders and
// their items are owned by the settlement process: created once, items never
// mutated afterwards.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	GetByBuyer(buyerID string) ([]models.Order, error)
	// GetByPaymentReference looks up the order settled for a provider
	// transaction id. A missing order is not an error: it returns (nil, nil)
	// so the webhook reconciler can use it as an idempotency probe.
	GetByPaymentReference(ref string) (*models.Order, error)
	// CreateSettlement durably creates the order together with its items and
	// optional shipping detail. With requireBalance set, the buyer's spendable
	// balance is re-derived inside the same transaction and the insert fails
	// with *InsufficientBalanceError when it does not cover the total; this
	// closes the gap between a balance check and the debit that follows it.
	// A payment reference collision fails with ErrDuplicateSettlement.
	CreateSettlement(order *models.Order, requireBalance bool) error
	UpdateStatus(id string, status string) error
	// LedgerTotals derives the user's lifetime earnings (as seller, from
	// order items) and spending (as buyer, from order totals).
	LedgerTotals(userID string) (earned float64, spent float64, err error)
}
