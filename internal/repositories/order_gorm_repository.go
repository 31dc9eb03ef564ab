package repositories

import (
	"errors"
	"fmt"

	"printsi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
// The *gorm.DB must be opened with TranslateError so unique-index collisions
// surface as gorm.ErrDuplicatedKey across drivers.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves a single order with its items and shipping detail.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("ShippingDetail").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByBuyer retrieves all orders placed by a buyer, newest first.
func (r *GORMOrderRepository) GetByBuyer(buyerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

// GetByPaymentReference returns the order settled for a provider transaction
// id, or (nil, nil) when none exists yet.
func (r *GORMOrderRepository) GetByPaymentReference(ref string) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, "payment_reference = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up order by payment reference %s: %w", ref, err)
	}
	return &order, nil
}

// CreateSettlement inserts the order, its items and its shipping detail in one
// transaction. When requireBalance is set, the buyer's balance is re-derived
// from the ledger tables inside the same transaction immediately before the
// insert, so two concurrent balance checkouts cannot both spend the same
// funds.
func (r *GORMOrderRepository) CreateSettlement(order *models.Order, requireBalance bool) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if order.ShippingDetail != nil {
		order.ShippingDetail.OrderID = order.ID
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if requireBalance {
			earned, spent, err := ledgerTotals(tx, order.BuyerID)
			if err != nil {
				return err
			}
			available := earned - spent
			if available < 0 {
				available = 0
			}
			if available < order.TotalAmount {
				return &InsufficientBalanceError{Required: order.TotalAmount, Available: available}
			}
		}

		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("payment reference %s: %w", order.PaymentReference, ErrDuplicateSettlement)
			}
			return fmt.Errorf("failed to create settlement: %w", err)
		}
		return nil
	})
}

// statusRank orders the forward-only status progression. Cancelled is reachable
// from pending only.
var statusRank = map[string]int{
	models.StatusPending:   0,
	models.StatusPaid:      1,
	models.StatusShipped:   2,
	models.StatusDelivered: 3,
	models.StatusCancelled: 1,
}

// UpdateStatus advances an order's status. Transitions that would move the
// order backwards (or out of a terminal cancelled state) are rejected.
func (r *GORMOrderRepository) UpdateStatus(id string, status string) error {
	newRank, ok := statusRank[status]
	if !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order with ID %s not found for status update", id)
			}
			return fmt.Errorf("failed to load order %s for status update: %w", id, err)
		}
		if order.Status == models.StatusCancelled || statusRank[order.Status] > newRank ||
			(status == models.StatusCancelled && order.Status != models.StatusPending) {
			return fmt.Errorf("order %s cannot move from %s to %s", id, order.Status, status)
		}
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update order status for order %s: %w", id, err)
		}
		return nil
	})
}

// LedgerTotals derives earned/spent sums for a user from the store of record.
func (r *GORMOrderRepository) LedgerTotals(userID string) (float64, float64, error) {
	return ledgerTotals(r.db, userID)
}

func ledgerTotals(tx *gorm.DB, userID string) (earned float64, spent float64, err error) {
	err = tx.Model(&models.OrderItem{}).
		Where("seller_id = ?", userID).
		Select("COALESCE(SUM(price_at_purchase * quantity), 0)").
		Scan(&earned).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum earnings for user %s: %w", userID, err)
	}
	err = tx.Model(&models.Order{}).
		Where("buyer_id = ?", userID).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&spent).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum spending for user %s: %w", userID, err)
	}
	return earned, spent, nil
}
