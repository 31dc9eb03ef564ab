package repositories

import (
	"fmt"
	"sync"
	"time"

	"printsi/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository. It
// reproduces the GORM implementation's semantics — settlement atomicity under
// one lock, balance re-derivation from stored orders, payment reference
// uniqueness — so services can be tested without a database.
type MockOrderRepository struct {
	orders map[string]models.Order
	byRef  map[string]string
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		byRef:  make(map[string]string),
	}
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return &order, nil
}

// GetByBuyer returns all orders placed by a buyer.
func (r *MockOrderRepository) GetByBuyer(buyerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.BuyerID == buyerID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// GetByPaymentReference returns the order for a provider transaction id, or
// (nil, nil) when none exists.
func (r *MockOrderRepository) GetByPaymentReference(ref string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRef[ref]
	if !ok {
		return nil, nil
	}
	order := r.orders[id]
	return &order, nil
}

// CreateSettlement adds the order with its items under one lock, re-deriving
// the buyer's balance first when requireBalance is set.
func (r *MockOrderRepository) CreateSettlement(order *models.Order, requireBalance bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.PaymentReference != "" {
		if _, exists := r.byRef[order.PaymentReference]; exists {
			return fmt.Errorf("payment reference %s: %w", order.PaymentReference, ErrDuplicateSettlement)
		}
	}

	if requireBalance {
		earned, spent := r.ledgerTotalsLocked(order.BuyerID)
		available := earned - spent
		if available < 0 {
			available = 0
		}
		if available < order.TotalAmount {
			return &InsufficientBalanceError{Required: order.TotalAmount, Available: available}
		}
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if order.ShippingDetail != nil {
		order.ShippingDetail.OrderID = order.ID
	}

	r.orders[order.ID] = *order
	if order.PaymentReference != "" {
		r.byRef[order.PaymentReference] = order.ID
	}
	return nil
}

// UpdateStatus advances the status of an order, rejecting backwards moves.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	newRank, ok := statusRank[status]
	if !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	if order.Status == models.StatusCancelled || statusRank[order.Status] > newRank ||
		(status == models.StatusCancelled && order.Status != models.StatusPending) {
		return fmt.Errorf("order %s cannot move from %s to %s", id, order.Status, status)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// LedgerTotals derives earned/spent sums from the stored orders.
func (r *MockOrderRepository) LedgerTotals(userID string) (float64, float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	earned, spent := r.ledgerTotalsLocked(userID)
	return earned, spent, nil
}

func (r *MockOrderRepository) ledgerTotalsLocked(userID string) (earned float64, spent float64) {
	for _, order := range r.orders {
		if order.BuyerID == userID {
			spent += order.TotalAmount
		}
		for _, item := range order.Items {
			if item.SellerID == userID {
				earned += item.PriceAtPurchase * float64(item.Quantity)
			}
		}
	}
	return earned, spent
}
