package services

import (
	"fmt"

	"printsi/internal/repositories"
)

// Balance is a user's derived spendable balance. It is never stored: earned
// and spent are summed from the order tables at every read, so a client can
// never present a stale or forged figure.
type Balance struct {
	Earned  float64 `json:"earned"`
	Spent   float64 `json:"spent"`
	Balance float64 `json:"balance"`
}

// BalanceService derives user balances from settlement history.
type BalanceService struct {
	orderRepo repositories.OrderRepository
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(orderRepo repositories.OrderRepository) *BalanceService {
	return &BalanceService{
		orderRepo: orderRepo,
	}
}

// ComputeBalance recomputes the user's balance from the store of record.
// earned = sum of order items sold by the user at their frozen purchase
// price; spent = sum of order totals the user paid as buyer; balance is the
// difference floored at zero.
func (s *BalanceService) ComputeBalance(userID string) (*Balance, error) {
	if userID == "" {
		return nil, &ValidationError{Reason: "user id is required"}
	}

	earned, spent, err := s.orderRepo.LedgerTotals(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance for user %s: %w", userID, err)
	}

	balance := earned - spent
	if balance < 0 {
		balance = 0
	}
	return &Balance{Earned: earned, Spent: spent, Balance: balance}, nil
}
