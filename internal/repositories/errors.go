package repositories

import (
	"errors"
	"fmt"
)

// Domain errors surfaced by repositories so services can react to them with
// errors.Is / errors.As instead of matching message strings.
var (
	// ErrInsufficientStock is returned when an atomic stock decrement affects
	// no rows, i.e. the offer is unknown or has fewer units left than asked.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateSettlement is returned when an order insert collides with an
	// existing payment reference. Webhook redeliveries land here.
	ErrDuplicateSettlement = errors.New("settlement already exists for payment reference")
)

// InsufficientBalanceError reports a failed balance authorization. It carries
// both amounts because the user-facing message must name the shortfall.
type InsufficientBalanceError struct {
	Required  float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, available %.2f", e.Required, e.Available)
}
