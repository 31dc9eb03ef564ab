package repositories

import (
	"printsi/internal/models"
)

// OfferRepository defines the interface for offer data access.
type OfferRepository interface {
	GetAll() ([]models.Offer, error)
	GetByID(id string) (*models.Offer, error)
	Create(offer *models.Offer) error
	Update(offer *models.Offer) error
	Delete(id string) error
	// DecrementStock atomically subtracts quantity from the offer's stock.
	// It must be a single conditional write against the store, never a
	// read-then-write from application code, so stock can never go negative
	// under concurrent settlements. Returns ErrInsufficientStock when the
	// offer is missing or has fewer than quantity units left.
	DecrementStock(id string, quantity int) error
}
