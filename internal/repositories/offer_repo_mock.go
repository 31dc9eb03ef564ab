package repositories

import (
	"fmt"
	"sync"

	"printsi/internal/models"

	"github.com/google/uuid"
)

// MockOfferRepository is an in-memory implementation of OfferRepository.
type MockOfferRepository struct {
	offers map[string]models.Offer
	mu     sync.RWMutex
}

// NewMockOfferRepository creates a new instance of MockOfferRepository.
func NewMockOfferRepository() *MockOfferRepository {
	return &MockOfferRepository{
		offers: make(map[string]models.Offer),
	}
}

// GetAll returns all public offers.
func (r *MockOfferRepository) GetAll() ([]models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offerList := make([]models.Offer, 0, len(r.offers))
	for _, o := range r.offers {
		if !o.IsCustom {
			offerList = append(offerList, o)
		}
	}
	return offerList, nil
}

// GetByID returns an offer by its ID.
func (r *MockOfferRepository) GetByID(id string) (*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offer, ok := r.offers[id]
	if !ok {
		return nil, fmt.Errorf("offer with ID %s not found", id)
	}
	return &offer, nil
}

// Create adds a new offer.
func (r *MockOfferRepository) Create(offer *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	r.offers[offer.ID] = *offer
	return nil
}

// Update modifies an existing offer.
func (r *MockOfferRepository) Update(offer *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.offers[offer.ID]
	if !ok {
		return fmt.Errorf("offer with ID %s not found for update", offer.ID)
	}
	r.offers[offer.ID] = *offer
	return nil
}

// Delete removes an offer by its ID.
func (r *MockOfferRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.offers[id]
	if !ok {
		return fmt.Errorf("offer with ID %s not found for deletion", id)
	}
	delete(r.offers, id)
	return nil
}

// DecrementStock performs the compare-and-subtract under the repository lock,
// mirroring the conditional UPDATE the GORM implementation issues.
func (r *MockOfferRepository) DecrementStock(id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid decrement quantity %d for offer %s", quantity, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok || offer.Stock < quantity {
		return fmt.Errorf("offer %s: %w", id, ErrInsufficientStock)
	}
	offer.Stock -= quantity
	r.offers[id] = offer
	return nil
}
