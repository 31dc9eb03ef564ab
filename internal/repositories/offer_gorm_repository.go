package repositories

import (
	"fmt"

	"printsi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOfferRepository is a GORM implementation of OfferRepository.
type GORMOfferRepository struct {
	db *gorm.DB
}

// NewGORMOfferRepository creates a new instance of GORMOfferRepository.
func NewGORMOfferRepository(db *gorm.DB) *GORMOfferRepository {
	return &GORMOfferRepository{
		db: db,
	}
}

// GetAll retrieves all public offers. Custom offers created by negotiations
// are private and excluded from listings.
func (r *GORMOfferRepository) GetAll() ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.Where("is_custom = ?", false).Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to get all offers: %w", err)
	}
	return offers, nil
}

// GetByID retrieves a single offer by its ID.
func (r *GORMOfferRepository) GetByID(id string) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.First(&offer, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("offer with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get offer by ID %s: %w", id, err)
	}
	return &offer, nil
}

// Create creates a new offer.
func (r *GORMOfferRepository) Create(offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	if err := r.db.Create(offer).Error; err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// Update updates an existing offer.
func (r *GORMOfferRepository) Update(offer *models.Offer) error {
	res := r.db.Save(offer) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update offer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("offer with ID %s not found for update", offer.ID)
	}
	return nil
}

// Delete deletes an offer by its ID.
func (r *GORMOfferRepository) Delete(id string) error {
	res := r.db.Delete(&models.Offer{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete offer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("offer with ID %s not found for deletion", id)
	}
	return nil
}

// DecrementStock subtracts quantity from the offer's stock in one conditional
// UPDATE. The "stock >= ?" guard makes the database arbitrate concurrent
// settlements racing the same units: the loser affects zero rows.
func (r *GORMOfferRepository) DecrementStock(id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid decrement quantity %d for offer %s", quantity, id)
	}
	res := r.db.Model(&models.Offer{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for offer %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("offer %s: %w", id, ErrInsufficientStock)
	}
	return nil
}
