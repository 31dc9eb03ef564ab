package services

import (
	"printsi/internal/models"
	"printsi/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OfferService handles business logic related to offers.
type OfferService struct {
	repo     repositories.OfferRepository
	validate *validator.Validate
}

// NewOfferService creates a new OfferService.
func NewOfferService(repo repositories.OfferRepository) *OfferService {
	return &OfferService{
		repo:     repo,
		validate: validator.New(),
	}
}

// GetAllOffers retrieves all public offers. Custom offers stay private.
func (s *OfferService) GetAllOffers() ([]models.Offer, error) {
	return s.repo.GetAll()
}

// GetOfferByID retrieves a single offer by its ID.
func (s *OfferService) GetOfferByID(id string) (*models.Offer, error) {
	return s.repo.GetByID(id)
}

// CreateOffer creates a new offer owned by sellerID. Custom offers are only
// ever created by the negotiation flow, never directly.
func (s *OfferService) CreateOffer(sellerID string, offer *models.Offer) error {
	offer.ID = uuid.New().String()
	offer.SellerID = sellerID
	offer.IsCustom = false
	offer.ParentOfferID = ""
	if err := s.validate.Struct(offer); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return s.repo.Create(offer)
}

// UpdateOffer updates an existing offer. Only the owning seller may update.
func (s *OfferService) UpdateOffer(sellerID string, offer *models.Offer) error {
	existing, err := s.repo.GetByID(offer.ID)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return &ValidationError{Reason: "offer belongs to another seller"}
	}
	offer.SellerID = existing.SellerID
	offer.IsCustom = existing.IsCustom
	offer.ParentOfferID = existing.ParentOfferID
	if err := s.validate.Struct(offer); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return s.repo.Update(offer)
}

// DeleteOffer deletes an offer by its ID. Only the owning seller may delete.
func (s *OfferService) DeleteOffer(sellerID, id string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return &ValidationError{Reason: "offer belongs to another seller"}
	}
	return s.repo.Delete(id)
}
