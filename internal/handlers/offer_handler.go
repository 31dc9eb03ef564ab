package handlers

import (
	"errors"
	"fmt"
	"log"

	"printsi/internal/models"
	"printsi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OfferHandler handles HTTP requests for offers.
type OfferHandler struct {
	service *services.OfferService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(service *services.OfferService) *OfferHandler {
	return &OfferHandler{
		service: service,
	}
}

// RegisterRoutes registers the offer routes with the Fiber app.
func (h *OfferHandler) RegisterRoutes(router fiber.Router) {
	offerRoutes := router.Group("/offers")
	offerRoutes.Get("/", h.HandleGetOffers)
	offerRoutes.Get("/:id", h.HandleGetOfferByID)
	offerRoutes.Post("/", h.HandleCreateOffer)
	offerRoutes.Put("/:id", h.HandleUpdateOffer)
	offerRoutes.Delete("/:id", h.HandleDeleteOffer)
}

// HandleGetOffers retrieves all public offers.
func (h *OfferHandler) HandleGetOffers(c *fiber.Ctx) error {
	offers, err := h.service.GetAllOffers()
	if err != nil {
		log.Printf("Error getting all offers: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve offers",
			"error":   err.Error(),
		})
	}
	return c.JSON(offers)
}

// HandleGetOfferByID retrieves a single offer by its ID.
func (h *OfferHandler) HandleGetOfferByID(c *fiber.Ctx) error {
	offerID := c.Params("id")
	offer, err := h.service.GetOfferByID(offerID)
	if err != nil {
		log.Printf("Error getting offer by ID %s: %v", offerID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Offer with ID %s not found", offerID),
		})
	}
	return c.JSON(offer)
}

// HandleCreateOffer creates a new offer owned by the authenticated user.
func (h *OfferHandler) HandleCreateOffer(c *fiber.Ctx) error {
	var offer models.Offer
	if err := c.BodyParser(&offer); err != nil {
		log.Printf("Error parsing offer request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.CreateOffer(currentUserID(c), &offer); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   validationErr.Reason,
			})
		}
		log.Printf("Error creating offer: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create offer",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(offer)
}

// HandleUpdateOffer updates an offer owned by the authenticated user.
func (h *OfferHandler) HandleUpdateOffer(c *fiber.Ctx) error {
	var offer models.Offer
	if err := c.BodyParser(&offer); err != nil {
		log.Printf("Error parsing offer request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	offer.ID = c.Params("id")

	if err := h.service.UpdateOffer(currentUserID(c), &offer); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Could not update offer",
				"error":   validationErr.Reason,
			})
		}
		log.Printf("Error updating offer %s: %v", offer.ID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Offer with ID %s not found", offer.ID),
		})
	}

	return c.JSON(offer)
}

// HandleDeleteOffer deletes an offer owned by the authenticated user.
func (h *OfferHandler) HandleDeleteOffer(c *fiber.Ctx) error {
	offerID := c.Params("id")
	if err := h.service.DeleteOffer(currentUserID(c), offerID); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Could not delete offer",
				"error":   validationErr.Reason,
			})
		}
		log.Printf("Error deleting offer %s: %v", offerID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Offer with ID %s not found", offerID),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Offer %s deleted successfully", offerID),
	})
}
