package handlers

import (
	"errors"
	"log"

	"printsi/internal/services"
	"printsi/pkg/payments"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives payment provider webhook deliveries. It is a public
// route: authenticity comes from the payload signature, not a user token.
type WebhookHandler struct {
	service *services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		service: service,
	}
}

// RegisterRoutes registers the webhook route with the Fiber app.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/payment", h.HandlePaymentWebhook)
}

// HandlePaymentWebhook verifies and settles one webhook delivery. Signature
// failures are rejected outright; any other failure returns a 5xx so the
// provider redelivers the event later.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	if err := h.service.HandleEvent(c.Context(), payload, signature); err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			log.Printf("Rejected webhook with invalid signature")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid signature",
			})
		}
		log.Printf("Error processing payment webhook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process event",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
