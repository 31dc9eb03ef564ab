package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"printsi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ShippingHandler handles HTTP requests for shipping quotes.
type ShippingHandler struct {
	service *services.ShippingService
}

// NewShippingHandler creates a new ShippingHandler.
func NewShippingHandler(service *services.ShippingService) *ShippingHandler {
	return &ShippingHandler{
		service: service,
	}
}

// RegisterRoutes registers the shipping routes with the Fiber app.
func (h *ShippingHandler) RegisterRoutes(router fiber.Router) {
	shippingRoutes := router.Group("/shipping")
	shippingRoutes.Get("/quote", h.HandleQuoteParcel)
	shippingRoutes.Post("/cart-quote", h.HandleQuoteCart)
}

// HandleQuoteParcel quotes a single parcel on a route, e.g.
// GET /shipping/quote?from=PL&to=DE&weight=1200.
func (h *ShippingHandler) HandleQuoteParcel(c *fiber.Ctx) error {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameters 'from' and 'to' are required",
		})
	}

	weight := services.DefaultWeightGrams
	if raw := c.Query("weight"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Query parameter 'weight' must be a positive number of grams",
			})
		}
		weight = parsed
	}

	cost, err := services.CalculateShippingCost(from, to, weight)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedRoute) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Shipping is not available for this route",
				"error":   err.Error(),
			})
		}
		log.Printf("Error quoting shipping from %s to %s: %v", from, to, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not compute shipping quote",
		})
	}

	return c.JSON(fiber.Map{
		"from":         from,
		"to":           to,
		"weight_grams": weight,
		"cost":         cost,
	})
}

// CartQuoteRequest represents the request body for a whole-cart quote.
type CartQuoteRequest struct {
	Items       []services.ShippingQuoteLine `json:"items"`
	DestCountry string                       `json:"dest_country"`
}

// HandleQuoteCart quotes shipping for a whole cart grouped by seller.
func (h *ShippingHandler) HandleQuoteCart(c *fiber.Ctx) error {
	var req CartQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart quote request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	cost, err := h.service.QuoteCart(req.Items, strings.ToUpper(req.DestCountry))
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid cart quote request",
				"error":   validationErr.Reason,
			})
		}
		if errors.Is(err, services.ErrUnsupportedRoute) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Shipping is not available for this cart",
				"error":   err.Error(),
			})
		}
		log.Printf("Error quoting cart shipping: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not compute shipping quote",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"dest_country": strings.ToUpper(req.DestCountry),
		"cost":         cost,
	})
}
