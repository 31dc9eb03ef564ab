package handlers

import (
	"errors"
	"fmt"
	"log"

	"printsi/internal/repositories"
	"printsi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests for both checkout paths and the
// buyer's order views.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout and order routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/balance", h.HandleBalanceCheckout)
	checkoutRoutes.Post("/card", h.HandleCardCheckout)

	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleBalanceCheckout settles a cart against the buyer's internal balance.
func (h *CheckoutHandler) HandleBalanceCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	result, err := h.service.BalanceCheckout(currentUserID(c), &req)
	if err != nil {
		return h.checkoutError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleCardCheckout opens a hosted card payment session for the cart.
func (h *CheckoutHandler) HandleCardCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	result, err := h.service.CardCheckout(c.Context(), currentUserID(c), &req)
	if err != nil {
		return h.checkoutError(c, err)
	}
	return c.JSON(result)
}

// checkoutError maps service errors of either checkout path onto HTTP
// responses.
func (h *CheckoutHandler) checkoutError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Checkout rejected",
			"error":   validationErr.Reason,
		})
	}

	var balanceErr *repositories.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":   "Insufficient balance",
			"required":  balanceErr.Required,
			"available": balanceErr.Available,
		})
	}

	var upstreamErr *services.UpstreamError
	if errors.As(err, &upstreamErr) {
		log.Printf("Payment gateway error during checkout: %v", upstreamErr)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":   "Payment provider is unavailable, please try again",
			"retryable": upstreamErr.Retryable,
		})
	}

	log.Printf("Error during checkout: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not complete checkout",
		"error":   err.Error(),
	})
}

// HandleGetOrders retrieves the authenticated buyer's orders.
func (h *CheckoutHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrders(currentUserID(c))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves one of the buyer's orders by its ID.
func (h *CheckoutHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(currentUserID(c), orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Order with ID %s not found", orderID),
		})
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatus advances an order's status.
func (h *CheckoutHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	if err := h.service.AdvanceOrderStatus(orderID, updateData.Status); err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": fmt.Sprintf("Order update failed: %v", err.Error()),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, updateData.Status),
	})
}
