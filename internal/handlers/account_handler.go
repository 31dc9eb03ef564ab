package handlers

import (
	"errors"
	"log"
	"strconv"

	"printsi/internal/repositories"
	"printsi/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves the authenticated user's balance and notifications.
type AccountHandler struct {
	balanceService   *services.BalanceService
	notificationRepo repositories.NotificationRepository
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(balanceService *services.BalanceService, notificationRepo repositories.NotificationRepository) *AccountHandler {
	return &AccountHandler{
		balanceService:   balanceService,
		notificationRepo: notificationRepo,
	}
}

// RegisterRoutes registers the account routes with the Fiber app.
func (h *AccountHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/balance", h.HandleGetBalance)

	notificationRoutes := router.Group("/notifications")
	notificationRoutes.Get("/", h.HandleGetNotifications)
	notificationRoutes.Patch("/:id/read", h.HandleMarkNotificationRead)
}

// HandleGetBalance returns the user's derived balance.
func (h *AccountHandler) HandleGetBalance(c *fiber.Ctx) error {
	balance, err := h.balanceService.ComputeBalance(currentUserID(c))
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Could not compute balance",
				"error":   validationErr.Reason,
			})
		}
		log.Printf("Error computing balance: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not compute balance",
			"error":   err.Error(),
		})
	}
	return c.JSON(balance)
}

// HandleGetNotifications returns the user's notifications, newest first.
func (h *AccountHandler) HandleGetNotifications(c *fiber.Ctx) error {
	notifications, err := h.notificationRepo.GetByUser(currentUserID(c))
	if err != nil {
		log.Printf("Error getting notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve notifications",
			"error":   err.Error(),
		})
	}
	return c.JSON(notifications)
}

// HandleMarkNotificationRead marks one of the user's notifications as read.
func (h *AccountHandler) HandleMarkNotificationRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid notification id",
		})
	}

	if err := h.notificationRepo.MarkRead(uint(id), currentUserID(c)); err != nil {
		log.Printf("Error marking notification %d read: %v", id, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Notification not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}
