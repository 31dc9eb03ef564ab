package repositories

import (
	"printsi/internal/models"
)

// NotificationRepository defines the interface for notification access.
// Inserts are fire-and-forget from the caller's point of view.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByUser(userID string) ([]models.Notification, error)
	MarkRead(id uint, userID string) error
}
