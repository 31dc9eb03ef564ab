package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"printsi/internal/models"
)

// MockNotificationRepository is an in-memory implementation of NotificationRepository.
type MockNotificationRepository struct {
	notifications map[uint]models.Notification
	nextID        uint
	mu            sync.RWMutex
}

// NewMockNotificationRepository creates a new instance of MockNotificationRepository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[uint]models.Notification),
		nextID:        1,
	}
}

// Create inserts a notification.
func (r *MockNotificationRepository) Create(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification.ID = r.nextID
	r.nextID++
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	r.notifications[notification.ID] = *notification
	return nil
}

// GetByUser returns a user's notifications, newest first.
func (r *MockNotificationRepository) GetByUser(userID string) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notifications []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read.
func (r *MockNotificationRepository) MarkRead(id uint, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("notification %d not found for user %s", id, userID)
	}
	n.IsRead = true
	r.notifications[id] = n
	return nil
}
