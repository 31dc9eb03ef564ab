package models

import "time"

// Notification types used by the engine.
const (
	NotificationTypeSale     = "sale"
	NotificationTypePurchase = "purchase"
	NotificationTypeLike     = "like"
)

// Notification is a fire-and-forget record targeted at one user. Inserts are
// best-effort; a failed notification never affects the settlement it
// describes.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"index;type:varchar(36)"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type" gorm:"type:varchar(32)"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
