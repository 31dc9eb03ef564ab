package repositories

import (
	"printsi/internal/models"
)

// UserRepository defines the interface for user data access. Besides auth
// lookups, it is the profile store the engine reads a seller's ship-from
// country and payout account from.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
}
