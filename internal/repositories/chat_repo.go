package repositories

import (
	"printsi/internal/models"
)

// ChatRepository defines the interface for conversation and message access.
// Messages are append-only; the single mutation allowed is a proposal status
// change on an existing proposal message.
type ChatRepository interface {
	GetByID(id string) (*models.Chat, error)
	GetByUser(userID string) ([]models.Chat, error)
	// FindOrCreate returns the chat for the (buyer, seller, offer) triple,
	// creating it when absent. The created flag tells callers whether they
	// are seeding a brand-new thread.
	FindOrCreate(buyerID, sellerID, offerID string) (chat *models.Chat, created bool, err error)
	// LinkOrder attaches the order that seeded the chat. Only set once.
	LinkOrder(chatID, orderID string) error
	AppendMessage(message *models.Message) error
	GetMessages(chatID string) ([]models.Message, error)
	GetMessage(id string) (*models.Message, error)
	UpdateProposal(messageID string, proposal *models.Proposal) error
}
