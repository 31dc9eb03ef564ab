package repositories

import (
	"errors"
	"fmt"

	"printsi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMChatRepository is a GORM implementation of ChatRepository.
type GORMChatRepository struct {
	db *gorm.DB
}

// NewGORMChatRepository creates a new instance of GORMChatRepository.
func NewGORMChatRepository(db *gorm.DB) *GORMChatRepository {
	return &GORMChatRepository{
		db: db,
	}
}

// GetByID retrieves a single chat by its ID.
func (r *GORMChatRepository) GetByID(id string) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.First(&chat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("chat with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get chat by ID %s: %w", id, err)
	}
	return &chat, nil
}

// GetByUser retrieves all chats a user participates in, most recent first.
func (r *GORMChatRepository) GetByUser(userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get chats for user %s: %w", userID, err)
	}
	return chats, nil
}

// FindOrCreate returns the chat keyed by (buyer, seller, offer), creating it
// when none exists. The unique index on the triple backstops concurrent
// creation: a losing insert is re-read as the winner's row.
func (r *GORMChatRepository) FindOrCreate(buyerID, sellerID, offerID string) (*models.Chat, bool, error) {
	var chat models.Chat
	err := r.db.First(&chat, "buyer_id = ? AND seller_id = ? AND offer_id = ?", buyerID, sellerID, offerID).Error
	if err == nil {
		return &chat, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up chat: %w", err)
	}

	chat = models.Chat{
		ID:       uuid.New().String(),
		BuyerID:  buyerID,
		SellerID: sellerID,
		OfferID:  offerID,
	}
	if err := r.db.Create(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race; the other writer's chat is the one to use.
			var existing models.Chat
			if ferr := r.db.First(&existing, "buyer_id = ? AND seller_id = ? AND offer_id = ?", buyerID, sellerID, offerID).Error; ferr != nil {
				return nil, false, fmt.Errorf("failed to re-read chat after duplicate insert: %w", ferr)
			}
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create chat: %w", err)
	}
	return &chat, true, nil
}

// LinkOrder attaches the seeding order to a chat that has none yet.
func (r *GORMChatRepository) LinkOrder(chatID, orderID string) error {
	res := r.db.Model(&models.Chat{}).
		Where("id = ? AND (order_id IS NULL OR order_id = '')", chatID).
		Update("order_id", orderID)
	if res.Error != nil {
		return fmt.Errorf("failed to link order %s to chat %s: %w", orderID, chatID, res.Error)
	}
	return nil
}

// AppendMessage appends a message to its chat and bumps the chat's updated_at
// so conversation lists sort by recent activity.
func (r *GORMChatRepository) AppendMessage(message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to append message to chat %s: %w", message.ChatID, err)
		}
		if err := tx.Model(&models.Chat{}).Where("id = ?", message.ChatID).
			Update("updated_at", message.CreatedAt).Error; err != nil {
			return fmt.Errorf("failed to touch chat %s: %w", message.ChatID, err)
		}
		return nil
	})
}

// GetMessages retrieves all messages of a chat in send order.
func (r *GORMChatRepository) GetMessages(chatID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for chat %s: %w", chatID, err)
	}
	return messages, nil
}

// GetMessage retrieves a single message by its ID.
func (r *GORMChatRepository) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := r.db.First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get message by ID %s: %w", id, err)
	}
	return &message, nil
}

// UpdateProposal replaces the proposal payload of a proposal message. The
// message body and ordering stay untouched.
func (r *GORMChatRepository) UpdateProposal(messageID string, proposal *models.Proposal) error {
	res := r.db.Model(&models.Message{}).
		Where("id = ? AND kind = ?", messageID, models.MessageKindProposal).
		Updates(map[string]interface{}{
			"proposal_price":           proposal.Price,
			"proposal_quantity":        proposal.Quantity,
			"proposal_material":        proposal.Material,
			"proposal_color":           proposal.Color,
			"proposal_status":          proposal.Status,
			"proposal_custom_offer_id": proposal.CustomOfferID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update proposal on message %s: %w", messageID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("proposal message with ID %s not found for update", messageID)
	}
	return nil
}
