package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"printsi/internal/models"

	"github.com/google/uuid"
)

// MockChatRepository is an in-memory implementation of ChatRepository.
type MockChatRepository struct {
	chats    map[string]models.Chat
	messages map[string]models.Message
	mu       sync.RWMutex
}

// NewMockChatRepository creates a new instance of MockChatRepository.
func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{
		chats:    make(map[string]models.Chat),
		messages: make(map[string]models.Message),
	}
}

// GetByID returns a chat by its ID.
func (r *MockChatRepository) GetByID(id string) (*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat with ID %s not found", id)
	}
	return &chat, nil
}

// GetByUser returns all chats a user participates in.
func (r *MockChatRepository) GetByUser(userID string) ([]models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chats []models.Chat
	for _, chat := range r.chats {
		if chat.BuyerID == userID || chat.SellerID == userID {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

// FindOrCreate returns the chat for the (buyer, seller, offer) triple.
func (r *MockChatRepository) FindOrCreate(buyerID, sellerID, offerID string) (*models.Chat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, chat := range r.chats {
		if chat.BuyerID == buyerID && chat.SellerID == sellerID && chat.OfferID == offerID {
			return &chat, false, nil
		}
	}

	chat := models.Chat{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		OfferID:   offerID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.chats[chat.ID] = chat
	return &chat, true, nil
}

// LinkOrder attaches the seeding order to a chat that has none yet.
func (r *MockChatRepository) LinkOrder(chatID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("chat with ID %s not found", chatID)
	}
	if chat.OrderID == "" {
		chat.OrderID = orderID
		r.chats[chatID] = chat
	}
	return nil
}

// AppendMessage appends a message and touches the chat's updated_at.
func (r *MockChatRepository) AppendMessage(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[message.ChatID]; !ok {
		return fmt.Errorf("chat with ID %s not found", message.ChatID)
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.messages[message.ID] = *message

	chat := r.chats[message.ChatID]
	chat.UpdatedAt = message.CreatedAt
	r.chats[message.ChatID] = chat
	return nil
}

// GetMessages returns all messages of a chat in send order.
func (r *MockChatRepository) GetMessages(chatID string) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var messages []models.Message
	for _, msg := range r.messages {
		if msg.ChatID == chatID {
			messages = append(messages, msg)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.Before(messages[j].CreatedAt) })
	return messages, nil
}

// GetMessage returns a single message by its ID.
func (r *MockChatRepository) GetMessage(id string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.messages[id]
	if !ok {
		return nil, fmt.Errorf("message with ID %s not found", id)
	}
	return &message, nil
}

// UpdateProposal replaces the proposal payload of a proposal message.
func (r *MockChatRepository) UpdateProposal(messageID string, proposal *models.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[messageID]
	if !ok || message.Kind != models.MessageKindProposal {
		return fmt.Errorf("proposal message with ID %s not found for update", messageID)
	}
	p := *proposal
	message.Proposal = &p
	message.UpdatedAt = time.Now()
	r.messages[messageID] = message
	return nil
}
