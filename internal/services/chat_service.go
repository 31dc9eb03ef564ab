package services

import (
	"fmt"
	"log"

	"printsi/internal/models"
	"printsi/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// customOfferTitleLimit caps the generated custom offer title.
const customOfferTitleLimit = 150

// ChatService runs buyer/seller conversations and the custom-order
// negotiation that lives inside them. A negotiation is a proposal message
// whose status walks a small state machine; acceptance materializes a private
// Offer the buyer can check out like any other listing.
type ChatService struct {
	chatRepo  repositories.ChatRepository
	offerRepo repositories.OfferRepository
	validate  *validator.Validate
}

// NewChatService creates a new ChatService.
func NewChatService(chatRepo repositories.ChatRepository, offerRepo repositories.OfferRepository) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		offerRepo: offerRepo,
		validate:  validator.New(),
	}
}

// StartChat finds or creates the conversation between userID (the buyer) and
// the offer's seller. Sellers cannot open a chat about their own offer.
func (s *ChatService) StartChat(userID, offerID string) (*models.Chat, error) {
	offer, err := s.offerRepo.GetByID(offerID)
	if err != nil {
		return nil, err
	}
	if offer.SellerID == userID {
		return nil, &ValidationError{Reason: "cannot start a chat about your own offer"}
	}
	chat, _, err := s.chatRepo.FindOrCreate(userID, offer.SellerID, offerID)
	return chat, err
}

// ListChats returns every conversation the user participates in.
func (s *ChatService) ListChats(userID string) ([]models.Chat, error) {
	return s.chatRepo.GetByUser(userID)
}

// ListMessages returns a chat's messages in order. Only participants may
// read.
func (s *ChatService) ListMessages(userID, chatID string) ([]models.Message, error) {
	chat, err := s.participantChat(userID, chatID)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessages(chat.ID)
}

// SendMessage appends a plain text message to the chat.
func (s *ChatService) SendMessage(userID, chatID, body string) (*models.Message, error) {
	if body == "" {
		return nil, &ValidationError{Reason: "message body is required"}
	}
	chat, err := s.participantChat(userID, chatID)
	if err != nil {
		return nil, err
	}
	message := &models.Message{
		ID:       uuid.New().String(),
		ChatID:   chat.ID,
		SenderID: userID,
		Kind:     models.MessageKindText,
		Body:     body,
	}
	if err := s.chatRepo.AppendMessage(message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return message, nil
}

// ProposalInput is the negotiated terms submitted by either participant.
type ProposalInput struct {
	Price    float64 `json:"price" validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
	Material string  `json:"material"`
	Color    string  `json:"color"`
}

// SubmitProposal posts a proposal message into the chat. A buyer's proposal
// starts pending and waits for the seller; a seller's proposal is an offer in
// itself, so its custom Offer is created immediately and the buyer only has
// to accept.
func (s *ChatService) SubmitProposal(userID, chatID string, input ProposalInput) (*models.Message, error) {
	if err := s.validate.Struct(&input); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	chat, err := s.participantChat(userID, chatID)
	if err != nil {
		return nil, err
	}

	proposal := &models.Proposal{
		Price:    input.Price,
		Quantity: input.Quantity,
		Material: input.Material,
		Color:    input.Color,
		Status:   models.ProposalPending,
	}
	if userID == chat.SellerID {
		offer, err := s.createCustomOffer(chat, proposal)
		if err != nil {
			return nil, err
		}
		proposal.Status = models.ProposalSellerProposed
		proposal.CustomOfferID = offer.ID
	}

	message := &models.Message{
		ID:       uuid.New().String(),
		ChatID:   chat.ID,
		SenderID: userID,
		Kind:     models.MessageKindProposal,
		Proposal: proposal,
	}
	if err := s.chatRepo.AppendMessage(message); err != nil {
		return nil, fmt.Errorf("failed to submit proposal: %w", err)
	}
	return message, nil
}

// AcceptProposal accepts an open proposal. Only the counterparty of whoever
// proposed may accept: a buyer's pending proposal needs the seller, a
// seller's proposal needs the buyer. Accepting a buyer proposal creates the
// custom Offer at that moment; a seller proposal already has one.
func (s *ChatService) AcceptProposal(userID, chatID, messageID string) (*models.Message, error) {
	chat, message, err := s.openProposal(userID, chatID, messageID)
	if err != nil {
		return nil, err
	}

	proposal := *message.Proposal
	switch proposal.Status {
	case models.ProposalPending:
		if userID != chat.SellerID {
			return nil, &ValidationError{Reason: "only the seller can accept this proposal"}
		}
		offer, err := s.createCustomOffer(chat, &proposal)
		if err != nil {
			return nil, err
		}
		proposal.CustomOfferID = offer.ID
	case models.ProposalSellerProposed:
		if userID != chat.BuyerID {
			return nil, &ValidationError{Reason: "only the buyer can accept this proposal"}
		}
	}
	proposal.Status = models.ProposalAccepted

	if err := s.chatRepo.UpdateProposal(message.ID, &proposal); err != nil {
		return nil, fmt.Errorf("failed to accept proposal: %w", err)
	}
	message.Proposal = &proposal
	return message, nil
}

// RejectProposal closes an open proposal. Either participant may reject.
func (s *ChatService) RejectProposal(userID, chatID, messageID string) (*models.Message, error) {
	_, message, err := s.openProposal(userID, chatID, messageID)
	if err != nil {
		return nil, err
	}

	proposal := *message.Proposal
	proposal.Status = models.ProposalRejected
	if err := s.chatRepo.UpdateProposal(message.ID, &proposal); err != nil {
		return nil, fmt.Errorf("failed to reject proposal: %w", err)
	}
	message.Proposal = &proposal
	return message, nil
}

// participantChat loads the chat and checks userID is one of its two
// participants.
func (s *ChatService) participantChat(userID, chatID string) (*models.Chat, error) {
	chat, err := s.chatRepo.GetByID(chatID)
	if err != nil {
		return nil, err
	}
	if userID != chat.BuyerID && userID != chat.SellerID {
		return nil, fmt.Errorf("chat with ID %s not found", chatID)
	}
	return chat, nil
}

// openProposal loads a proposal message still open for a decision.
func (s *ChatService) openProposal(userID, chatID, messageID string) (*models.Chat, *models.Message, error) {
	chat, err := s.participantChat(userID, chatID)
	if err != nil {
		return nil, nil, err
	}
	message, err := s.chatRepo.GetMessage(messageID)
	if err != nil {
		return nil, nil, err
	}
	if message.ChatID != chat.ID || message.Kind != models.MessageKindProposal || message.Proposal == nil {
		return nil, nil, &ValidationError{Reason: "message is not a proposal in this chat"}
	}
	switch message.Proposal.Status {
	case models.ProposalAccepted, models.ProposalRejected:
		return nil, nil, &ValidationError{Reason: "proposal is already " + message.Proposal.Status}
	}
	return chat, message, nil
}

// createCustomOffer materializes the negotiated terms as a private Offer:
// hidden from listings, stocked with exactly the negotiated quantity, and
// pointing back at the listing the negotiation started from.
func (s *ChatService) createCustomOffer(chat *models.Chat, proposal *models.Proposal) (*models.Offer, error) {
	title := "Custom Order"
	parent, err := s.offerRepo.GetByID(chat.OfferID)
	if err != nil {
		// The parent listing may have been deleted mid-negotiation; the custom
		// offer still works with the generic title.
		log.Printf("Warning: parent offer %s not found for custom offer: %v", chat.OfferID, err)
	} else {
		title = "Custom Order: " + parent.Title
		if len(title) > customOfferTitleLimit {
			title = title[:customOfferTitleLimit]
		}
	}

	offer := &models.Offer{
		ID:            uuid.New().String(),
		SellerID:      chat.SellerID,
		Title:         title,
		Description:   "Custom order negotiated via chat.",
		Price:         proposal.Price,
		Stock:         proposal.Quantity,
		Material:      proposal.Material,
		Color:         proposal.Color,
		IsCustom:      true,
		ParentOfferID: chat.OfferID,
	}
	if err := s.offerRepo.Create(offer); err != nil {
		return nil, fmt.Errorf("failed to create custom offer: %w", err)
	}
	return offer, nil
}
