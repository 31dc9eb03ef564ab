package services

import (
	"fmt"
	"log"

	"printsi/internal/models"
	"printsi/internal/repositories"
	"printsi/pkg/rabbitmq"
)

// SettledLine is one committed order line handed to the fanout. It carries
// everything the secondary writes need so they never have to re-read the
// order.
type SettledLine struct {
	OrderID         string
	OfferID         string
	OfferTitle      string
	BuyerID         string
	SellerID        string
	Quantity        int
	PriceAtPurchase float64
}

// FanoutService performs the best-effort secondary writes of a settlement:
// stock decrement, seller notification and conversation seeding. Every step
// is independent; a failure is logged and never rolls back the order that
// already committed, because the settlement's financial correctness does not
// depend on any of this succeeding.
type FanoutService struct {
	offerRepo        repositories.OfferRepository
	notificationRepo repositories.NotificationRepository
	chatRepo         repositories.ChatRepository
	mqClient         *rabbitmq.Client
}

// NewFanoutService creates a new FanoutService. mqClient may be nil; event
// publication is then skipped.
func NewFanoutService(offerRepo repositories.OfferRepository, notificationRepo repositories.NotificationRepository, chatRepo repositories.ChatRepository, mqClient *rabbitmq.Client) *FanoutService {
	return &FanoutService{
		offerRepo:        offerRepo,
		notificationRepo: notificationRepo,
		chatRepo:         chatRepo,
		mqClient:         mqClient,
	}
}

// ProcessLine runs the per-line side effects for one settled order line.
func (s *FanoutService) ProcessLine(line SettledLine) {
	// The decrement is a single compare-and-subtract in the store; a failure
	// here means a concurrent settlement took the last units first.
	if err := s.offerRepo.DecrementStock(line.OfferID, line.Quantity); err != nil {
		log.Printf("Warning: failed to decrement stock for offer %s (order %s): %v", line.OfferID, line.OrderID, err)
	}

	saleAmount := line.PriceAtPurchase * float64(line.Quantity)
	notification := &models.Notification{
		UserID:  line.SellerID,
		Title:   "You made a sale!",
		Message: fmt.Sprintf("%q sold x%d for %.2f EUR.", line.OfferTitle, line.Quantity, saleAmount),
		Type:    models.NotificationTypeSale,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		log.Printf("Warning: failed to notify seller %s about order %s: %v", line.SellerID, line.OrderID, err)
	}

	s.seedConversation(line)
}

// seedConversation finds or creates the buyer/seller thread for the offer and
// posts the purchase note plus the seller's automated acknowledgement.
func (s *FanoutService) seedConversation(line SettledLine) {
	chat, created, err := s.chatRepo.FindOrCreate(line.BuyerID, line.SellerID, line.OfferID)
	if err != nil {
		log.Printf("Warning: failed to find or create chat for order %s: %v", line.OrderID, err)
		return
	}
	if created {
		if err := s.chatRepo.LinkOrder(chat.ID, line.OrderID); err != nil {
			log.Printf("Warning: failed to link order %s to chat %s: %v", line.OrderID, chat.ID, err)
		}
	}

	purchaseNote := &models.Message{
		ChatID:   chat.ID,
		SenderID: line.BuyerID,
		Kind:     models.MessageKindText,
		Body:     fmt.Sprintf("Hi! I just purchased %q (x%d).", line.OfferTitle, line.Quantity),
	}
	if err := s.chatRepo.AppendMessage(purchaseNote); err != nil {
		log.Printf("Warning: failed to seed purchase note in chat %s: %v", chat.ID, err)
	}

	acknowledgement := &models.Message{
		ChatID:   chat.ID,
		SenderID: line.SellerID,
		Kind:     models.MessageKindText,
		Body:     "Thanks for your order! I'll start preparing it and keep you posted here.",
	}
	if err := s.chatRepo.AppendMessage(acknowledgement); err != nil {
		log.Printf("Warning: failed to seed acknowledgement in chat %s: %v", chat.ID, err)
	}
}

// AnnounceSettlement publishes a settlement.completed event for downstream
// consumers (email, analytics). Best-effort like the rest of the fanout.
func (s *FanoutService) AnnounceSettlement(order *models.Order) {
	if s.mqClient == nil {
		log.Println("RabbitMQ client is not initialized. Skipping settlement event publication.")
		return
	}

	event := map[string]interface{}{
		"orderID": order.ID,
		"buyerID": order.BuyerID,
		"status":  order.Status,
		"total":   order.TotalAmount,
	}
	if err := s.mqClient.PublishSettlementCompleted(event); err != nil {
		log.Printf("Warning: failed to publish settlement event for order %s: %v", order.ID, err)
	} else {
		log.Printf("Successfully published settlement event for order %s", order.ID)
	}
}
