package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"printsi/internal/models"
	"printsi/internal/repositories"
	"printsi/pkg/payments"
)

// WebhookService reconciles provider payment confirmations into settled
// orders. The provider retries webhook delivery, so every step is idempotent:
// the session id is the settlement's payment reference and a duplicate event
// for an already-settled session is acknowledged without writing anything.
type WebhookService struct {
	orderRepo        repositories.OrderRepository
	notificationRepo repositories.NotificationRepository
	gateway          payments.Gateway
	fanout           *FanoutService
	gatewayTimeout   time.Duration
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(orderRepo repositories.OrderRepository, notificationRepo repositories.NotificationRepository, gateway payments.Gateway, fanout *FanoutService) *WebhookService {
	return &WebhookService{
		orderRepo:        orderRepo,
		notificationRepo: notificationRepo,
		gateway:          gateway,
		fanout:           fanout,
		gatewayTimeout:   defaultGatewayTimeout,
	}
}

// HandleEvent verifies and processes one raw webhook delivery. Signature
// failures surface as payments.ErrInvalidSignature so the handler can reject
// with a 4xx; other errors mean the event should be redelivered.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.gateway.VerifyEvent(payload, signatureHeader)
	if err != nil {
		return err
	}

	if event.Type != payments.EventCheckoutCompleted {
		log.Printf("Ignoring webhook event of type %s", event.Type)
		return nil
	}
	if event.Session == nil {
		return fmt.Errorf("completed checkout event carries no session")
	}
	return s.settleSession(ctx, event.Session)
}

// settleSession turns one confirmed provider session into a settled order.
func (s *WebhookService) settleSession(ctx context.Context, session *payments.CompletedSession) error {
	if session.BuyerID == "" {
		// Sessions not created by our checkout path carry no buyer metadata.
		// Nothing to settle, and redelivery would not help.
		log.Printf("Warning: completed session %s has no buyer id, skipping settlement", session.ID)
		return nil
	}

	// Idempotency probe: the session id is the payment reference, enforced
	// unique at the store. A hit means a previous delivery already settled.
	existing, err := s.orderRepo.GetByPaymentReference(session.ID)
	if err != nil {
		return fmt.Errorf("failed to probe settlement for session %s: %w", session.ID, err)
	}
	if existing != nil {
		log.Printf("Session %s already settled as order %s", session.ID, existing.ID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	lines, err := s.gateway.ListLineItems(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list line items for session %s: %w", session.ID, err)
	}

	order := &models.Order{
		BuyerID:          session.BuyerID,
		TotalAmount:      session.AmountTotal,
		Status:           models.StatusPaid,
		PaymentReference: session.ID,
	}
	var settled []SettledLine
	for _, line := range lines {
		if line.OfferID == "" {
			// The shipping line carries no offer metadata. Any other
			// metadata-less line cannot be attributed to a seller, so it is
			// priced into the total but not settled per seller.
			if line.Name == "Shipping" {
				order.ShippingCost = line.UnitAmount * float64(line.Quantity)
			} else {
				log.Printf("Warning: line %q in session %s has no offer metadata, skipping", line.Name, session.ID)
			}
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			OfferID:         line.OfferID,
			BuyerID:         session.BuyerID,
			SellerID:        line.SellerID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.UnitAmount,
		})
		settled = append(settled, SettledLine{
			OfferID:         line.OfferID,
			OfferTitle:      line.Name,
			BuyerID:         session.BuyerID,
			SellerID:        line.SellerID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.UnitAmount,
		})
	}
	if session.Shipping != nil {
		order.ShippingDetail = &models.ShippingDetail{
			FullName: session.Shipping.Name,
			Email:    session.Shipping.Email,
			Address:  session.Shipping.Address,
			City:     session.Shipping.City,
			ZipCode:  session.Shipping.ZipCode,
			Country:  session.Shipping.Country,
		}
	}

	// The card payment already cleared at the provider, so the settlement
	// never checks the internal balance.
	if err := s.orderRepo.CreateSettlement(order, false); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSettlement) {
			// A concurrent delivery won the insert race. Same outcome.
			log.Printf("Session %s settled concurrently, acknowledging", session.ID)
			return nil
		}
		return fmt.Errorf("failed to settle session %s: %w", session.ID, err)
	}

	s.notifyBuyer(order, session)

	for i := range settled {
		settled[i].OrderID = order.ID
		s.fanout.ProcessLine(settled[i])
	}
	s.fanout.AnnounceSettlement(order)

	return nil
}

// notifyBuyer confirms the payment to the buyer in the currency the provider
// actually charged, which may differ from the base currency.
func (s *WebhookService) notifyBuyer(order *models.Order, session *payments.CompletedSession) {
	currency := strings.ToUpper(session.Currency)
	if currency == "" {
		currency = "EUR"
	}
	notification := &models.Notification{
		UserID:  order.BuyerID,
		Title:   "Payment confirmed",
		Message: fmt.Sprintf("Your payment of %.2f %s was received. Order %s is confirmed.", session.AmountTotal, currency, order.ID),
		Type:    models.NotificationTypePurchase,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		log.Printf("Warning: failed to notify buyer %s about order %s: %v", order.BuyerID, order.ID, err)
	}
}
