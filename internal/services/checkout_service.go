package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"printsi/internal/models"
	"printsi/internal/repositories"
	"printsi/pkg/payments"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// cartSummaryLimit caps the JSON cart digest stored in provider session
// metadata; the provider truncates metadata values beyond 500 characters.
const cartSummaryLimit = 500

// defaultGatewayTimeout bounds synchronous payment provider calls. A timeout
// surfaces as a retryable UpstreamError, never a silent hang.
const defaultGatewayTimeout = 15 * time.Second

// CheckoutItem is one client-submitted cart line. UnitPrice is what the
// client remembers paying per unit; it is echoed back in responses but never
// used for settlement math — the offer row is the only price authority.
type CheckoutItem struct {
	OfferID   string  `json:"offer_id" validate:"required"`
	SellerID  string  `json:"seller_id"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// ShippingAddress is the buyer-entered delivery address snapshot.
type ShippingAddress struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

// CheckoutRequest is the input of both payment paths.
type CheckoutRequest struct {
	Items           []CheckoutItem   `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
	ShippingCost    float64          `json:"shipping_cost" validate:"gte=0"`
}

// CheckoutResult is the outcome of a balance-path checkout.
type CheckoutResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
}

// CardCheckoutResult is the outcome of a card-path checkout: no order yet,
// just the hosted session the buyer must complete.
type CardCheckoutResult struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutService orchestrates both purchase paths. The balance path settles
// immediately against the buyer's derived balance; the card path only opens a
// hosted provider session and leaves settlement to the webhook reconciler.
type CheckoutService struct {
	orderRepo      repositories.OrderRepository
	offerRepo      repositories.OfferRepository
	userRepo       repositories.UserRepository
	fanout         *FanoutService
	gateway        payments.Gateway
	validate       *validator.Validate
	gatewayTimeout time.Duration
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(orderRepo repositories.OrderRepository, offerRepo repositories.OfferRepository, userRepo repositories.UserRepository, fanout *FanoutService, gateway payments.Gateway) *CheckoutService {
	return &CheckoutService{
		orderRepo:      orderRepo,
		offerRepo:      offerRepo,
		userRepo:       userRepo,
		fanout:         fanout,
		gateway:        gateway,
		validate:       validator.New(),
		gatewayTimeout: defaultGatewayTimeout,
	}
}

// pricedLine is a cart line after re-pricing against the offer store.
type pricedLine struct {
	offer    *models.Offer
	quantity int
}

// priceCart validates the request and re-reads every offer from the store of
// record. The client's cart is treated as a proposed command: quantities are
// taken from it, prices and seller ids always come from the Offer rows.
func (s *CheckoutService) priceCart(buyerID string, req *CheckoutRequest) ([]pricedLine, float64, error) {
	if buyerID == "" {
		return nil, 0, &ValidationError{Reason: "buyer id is required"}
	}
	if req == nil || len(req.Items) == 0 {
		return nil, 0, &ValidationError{Reason: "cart is empty"}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, &ValidationError{Reason: err.Error()}
	}

	lines := make([]pricedLine, 0, len(req.Items))
	var itemsTotal float64
	for _, item := range req.Items {
		offer, err := s.offerRepo.GetByID(item.OfferID)
		if err != nil {
			return nil, 0, fmt.Errorf("cannot checkout offer %s: %w", item.OfferID, err)
		}
		if offer.Stock < item.Quantity {
			return nil, 0, fmt.Errorf("insufficient stock for %q (requested: %d, available: %d)", offer.Title, item.Quantity, offer.Stock)
		}
		lines = append(lines, pricedLine{offer: offer, quantity: item.Quantity})
		itemsTotal += offer.Price * float64(item.Quantity)
	}
	return lines, itemsTotal, nil
}

// BalanceCheckout authorizes the purchase against the buyer's derived balance
// and settles it in one transaction: the balance is re-derived inside the
// settlement write, so a concurrent checkout by the same buyer cannot spend
// the same funds twice. Fanout runs only after the settlement committed.
func (s *CheckoutService) BalanceCheckout(buyerID string, req *CheckoutRequest) (*CheckoutResult, error) {
	lines, itemsTotal, err := s.priceCart(buyerID, req)
	if err != nil {
		return nil, err
	}
	total := itemsTotal + req.ShippingCost

	order := &models.Order{
		ID:               uuid.New().String(),
		BuyerID:          buyerID,
		TotalAmount:      total,
		ShippingCost:     req.ShippingCost,
		Status:           models.StatusPaid,
		PaymentReference: "balance_" + uuid.New().String(),
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			OfferID:         line.offer.ID,
			BuyerID:         buyerID,
			SellerID:        line.offer.SellerID,
			Quantity:        line.quantity,
			PriceAtPurchase: line.offer.Price,
		})
	}
	if req.ShippingAddress != nil {
		order.ShippingDetail = &models.ShippingDetail{
			FullName: req.ShippingAddress.FullName,
			Email:    req.ShippingAddress.Email,
			Address:  req.ShippingAddress.Address,
			City:     req.ShippingAddress.City,
			ZipCode:  req.ShippingAddress.ZipCode,
			Country:  req.ShippingAddress.Country,
		}
	}

	if err := s.orderRepo.CreateSettlement(order, true); err != nil {
		var balanceErr *repositories.InsufficientBalanceError
		if errors.As(err, &balanceErr) {
			return nil, balanceErr
		}
		return nil, fmt.Errorf("failed to settle balance checkout: %w", err)
	}

	for _, line := range lines {
		s.fanout.ProcessLine(SettledLine{
			OrderID:         order.ID,
			OfferID:         line.offer.ID,
			OfferTitle:      line.offer.Title,
			BuyerID:         buyerID,
			SellerID:        line.offer.SellerID,
			Quantity:        line.quantity,
			PriceAtPurchase: line.offer.Price,
		})
	}
	s.fanout.AnnounceSettlement(order)

	return &CheckoutResult{Success: true, OrderID: order.ID}, nil
}

// CardCheckout opens a hosted payment session for the re-priced cart and
// returns its redirect URL. Nothing is written locally: settlement happens
// when the provider confirms payment through the webhook. Offer and seller
// ids are embedded as per-line metadata so the reconciler can resolve each
// settled line; shipping rides as its own line when non-zero.
func (s *CheckoutService) CardCheckout(ctx context.Context, buyerID string, req *CheckoutRequest) (*CardCheckoutResult, error) {
	lines, _, err := s.priceCart(buyerID, req)
	if err != nil {
		return nil, err
	}

	buyer, err := s.userRepo.GetByID(buyerID)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown buyer %s", buyerID)}
	}

	input := payments.SessionInput{
		BuyerID:       buyerID,
		CustomerEmail: buyer.Email,
		Currency:      "EUR",
		CartSummary:   cartSummary(lines),
	}
	for _, line := range lines {
		input.Lines = append(input.Lines, payments.LineItem{
			Name:       line.offer.Title,
			UnitAmount: line.offer.Price,
			Quantity:   line.quantity,
			OfferID:    line.offer.ID,
			SellerID:   line.offer.SellerID,
		})
	}
	if req.ShippingCost > 0 {
		input.Lines = append(input.Lines, payments.LineItem{
			Name:       "Shipping",
			UnitAmount: req.ShippingCost,
			Quantity:   1,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	session, err := s.gateway.CreateSession(ctx, input)
	if err != nil {
		return nil, &UpstreamError{Op: "create session", Err: err, Retryable: true}
	}
	return &CardCheckoutResult{Success: true, RedirectURL: session.URL}, nil
}

// GetOrder retrieves a buyer's order. Buyers can only read their own orders.
func (s *CheckoutService) GetOrder(buyerID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("order with ID %s not found", orderID)
	}
	return order, nil
}

// GetOrders retrieves all of a buyer's orders.
func (s *CheckoutService) GetOrders(buyerID string) ([]models.Order, error) {
	return s.orderRepo.GetByBuyer(buyerID)
}

// AdvanceOrderStatus moves an order forward in its lifecycle. Backwards
// transitions are rejected by the repository.
func (s *CheckoutService) AdvanceOrderStatus(orderID, status string) error {
	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}
	return nil
}

// cartSummary builds the size-capped JSON digest of the cart stored in
// session metadata.
func cartSummary(lines []pricedLine) string {
	type summaryLine struct {
		ID       string  `json:"id"`
		SellerID string  `json:"seller_id"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}
	summary := make([]summaryLine, 0, len(lines))
	for _, line := range lines {
		summary = append(summary, summaryLine{
			ID:       line.offer.ID,
			SellerID: line.offer.SellerID,
			Quantity: line.quantity,
			Price:    line.offer.Price,
		})
	}
	encoded, err := json.Marshal(summary)
	if err != nil {
		return ""
	}
	if len(encoded) > cartSummaryLimit {
		return string(encoded[:cartSummaryLimit])
	}
	return string(encoded)
}
