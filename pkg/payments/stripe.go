package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway on Stripe Checkout hosted sessions.
type StripeGateway struct {
	webhookSecret string
	appURL        string
}

// NewStripeGateway creates a new StripeGateway. The secret key is installed
// globally for the stripe-go client; the webhook secret stays local because
// it is only used for signature verification.
func NewStripeGateway(secretKey, webhookSecret, appURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		appURL:        strings.TrimRight(appURL, "/"),
	}
}

// CreateSession creates a hosted checkout session. Offer and seller ids are
// attached as product metadata per line so the webhook can resolve each
// settled line back to a listing.
func (g *StripeGateway) CreateSession(ctx context.Context, input SessionInput) (*Session, error) {
	currency := strings.ToLower(input.Currency)
	if currency == "" {
		currency = "eur"
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Lines))
	for _, line := range input.Lines {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(line.Name),
		}
		if line.OfferID != "" {
			productData.Metadata = map[string]string{
				"offer_id":  line.OfferID,
				"seller_id": line.SellerID,
			}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(int64(math.Round(line.UnitAmount * 100))),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(g.appURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.appURL + "/cart"),
	}
	params.Context = ctx
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}
	params.AddMetadata("buyer_id", input.BuyerID)
	if input.CartSummary != "" {
		params.AddMetadata("items", input.CartSummary)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// VerifyEvent verifies the webhook signature and parses the event payload.
func (g *StripeGateway) VerifyEvent(payload []byte, signatureHeader string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{Type: string(event.Type)}
	if out.Type == EventCheckoutCompleted {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session from event: %w", err)
		}
		out.Session = completedSessionFrom(&s)
	}
	return out, nil
}

// ListLineItems re-fetches the session's line items with product metadata
// expanded.
func (g *StripeGateway) ListLineItems(ctx context.Context, sessionID string) ([]SettledLine, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var lines []SettledLine
	iter := session.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		line := SettledLine{
			Name:     li.Description,
			Quantity: int(li.Quantity),
		}
		if li.Quantity > 0 {
			line.UnitAmount = float64(li.AmountTotal) / 100 / float64(li.Quantity)
		}
		if li.Price != nil && li.Price.Product != nil {
			line.OfferID = li.Price.Product.Metadata["offer_id"]
			line.SellerID = li.Price.Product.Metadata["seller_id"]
		}
		lines = append(lines, line)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list line items for session %s: %w", sessionID, err)
	}
	return lines, nil
}

// completedSessionFrom maps a Stripe checkout session to the neutral
// settlement view. Shipping details win over customer details when both are
// present; either is acceptable as the address snapshot.
func completedSessionFrom(s *stripe.CheckoutSession) *CompletedSession {
	cs := &CompletedSession{
		ID:          s.ID,
		AmountTotal: float64(s.AmountTotal) / 100,
		Currency:    strings.ToUpper(string(s.Currency)),
	}
	if s.Metadata != nil {
		cs.BuyerID = s.Metadata["buyer_id"]
	}

	var name, email string
	var addr *stripe.Address
	if s.ShippingDetails != nil {
		name = s.ShippingDetails.Name
		addr = s.ShippingDetails.Address
	}
	if s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
		if name == "" {
			name = s.CustomerDetails.Name
		}
		if addr == nil {
			addr = s.CustomerDetails.Address
		}
	}
	if name != "" || email != "" || addr != nil {
		info := &ShippingInfo{Name: name, Email: email}
		if addr != nil {
			info.Address = strings.TrimSpace(addr.Line1 + " " + addr.Line2)
			info.City = addr.City
			info.ZipCode = addr.PostalCode
			info.Country = addr.Country
		}
		cs.Shipping = info
	}
	return cs
}
