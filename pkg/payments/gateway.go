package payments

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the provider event type confirming a payment.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification. No event data is exposed in that case.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// LineItem is one provider-facing line of a checkout session. OfferID and
// SellerID ride along as opaque product metadata the provider echoes back on
// settlement; a shipping line carries no offer metadata.
type LineItem struct {
	Name       string
	UnitAmount float64 // Per unit, base currency (EUR)
	Quantity   int
	OfferID    string
	SellerID   string
}

// SessionInput describes the hosted checkout session to create.
type SessionInput struct {
	BuyerID       string
	CustomerEmail string
	Currency      string
	Lines         []LineItem
	// CartSummary is a size-capped JSON digest of the cart stored in session
	// metadata, kept for reconciliation and support tooling.
	CartSummary string
}

// Session is a created hosted session the buyer gets redirected to.
type Session struct {
	ID  string
	URL string
}

// ShippingInfo mirrors the provider-reported shipping or customer details.
type ShippingInfo struct {
	Name    string
	Email   string
	Address string
	City    string
	ZipCode string
	Country string
}

// CompletedSession is the settlement-relevant view of a confirmed payment.
type CompletedSession struct {
	ID          string
	BuyerID     string  // From session metadata; empty when absent
	AmountTotal float64 // Provider-reported, in Currency units
	Currency    string  // ISO code as reported by the provider
	Shipping    *ShippingInfo
}

// Event is a provider webhook event after signature verification.
type Event struct {
	Type    string
	Session *CompletedSession // Set for checkout completion events
}

// SettledLine is one line item re-fetched from the provider after settlement.
// Lines without an OfferID (the shipping line) are not purchasable units.
type SettledLine struct {
	Name       string
	OfferID    string
	SellerID   string
	Quantity   int
	UnitAmount float64
}

// Gateway is the payment provider contract consumed by the checkout
// orchestrator and the webhook reconciler. All calls that reach the provider
// take a context so callers can bound them with a timeout.
type Gateway interface {
	// CreateSession creates a hosted payment session and returns its
	// redirect URL. Nothing is persisted locally until the provider confirms
	// payment through a webhook.
	CreateSession(ctx context.Context, input SessionInput) (*Session, error)
	// VerifyEvent checks the webhook signature against the shared secret and
	// parses the event. A mismatch fails with ErrInvalidSignature and no
	// event data is returned.
	VerifyEvent(payload []byte, signatureHeader string) (*Event, error)
	// ListLineItems re-fetches the full, metadata-expanded line-item list of
	// a session. The initial event payload omits expanded product metadata,
	// so settlement always goes through this call.
	ListLineItems(ctx context.Context, sessionID string) ([]SettledLine, error)
}
