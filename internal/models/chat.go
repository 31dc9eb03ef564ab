package models

import "time"

// Chat is a buyer/seller conversation about one offer. The (buyer, seller,
// offer) triple is unique, so repeat purchases of the same offer reuse the
// same thread. OrderID links the chat to the order that first seeded it.
type Chat struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID   string    `json:"buyer_id" gorm:"uniqueIndex:idx_chat_triple;type:varchar(36)"`
	SellerID  string    `json:"seller_id" gorm:"uniqueIndex:idx_chat_triple;type:varchar(36)"`
	OfferID   string    `json:"offer_id" gorm:"uniqueIndex:idx_chat_triple;type:varchar(36)"`
	OrderID   string    `json:"order_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message kinds. A proposal message carries a Proposal payload instead of
// free text.
const (
	MessageKindText     = "text"
	MessageKindProposal = "proposal"
)

// Proposal statuses. Accepted and rejected are terminal.
const (
	ProposalPending        = "pending"
	ProposalSellerProposed = "seller_proposed"
	ProposalAccepted       = "accepted"
	ProposalRejected       = "rejected"
)

// Proposal is a negotiated price/quantity/specification offer exchanged
// through a chat. It is stored as a typed embedded record on the message
// rather than a tagged prefix in the body, so no text parsing happens at
// read time. CustomOfferID points at the private Offer created for the
// negotiation once one exists.
type Proposal struct {
	Price         float64 `json:"price" validate:"required,gt=0"`
	Quantity      int     `json:"quantity" validate:"required,gte=1"`
	Material      string  `json:"material"`
	Color         string  `json:"color"`
	Status        string  `json:"status"`
	CustomOfferID string  `json:"custom_offer_id,omitempty" gorm:"type:varchar(36)"`
}

// Message is an ordered, append-only chat entry.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ChatID    string    `json:"chat_id" gorm:"index;type:varchar(36)"`
	SenderID  string    `json:"sender_id" gorm:"type:varchar(36)"`
	Kind      string    `json:"kind" gorm:"type:varchar(16)"`
	Body      string    `json:"body"`
	Proposal  *Proposal `json:"proposal,omitempty" gorm:"embedded;embeddedPrefix:proposal_"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
