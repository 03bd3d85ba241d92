package chat

import (
	"time"

	"github.com/google/uuid"

	"vendor-chat/internal/errs"
)

// PartyType is the closed set of conversation sides. Every stored message
// has exactly one Vendor leg and one Agent leg.
type PartyType string

const (
	PartyVendor PartyType = "Vendor"
	PartyAgent  PartyType = "Agent"
)

func (p PartyType) Valid() bool {
	return p == PartyVendor || p == PartyAgent
}

// Counterpart returns the other side of the pair.
func (p PartyType) Counterpart() PartyType {
	if p == PartyVendor {
		return PartyAgent
	}
	return PartyVendor
}

// Message is one durable chat record. Immutable once stored.
type Message struct {
	ID           uuid.UUID `json:"id"`
	Sender       string    `json:"sender"`
	SenderType   PartyType `json:"senderType"`
	Receiver     string    `json:"receiver"`
	ReceiverType PartyType `json:"receiverType"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`

	// Seq is the store-assigned insertion sequence. It only exists to keep
	// ordering stable when two messages land on the same timestamp.
	Seq int64 `json:"-"`
}

// NewMessage is what a client hands us: no id, no timestamp. We assign those.
type NewMessage struct {
	Sender       string    `json:"sender"`
	SenderType   PartyType `json:"senderType"`
	Receiver     string    `json:"receiver"`
	ReceiverType PartyType `json:"receiverType"`
	Text         string    `json:"text"`
}

// Validate rejects a message before it touches the store.
func (m *NewMessage) Validate() error {
	if m.Sender == "" {
		return errs.Validation("sender", "required")
	}
	if m.Receiver == "" {
		return errs.Validation("receiver", "required")
	}
	if !m.SenderType.Valid() {
		return errs.Validation("senderType", "must be Vendor or Agent")
	}
	if !m.ReceiverType.Valid() {
		return errs.Validation("receiverType", "must be Vendor or Agent")
	}
	if m.SenderType == m.ReceiverType {
		return errs.Validation("receiverType", "conversation must pair a Vendor with an Agent")
	}
	if m.Text == "" {
		return errs.Validation("text", "required")
	}
	return nil
}
