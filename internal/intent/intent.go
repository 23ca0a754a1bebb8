// Package intent defines the channel-agnostic notification unit handed to the
// dispatcher, plus the per-kind message templates.
package intent

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the occurrence a notification describes.
type Kind string

const (
	RegistrationConfirmed Kind = "registration_confirmed"
	ReminderDue           Kind = "reminder_due"
	ApprovalDecision      Kind = "approval_decision"
	CheckInConfirmed      Kind = "checkin_confirmed"
	TicketPurchased       Kind = "ticket_purchased"
)

// Known returns true when k is one of the defined notification kinds.
func Known(k Kind) bool {
	switch k {
	case RegistrationConfirmed, ReminderDue, ApprovalDecision, CheckInConfirmed, TicketPurchased:
		return true
	}
	return false
}

// Recipient is the person a notification is addressed to. Email and Phone are
// optional; a missing address skips the corresponding channel.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Context is the kind-specific attribute bag of an intent. It is treated as
// immutable once the intent is constructed.
type Context map[string]string

// Placeholder is rendered for context fields the triggering collaborator did
// not supply, so templates never fail on missing data.
const Placeholder = "TBD"

// Field returns the value for key, or Placeholder when absent or empty.
func (c Context) Field(key string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return Placeholder
}

// Intent is a fully self-contained notification request. Channel senders never
// reach back into a data store to enrich it.
type Intent struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Recipient Recipient `json:"recipient"`
	Context   Context   `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New constructs an intent at the moment of the triggering occurrence.
func New(kind Kind, rcpt Recipient, ctx Context) Intent {
	return Intent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Recipient: rcpt,
		Context:   ctx,
		CreatedAt: time.Now().UTC(),
	}
}
