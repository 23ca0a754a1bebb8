// Package channel holds the per-channel delivery senders and the outcome
// model the dispatcher aggregates.
package channel

import (
	"time"

	"github.com/balkirat0001/eventcraft2/internal/intent"
)

// Channel is a delivery mechanism with its own provider and failure mode.
type Channel string

const (
	Email Channel = "email"
	SMS   Channel = "sms"
)

// Status is the result class of one delivery attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of attempting one channel for one intent. Detail
// carries the provider message id on success and a human-readable reason
// otherwise.
type Outcome struct {
	Channel Channel `json:"channel"`
	Status  Status  `json:"status"`
	Detail  string  `json:"detail,omitempty"`
}

// Sent builds a success outcome carrying the provider message id.
func Sent(ch Channel, messageID string) Outcome {
	return Outcome{Channel: ch, Status: StatusSent, Detail: messageID}
}

// Skipped builds an outcome for a channel that was not attempted.
func Skipped(ch Channel, reason string) Outcome {
	return Outcome{Channel: ch, Status: StatusSkipped, Detail: reason}
}

// Failed builds an outcome for a provider error. Errors never propagate past
// the sender boundary; they are folded into the outcome detail.
func Failed(ch Channel, err error) Outcome {
	return Outcome{Channel: ch, Status: StatusFailed, Detail: err.Error()}
}

// DispatchResult aggregates the outcomes of all channels attempted for one
// intent, ordered by channel. A failed channel never fails the dispatch.
type DispatchResult struct {
	IntentID  string      `json:"intent_id"`
	Kind      intent.Kind `json:"kind"`
	Recipient string      `json:"recipient"`
	Outcomes  []Outcome   `json:"outcomes"`
	At        time.Time   `json:"at"`
}

// Delivered reports whether at least one channel accepted the message.
func (r DispatchResult) Delivered() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusSent {
			return true
		}
	}
	return false
}
