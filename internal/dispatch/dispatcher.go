// Package dispatch routes a notification intent to every channel the
// recipient is reachable on and aggregates the per-channel outcomes.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/intent"
	"github.com/balkirat0001/eventcraft2/internal/logging"
	"github.com/balkirat0001/eventcraft2/internal/metrics"
)

// EmailSender is the email channel boundary.
type EmailSender interface {
	Send(ctx context.Context, msg channel.EmailMessage) channel.Outcome
}

// SMSSender is the short-message channel boundary.
type SMSSender interface {
	Send(ctx context.Context, to, body string) channel.Outcome
}

// History records dispatch results for later inspection.
type History interface {
	Record(ctx context.Context, result channel.DispatchResult)
}

// Broadcaster pushes server-originated events to connected sessions.
type Broadcaster interface {
	Publish(topic, event string, payload any) []string
}

const resultEvent = "dispatch-result"

// TopicFor returns the recipient-scoped hub topic dispatch summaries are
// published to.
func TopicFor(r intent.Recipient) string {
	key := r.Email
	if key == "" {
		key = r.Name
	}
	return "notifications:" + key
}

// Dispatcher attempts delivery of one intent over email and SMS
// independently. A nil sender marks its channel as unconfigured; the
// corresponding outcome is Skipped, never an error.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	history History
	hub     Broadcaster
	// sem bounds in-flight provider calls across all concurrent dispatches.
	sem chan struct{}
}

// Option configures optional dispatcher collaborators.
type Option func(*Dispatcher)

// WithHistory records every dispatch result into h.
func WithHistory(h History) Option {
	return func(d *Dispatcher) { d.history = h }
}

// WithBroadcaster publishes a summary of every dispatch result to the
// recipient-scoped hub topic.
func WithBroadcaster(b Broadcaster) Option {
	return func(d *Dispatcher) { d.hub = b }
}

// New constructs a dispatcher. maxConcurrentSends bounds provider calls
// in flight at once; values below one fall back to one.
func New(email EmailSender, sms SMSSender, maxConcurrentSends int, opts ...Option) *Dispatcher {
	if maxConcurrentSends < 1 {
		maxConcurrentSends = 1
	}
	d := &Dispatcher{
		email: email,
		sms:   sms,
		sem:   make(chan struct{}, maxConcurrentSends),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch attempts both channels for the intent concurrently and waits for
// every attempted channel before returning. One channel's latency or failure
// never delays or blocks the other's attempt, and a partial failure is not an
// error: the caller always receives a result ordered [email, sms].
func (d *Dispatcher) Dispatch(ctx context.Context, it intent.Intent) channel.DispatchResult {
	start := time.Now()
	outcomes := make([]channel.Outcome, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcomes[0] = d.attemptEmail(ctx, it)
	}()
	go func() {
		defer wg.Done()
		outcomes[1] = d.attemptSMS(ctx, it)
	}()
	wg.Wait()

	result := channel.DispatchResult{
		IntentID:  it.ID,
		Kind:      it.Kind,
		Recipient: it.Recipient.Name,
		Outcomes:  outcomes,
		At:        time.Now().UTC(),
	}

	metrics.IncDispatch()
	metrics.ObserveDispatchDuration(time.Since(start).Seconds())
	for _, o := range result.Outcomes {
		switch o.Status {
		case channel.StatusSent:
			metrics.IncChannelSent(string(o.Channel))
		case channel.StatusSkipped:
			metrics.IncChannelSkipped(string(o.Channel))
		case channel.StatusFailed:
			metrics.IncChannelFailed(string(o.Channel))
			logging.Get().Warn().
				Str("intent", it.ID).
				Str("kind", string(it.Kind)).
				Str("channel", string(o.Channel)).
				Str("detail", o.Detail).
				Msg("channel delivery failed")
		}
	}
	logging.Get().Debug().
		Str("intent", it.ID).
		Str("kind", string(it.Kind)).
		Str("recipient", it.Recipient.Name).
		Bool("delivered", result.Delivered()).
		Msg("intent dispatched")

	if d.history != nil {
		d.history.Record(ctx, result)
	}
	if d.hub != nil {
		d.hub.Publish(TopicFor(it.Recipient), resultEvent, result)
	}
	return result
}

// attemptEmail renders and sends the email for an intent, or reports why the
// channel was not attempted. The sender is never invoked without an address.
func (d *Dispatcher) attemptEmail(ctx context.Context, it intent.Intent) channel.Outcome {
	if d.email == nil {
		return channel.Skipped(channel.Email, "email channel not configured")
	}
	if it.Recipient.Email == "" {
		return channel.Skipped(channel.Email, "no email address on file")
	}
	if out, ok := d.acquire(ctx, channel.Email); !ok {
		return out
	}
	defer d.release()

	content := intent.EmailFor(it)
	return d.email.Send(ctx, channel.EmailMessage{
		To:      it.Recipient.Email,
		Subject: content.Subject,
		HTML:    content.HTML,
		Text:    content.Text,
	})
}

// attemptSMS renders and sends the short message for an intent, or reports
// why the channel was not attempted.
func (d *Dispatcher) attemptSMS(ctx context.Context, it intent.Intent) channel.Outcome {
	if d.sms == nil {
		return channel.Skipped(channel.SMS, "sms channel not configured")
	}
	if it.Recipient.Phone == "" {
		return channel.Skipped(channel.SMS, "no phone number on file")
	}
	if out, ok := d.acquire(ctx, channel.SMS); !ok {
		return out
	}
	defer d.release()

	return d.sms.Send(ctx, it.Recipient.Phone, intent.SMSFor(it))
}

// acquire claims a slot in the shared send limiter. A cancelled context while
// waiting yields a failed outcome for the channel.
func (d *Dispatcher) acquire(ctx context.Context, ch channel.Channel) (channel.Outcome, bool) {
	select {
	case d.sem <- struct{}{}:
		return channel.Outcome{}, true
	case <-ctx.Done():
		return channel.Failed(ch, ctx.Err()), false
	}
}

func (d *Dispatcher) release() {
	<-d.sem
}
