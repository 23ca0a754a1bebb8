package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/intent"
)

type fakeEmail struct {
	mu    sync.Mutex
	sent  []channel.EmailMessage
	fail  bool
	delay time.Duration
}

func (f *fakeEmail) Send(ctx context.Context, msg channel.EmailMessage) channel.Outcome {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return channel.Failed(channel.Email, ctx.Err())
		}
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if f.fail {
		return channel.Failed(channel.Email, errors.New("smtp relay unavailable"))
	}
	return channel.Sent(channel.Email, "msg-1")
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeSMS) Send(ctx context.Context, to, body string) channel.Outcome {
	f.mu.Lock()
	f.sent = append(f.sent, to)
	f.mu.Unlock()
	if f.fail {
		return channel.Failed(channel.SMS, errors.New("twilio returned status 500"))
	}
	return channel.Sent(channel.SMS, "SM1")
}

type recordingHistory struct {
	mu      sync.Mutex
	results []channel.DispatchResult
}

func (h *recordingHistory) Record(_ context.Context, r channel.DispatchResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, r)
}

type recordingHub struct {
	mu     sync.Mutex
	topics []string
	events []string
}

func (h *recordingHub) Publish(topic, event string, _ any) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topics = append(h.topics, topic)
	h.events = append(h.events, event)
	return nil
}

func fullRecipient() intent.Recipient {
	return intent.Recipient{Name: "Ada", Email: "a@x.com", Phone: "+15550001111"}
}

func TestDispatchBothChannelsSent(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	d := New(email, sms, 4)

	res := d.Dispatch(context.Background(), intent.New(intent.RegistrationConfirmed, fullRecipient(), intent.Context{intent.FieldEventTitle: "Expo"}))
	if len(res.Outcomes) != 2 {
		t.Fatalf("expected two outcomes, got %+v", res.Outcomes)
	}
	if res.Outcomes[0].Channel != channel.Email || res.Outcomes[1].Channel != channel.SMS {
		t.Fatalf("outcomes not ordered by channel: %+v", res.Outcomes)
	}
	if res.Outcomes[0].Status != channel.StatusSent || res.Outcomes[1].Status != channel.StatusSent {
		t.Fatalf("expected both sent: %+v", res.Outcomes)
	}
	if len(email.sent) != 1 || email.sent[0].Subject == "" {
		t.Fatalf("email sender not invoked with rendered message: %+v", email.sent)
	}
}

func TestDispatchMissingPhoneSkipsSMSOnly(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	d := New(email, sms, 4)

	rcpt := intent.Recipient{Name: "Ada", Email: "a@x.com"}
	res := d.Dispatch(context.Background(), intent.New(intent.RegistrationConfirmed, rcpt, nil))
	if res.Outcomes[0].Status != channel.StatusSent {
		t.Fatalf("email should still be attempted: %+v", res.Outcomes)
	}
	if res.Outcomes[1].Status != channel.StatusSkipped || res.Outcomes[1].Detail != "no phone number on file" {
		t.Fatalf("unexpected sms outcome: %+v", res.Outcomes[1])
	}
	if len(sms.sent) != 0 {
		t.Fatalf("sms sender must not be invoked without a destination: %v", sms.sent)
	}
}

func TestDispatchProviderFailureIsNotAnError(t *testing.T) {
	email := &fakeEmail{fail: true}
	sms := &fakeSMS{fail: true}
	d := New(email, sms, 4)

	res := d.Dispatch(context.Background(), intent.New(intent.CheckInConfirmed, fullRecipient(), nil))
	for _, o := range res.Outcomes {
		if o.Status != channel.StatusFailed || o.Detail == "" {
			t.Fatalf("expected failed outcome with detail: %+v", o)
		}
	}
	if res.Delivered() {
		t.Fatal("nothing was delivered")
	}
}

func TestDispatchSlowEmailDoesNotBlockSMS(t *testing.T) {
	email := &fakeEmail{delay: 200 * time.Millisecond}
	sms := &fakeSMS{}
	d := New(email, sms, 4)

	done := make(chan channel.DispatchResult, 1)
	start := time.Now()
	go func() {
		done <- d.Dispatch(context.Background(), intent.New(intent.ReminderDue, fullRecipient(), nil))
	}()
	res := <-done
	// The dispatcher waits for all channels, so total time is bounded by the
	// slowest channel, not the sum of both.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("dispatch took too long: %v", elapsed)
	}
	if res.Outcomes[1].Status != channel.StatusSent {
		t.Fatalf("sms should have completed: %+v", res.Outcomes)
	}
}

func TestDispatchUnconfiguredChannelsSkip(t *testing.T) {
	d := New(nil, nil, 1)
	res := d.Dispatch(context.Background(), intent.New(intent.TicketPurchased, fullRecipient(), nil))
	for _, o := range res.Outcomes {
		if o.Status != channel.StatusSkipped {
			t.Fatalf("expected skip for unconfigured channel: %+v", o)
		}
	}
}

func TestDispatchRecordsHistoryAndPublishes(t *testing.T) {
	hist := &recordingHistory{}
	hub := &recordingHub{}
	d := New(&fakeEmail{}, &fakeSMS{}, 4, WithHistory(hist), WithBroadcaster(hub))

	d.Dispatch(context.Background(), intent.New(intent.RegistrationConfirmed, fullRecipient(), nil))
	if len(hist.results) != 1 {
		t.Fatalf("expected one history record, got %d", len(hist.results))
	}
	if len(hub.topics) != 1 || hub.topics[0] != "notifications:a@x.com" {
		t.Fatalf("unexpected hub topic: %v", hub.topics)
	}
	if hub.events[0] != "dispatch-result" {
		t.Fatalf("unexpected hub event: %v", hub.events)
	}
}

func TestDispatchConcurrencyLimitIsShared(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	email := &trackingEmail{enter: func() {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
	}, leave: func() {
		mu.Lock()
		inFlight--
		mu.Unlock()
	}}
	d := New(email, nil, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), intent.New(intent.ReminderDue, intent.Recipient{Name: "A", Email: "a@x.com"}, nil))
		}()
	}
	wg.Wait()
	if peak > 2 {
		t.Fatalf("send limiter exceeded: peak %d", peak)
	}
}

type trackingEmail struct {
	enter func()
	leave func()
}

func (e *trackingEmail) Send(ctx context.Context, _ channel.EmailMessage) channel.Outcome {
	e.enter()
	time.Sleep(10 * time.Millisecond)
	e.leave()
	return channel.Sent(channel.Email, "ok")
}
