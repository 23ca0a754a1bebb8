// Package scheduler periodically scans upcoming published events and fires
// reminder intents at most once per event per lead window.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/intent"
	"github.com/balkirat0001/eventcraft2/internal/logging"
	"github.com/balkirat0001/eventcraft2/internal/metrics"
	"github.com/balkirat0001/eventcraft2/internal/state"
)

// Event is an upcoming published event as exposed by the event source.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	StartAt  time.Time `json:"start_at"`
}

// EventSource is the external event/attendee boundary. The scheduler never
// owns event storage.
type EventSource interface {
	// UpcomingPublished lists published events starting in [from, until).
	UpcomingPublished(ctx context.Context, from, until time.Time) ([]Event, error)
	// Attendees lists the registered recipients for an event.
	Attendees(ctx context.Context, eventID string) ([]intent.Recipient, error)
}

// Dispatcher hands a reminder intent to the notification layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, it intent.Intent) channel.DispatchResult
}

// window is the per-event reminder state. fired transitions false→true at
// most once per window; it is only reset when attendee enumeration fails so
// the event stays retryable on the next tick.
type window struct {
	fireAt time.Time
	fired  bool
}

// Scheduler owns the reminder windows and the periodic scan loop.
type Scheduler struct {
	source     EventSource
	dispatcher Dispatcher
	lead       time.Duration
	interval   time.Duration
	journal    *state.Journal

	mu      sync.Mutex
	windows map[string]*window

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	Now func() time.Time // injectable clock for testing
}

// New constructs a scheduler. journal may be nil (no persistence); when
// present, previously fired windows are seeded so a restart inside a lead
// window does not re-fire.
func New(source EventSource, dispatcher Dispatcher, lead, interval time.Duration, journal *state.Journal) *Scheduler {
	s := &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		lead:       lead,
		interval:   interval,
		journal:    journal,
		windows:    make(map[string]*window),
		quit:       make(chan struct{}),
		Now:        time.Now,
	}
	if fired, err := journal.All(); err != nil {
		logging.Get().Warn().Err(err).Msg("failed reading window journal; starting with empty windows")
	} else {
		for id, rec := range fired {
			s.windows[id] = &window{fireAt: rec.FireAt, fired: true}
		}
	}
	return s
}

// Start runs the scan loop until Stop is called. Each tick scans in its own
// goroutine so a slow tick never delays the next tick's scheduling; the
// per-event fired guard prevents overlapping ticks from double-firing.
func (s *Scheduler) Start() {
	logging.Get().Info().Dur("interval", s.interval).Dur("lead", s.lead).Msg("starting reminder scheduler")

	// Immediate pass so reminders already inside the lead window fire without
	// waiting for the first tick.
	s.spawnScan()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.spawnScan()
		case <-s.quit:
			logging.Get().Info().Msg("stopping reminder scheduler")
			return
		}
	}
}

func (s *Scheduler) spawnScan() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Scan(context.Background())
	}()
}

// Scan runs one reminder pass. Safe to call concurrently; re-running while
// now stays within the eligible range is idempotent.
func (s *Scheduler) Scan(ctx context.Context) {
	now := s.Now()
	events, err := s.source.UpcomingPublished(ctx, now, now.Add(s.lead))
	if err != nil {
		logging.Get().Error().Err(err).Msg("failed listing upcoming events")
		metrics.IncScanError()
		return
	}

	for _, ev := range events {
		if !s.claim(ev, now) {
			continue
		}
		s.fire(ctx, ev)
	}
	metrics.SetLastScan(now)
}

// claim atomically transitions the event's window to fired when it is due.
// Returns false when the window does not exist yet and is not due, or has
// already fired. Only the claimant may later release it.
func (s *Scheduler) claim(ev Event, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[ev.ID]
	if !ok {
		w = &window{fireAt: ev.StartAt.Add(-s.lead)}
		s.windows[ev.ID] = w
	}
	if w.fired || now.Before(w.fireAt) {
		return false
	}
	w.fired = true
	return true
}

// release reopens a claimed window after a failed attendee enumeration so the
// next tick retries it.
func (s *Scheduler) release(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[eventID]; ok {
		w.fired = false
	}
}

// fire emits one ReminderDue intent per registered attendee of the event.
func (s *Scheduler) fire(ctx context.Context, ev Event) {
	attendees, err := s.source.Attendees(ctx, ev.ID)
	if err != nil {
		// Leave the window retryable; the scan continues with other events.
		logging.Get().Error().Err(err).Str("event", ev.ID).Msg("failed listing attendees; window left unfired")
		metrics.IncScanError()
		s.release(ev.ID)
		return
	}

	logging.Get().Info().Str("event", ev.ID).Str("title", ev.Title).Int("attendees", len(attendees)).Msg("reminder window fired")

	var wg sync.WaitGroup
	for _, rcpt := range attendees {
		wg.Add(1)
		go func(rcpt intent.Recipient) {
			defer wg.Done()
			s.dispatcher.Dispatch(ctx, s.reminderIntent(ev, rcpt))
		}(rcpt)
	}
	wg.Wait()

	metrics.IncReminderFired()
	if err := s.journal.MarkFired(state.FiredRecord{EventID: ev.ID, FireAt: ev.StartAt.Add(-s.lead), FiredAt: s.Now()}); err != nil {
		logging.Get().Warn().Err(err).Str("event", ev.ID).Msg("failed journalling fired window")
	}
}

// reminderIntent builds the self-contained ReminderDue intent for one
// (event, attendee) pair.
func (s *Scheduler) reminderIntent(ev Event, rcpt intent.Recipient) intent.Intent {
	return intent.New(intent.ReminderDue, rcpt, intent.Context{
		intent.FieldEventTitle: ev.Title,
		intent.FieldEventDate:  ev.StartAt.Format("Jan 2, 2006"),
		intent.FieldEventTime:  ev.StartAt.Format("3:04 PM"),
		intent.FieldLocation:   ev.Location,
	})
}

// CancelEvent discards the window for a canceled event.
func (s *Scheduler) CancelEvent(eventID string) {
	s.mu.Lock()
	delete(s.windows, eventID)
	s.mu.Unlock()
	if err := s.journal.Remove(eventID); err != nil {
		logging.Get().Warn().Err(err).Str("event", eventID).Msg("failed removing journalled window")
	}
}

// WindowStatus is a snapshot of one reminder window for the HTTP surface.
type WindowStatus struct {
	EventID string    `json:"event_id"`
	FireAt  time.Time `json:"fire_at"`
	Fired   bool      `json:"fired"`
}

// Windows returns a snapshot of all tracked reminder windows, ordered by
// event id.
func (s *Scheduler) Windows() []WindowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WindowStatus, 0, len(s.windows))
	for id, w := range s.windows {
		out = append(out, WindowStatus{EventID: id, FireAt: w.fireAt, Fired: w.fired})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// Stop stops scheduling new ticks and waits for in-progress scans (including
// their in-flight channel sends) to complete, or until ctx expires. In-flight
// sends are never abruptly canceled to avoid ambiguous delivery state.
func (s *Scheduler) Stop(ctx context.Context) {
	s.stopOnce.Do(func() { close(s.quit) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Get().Info().Msg("all reminder scans completed")
	case <-ctx.Done():
		logging.Get().Warn().Msg("shutdown timeout exceeded; a reminder scan may still be in flight")
	}
}
