package source

import (
	"context"
	"sync"
	"time"

	"github.com/balkirat0001/eventcraft2/internal/intent"
	"github.com/balkirat0001/eventcraft2/internal/scheduler"
)

// Memory is an in-process event source for local runs and tests.
type Memory struct {
	mu        sync.RWMutex
	events    map[string]scheduler.Event
	attendees map[string][]intent.Recipient
}

// NewMemory builds an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		events:    make(map[string]scheduler.Event),
		attendees: make(map[string][]intent.Recipient),
	}
}

// AddEvent registers a published event and its attendees.
func (m *Memory) AddEvent(ev scheduler.Event, attendees []intent.Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
	m.attendees[ev.ID] = attendees
}

// RemoveEvent drops an event, as when it is canceled upstream.
func (m *Memory) RemoveEvent(eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, eventID)
	delete(m.attendees, eventID)
}

// UpcomingPublished lists events starting in [from, until).
func (m *Memory) UpcomingPublished(_ context.Context, from, until time.Time) ([]scheduler.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []scheduler.Event
	for _, ev := range m.events {
		if !ev.StartAt.Before(from) && ev.StartAt.Before(until) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Attendees lists the registered recipients for an event.
func (m *Memory) Attendees(_ context.Context, eventID string) ([]intent.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.attendees[eventID]
	out := make([]intent.Recipient, len(list))
	copy(out, list)
	return out, nil
}
