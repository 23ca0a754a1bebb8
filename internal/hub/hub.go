// Package hub fans out chat messages and server-originated events to
// connected sessions over topic subscriptions.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/balkirat0001/eventcraft2/internal/logging"
	"github.com/balkirat0001/eventcraft2/internal/metrics"
)

// Frame is the wire unit exchanged with clients. The hub treats the payload
// as opaque.
type Frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Control events a client may send; every other event publishes to the topic.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

// sendBuffer is the per-session outbound queue depth. A full buffer drops
// frames for that session only (best-effort delivery).
const sendBuffer = 32

// Session is one live connection. It is exclusively owned by the hub for its
// connected lifetime and destroyed on disconnect.
type Session struct {
	ID        string
	send      chan []byte
	closeOnce sync.Once
}

// Outbox exposes the session's outbound frames to the transport layer.
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.send) })
}

// Hub maintains connected sessions and their topic subscriptions. All index
// mutation runs under one mutex so concurrent connect/disconnect/subscribe
// operations never lose updates; broadcasts read a consistent subscriber
// snapshot at publish time.
type Hub struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	topics      map[string]map[*Session]struct{}
	memberships map[*Session]map[string]struct{}
	closed      bool
}

// New constructs an empty hub.
func New() *Hub {
	return &Hub{
		sessions:    make(map[string]*Session),
		topics:      make(map[string]map[*Session]struct{}),
		memberships: make(map[*Session]map[string]struct{}),
	}
}

// Register creates a session and adds it to the hub. Returns nil after Close.
func (h *Hub) Register() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	s := &Session{ID: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	h.sessions[s.ID] = s
	h.memberships[s] = make(map[string]struct{})
	metrics.SessionConnected()
	logging.Get().Debug().Str("session", s.ID).Msg("session connected")
	return s
}

// Subscribe adds the session to a topic's subscriber set.
func (h *Hub) Subscribe(s *Session, topic string) {
	if s == nil || topic == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.memberships[s]; !ok {
		// already disconnected
		return
	}
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Session]struct{})
		h.topics[topic] = set
	}
	set[s] = struct{}{}
	h.memberships[s][topic] = struct{}{}
}

// Unsubscribe removes the session from a topic's subscriber set.
func (h *Hub) Unsubscribe(s *Session, topic string) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromTopicLocked(s, topic)
	if m, ok := h.memberships[s]; ok {
		delete(m, topic)
	}
}

func (h *Hub) removeFromTopicLocked(s *Session, topic string) {
	if set, ok := h.topics[topic]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Disconnect removes the session from every topic it belongs to and destroys
// it. Clients never have to unsubscribe topic by topic first. Idempotent.
func (h *Hub) Disconnect(s *Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnectLocked(s)
}

func (h *Hub) disconnectLocked(s *Session) {
	m, ok := h.memberships[s]
	if !ok {
		return
	}
	for topic := range m {
		h.removeFromTopicLocked(s, topic)
	}
	delete(h.memberships, s)
	delete(h.sessions, s.ID)
	s.close()
	metrics.SessionDisconnected()
	logging.Get().Debug().Str("session", s.ID).Msg("session disconnected")
}

// Publish delivers a server-originated event to every current subscriber of
// the topic and returns the ids of the sessions the frame was queued for.
// Sessions joining after the publish do not receive it; there is no replay.
func (h *Hub) Publish(topic, event string, payload any) []string {
	return h.publish(topic, event, payload, nil)
}

// PublishFrom delivers a client-published frame to every other subscriber of
// the topic (the sender does not hear its own message back).
func (h *Hub) PublishFrom(sender *Session, topic, event string, payload json.RawMessage) []string {
	return h.publish(topic, event, payload, sender)
}

func (h *Hub) publish(topic, event string, payload any, except *Session) []string {
	raw, err := json.Marshal(payload)
	if err != nil {
		logging.Get().Error().Err(err).Str("topic", topic).Msg("failed encoding payload")
		return nil
	}
	data, err := json.Marshal(Frame{Topic: topic, Event: event, Payload: raw})
	if err != nil {
		logging.Get().Error().Err(err).Str("topic", topic).Msg("failed encoding frame")
		return nil
	}

	// The read lock excludes concurrent disconnects, so sends never race a
	// channel close; each send is non-blocking so one slow subscriber never
	// stalls the rest.
	h.mu.RLock()
	defer h.mu.RUnlock()
	var delivered []string
	for s := range h.topics[topic] {
		if s == except {
			continue
		}
		select {
		case s.send <- data:
			delivered = append(delivered, s.ID)
		default:
			metrics.IncHubDropped()
			logging.Get().Warn().Str("session", s.ID).Str("topic", topic).Msg("dropping frame for slow session")
		}
	}
	metrics.IncHubPublished()
	return delivered
}

// Subscribers returns the number of sessions currently subscribed to a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close disconnects every session and rejects further registrations,
// triggering normal disconnect cleanup for each.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, s := range h.sessions {
		h.disconnectLocked(s)
	}
}
