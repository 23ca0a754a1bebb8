// Package api exposes the notification service over HTTP: intent submission,
// chat publishing, reminder status, recent history, and the websocket
// endpoint.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/balkirat0001/eventcraft2/internal/channel"
	"github.com/balkirat0001/eventcraft2/internal/intent"
	"github.com/balkirat0001/eventcraft2/internal/logging"
	"github.com/balkirat0001/eventcraft2/internal/scheduler"
)

// Dispatcher hands a submitted intent to the notification layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, it intent.Intent) channel.DispatchResult
}

// Reminders exposes the scheduler's window state.
type Reminders interface {
	Windows() []scheduler.WindowStatus
	CancelEvent(eventID string)
}

// History reads back recent dispatch results.
type History interface {
	Recent(ctx context.Context, n int) ([]channel.DispatchResult, error)
}

// Hub is the real-time fan-out surface the API publishes chat through.
type Hub interface {
	Publish(topic, event string, payload any) []string
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Calendar lists upcoming published events for the calendar endpoint.
type Calendar interface {
	UpcomingPublished(ctx context.Context, from, until time.Time) ([]scheduler.Event, error)
}

// Server wires the HTTP routes to the service collaborators. Optional
// collaborators may be nil; their routes respond 503.
type Server struct {
	dispatcher Dispatcher
	reminders  Reminders
	history    History
	hub        Hub
	calendar   Calendar
}

// NewServer builds the HTTP surface.
func NewServer(d Dispatcher, rem Reminders, hist History, hub Hub, cal Calendar) *Server {
	return &Server{dispatcher: d, reminders: rem, history: hist, hub: hub, calendar: cal}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Post("/notifications", s.handleDispatch)
		r.Get("/notifications/recent", s.handleRecent)
		r.Post("/chat/messages", s.handleChatMessage)
		r.Get("/reminders/status", s.handleReminderStatus)
		r.Delete("/reminders/{eventID}", s.handleCancelReminder)
		r.Get("/calendar", s.handleCalendar)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "real-time hub not available", http.StatusServiceUnavailable)
		return
	}
	s.hub.ServeWS(w, r)
}

// dispatchRequest is the intent submission body. The context bag is optional;
// templates render a placeholder for anything missing.
type dispatchRequest struct {
	Kind      intent.Kind      `json:"kind"`
	Recipient intent.Recipient `json:"recipient"`
	Context   intent.Context   `json:"context,omitempty"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !intent.Known(req.Kind) {
		writeError(w, http.StatusBadRequest, "unknown notification kind: "+string(req.Kind))
		return
	}
	if req.Recipient.Name == "" && req.Recipient.Email == "" && req.Recipient.Phone == "" {
		writeError(w, http.StatusBadRequest, "recipient is required")
		return
	}

	it := intent.New(req.Kind, req.Recipient, req.Context)
	result := s.dispatcher.Dispatch(r.Context(), it)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history not available", http.StatusServiceUnavailable)
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := s.history.Recent(r.Context(), n)
	if err != nil {
		logging.Get().Error().Err(err).Msg("failed reading dispatch history")
		writeError(w, http.StatusInternalServerError, "failed reading history")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// chatRequest publishes a chat message into a room on behalf of a server-side
// caller (the websocket path is the usual route for browsers).
type chatRequest struct {
	Room   string          `json:"room"`
	Sender string          `json:"sender"`
	Text   string          `json:"text"`
	SentAt time.Time       `json:"sent_at,omitempty"`
	Extra  json.RawMessage `json:"extra,omitempty"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "real-time hub not available", http.StatusServiceUnavailable)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Room == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "room and text are required")
		return
	}
	if req.SentAt.IsZero() {
		req.SentAt = time.Now().UTC()
	}

	delivered := s.hub.Publish("chat:"+req.Room, "chat-message", req)
	writeJSON(w, http.StatusOK, map[string]any{"delivered": len(delivered)})
}

func (s *Server) handleReminderStatus(w http.ResponseWriter, r *http.Request) {
	if s.reminders == nil {
		http.Error(w, "scheduler not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.reminders.Windows())
}

func (s *Server) handleCancelReminder(w http.ResponseWriter, r *http.Request) {
	if s.reminders == nil {
		http.Error(w, "scheduler not available", http.StatusServiceUnavailable)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	s.reminders.CancelEvent(eventID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if s.calendar == nil {
		http.Error(w, "event source not available", http.StatusServiceUnavailable)
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 {
		days = 30
	}
	now := time.Now().UTC()
	events, err := s.calendar.UpcomingPublished(r.Context(), now, now.AddDate(0, 0, days))
	if err != nil {
		logging.Get().Error().Err(err).Msg("failed listing calendar events")
		writeError(w, http.StatusBadGateway, "failed listing events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get().Error().Err(err).Msg("failed writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
