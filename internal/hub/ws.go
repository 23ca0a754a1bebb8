package hub

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/balkirat0001/eventcraft2/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket connection and binds it to a
// hub session until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Get().Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	s := h.Register()
	if s == nil {
		conn.Close()
		return
	}
	go h.writePump(conn, s)
	h.readPump(conn, s)
}

// readPump consumes frames from the peer until the connection drops, then
// tears the session down. Any connection error counts as a disconnect; the
// hub removes every subscription in one step.
func (h *Hub) readPump(conn *websocket.Conn, s *Session) {
	defer func() {
		h.Disconnect(s)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Get().Debug().Err(err).Str("session", s.ID).Msg("websocket read error")
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			logging.Get().Warn().Err(err).Str("session", s.ID).Msg("ignoring malformed frame")
			continue
		}
		switch f.Event {
		case EventSubscribe:
			h.Subscribe(s, f.Topic)
		case EventUnsubscribe:
			h.Unsubscribe(s, f.Topic)
		default:
			h.PublishFrom(s, f.Topic, f.Event, f.Payload)
		}
	}
}

// writePump drains the session's outbox onto the wire. A write error drops the
// session; the closed outbox (set by Disconnect) ends the pump.
func (h *Hub) writePump(conn *websocket.Conn, s *Session) {
	defer conn.Close()
	for data := range s.send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logging.Get().Debug().Err(err).Str("session", s.ID).Msg("websocket write error")
			h.Disconnect(s)
			return
		}
	}
}
