package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pairpad/pkg/protocol"
)

// DefaultRoom is the broadcast group used when a client supplies none.
// Clients that never set the room parameter all land here, which matches the
// single shared session the platform started with.
const DefaultRoom = "default"

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		// The session layer in front of the relay owns origin policy.
		return true
	},
}

// EventSink receives connection lifecycle and inbound events from handlers.
// Implemented by relay.Broadcaster.
type EventSink interface {
	Register(conn *Connection) error
	Unregister(conn *Connection) error
	Publish(sender *Connection, eventName string, frame []byte) error
}

// HandlerOptions tune per-connection transport behavior. Zero values fall
// back to defaults safe for interactive editing sessions.
type HandlerOptions struct {
	BufferSize   int
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handler upgrades HTTP requests to WebSocket connections and pumps their
// inbound frames into the event sink.
type Handler struct {
	sink EventSink
	opts HandlerOptions
}

// NewHandler creates a WebSocket handler feeding the given sink.
func NewHandler(sink EventSink, opts HandlerOptions) *Handler {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 100
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Handler{sink: sink, opts: opts}
}

// HandleWebSocket serves the /ws endpoint. Room and role arrive as query
// parameters; both are optional. Role is recorded for observability only.
// The relay applies no authorization of its own.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = DefaultRoom
	}
	role := r.URL.Query().Get("role")
	if role == "" {
		role = "candidate"
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConnection(ws, room, role, h.opts.BufferSize)

	if err := h.sink.Register(conn); err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID()).Msg("failed to register connection")
		_ = conn.Close()
		return
	}

	go h.readPump(conn)
}

// readPump reads frames until the peer goes away, forwarding each event to
// the sink. Malformed frames are skipped; they must never end the loop for
// the frames behind them.
func (h *Handler) readPump(conn *Connection) {
	defer func() {
		if err := h.sink.Unregister(conn); err != nil {
			log.Warn().Err(err).Str("connection_id", conn.ID()).Msg("failed to unregister connection")
		}
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		log.Warn().Err(err).Str("connection_id", conn.ID()).Msg("failed to set read deadline")
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	go h.pingLoop(conn)

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", conn.ID()).Msg("websocket read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		ev, err := protocol.ParseEvent(data)
		if err != nil {
			log.Warn().Err(err).Str("connection_id", conn.ID()).Msg("skipping malformed event frame")
			continue
		}

		if err := h.sink.Publish(conn, ev.Name, data); err != nil {
			log.Warn().Err(err).
				Str("connection_id", conn.ID()).
				Str("event", ev.Name).
				Msg("failed to publish event")
		}
	}
}

func (h *Handler) pingLoop(conn *Connection) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(h.opts.WriteTimeout)
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-conn.Done():
			return
		}
	}
}
