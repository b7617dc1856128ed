// Package client implements the browser side of the event channel: one
// persistent WebSocket to the relay with fire-and-forget emit and per-event
// subscriptions. A fresh connection receives no backlog; a late joiner only
// catches up as peers emit again.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pairpad/pkg/protocol"
)

// Options configure the connection handshake.
type Options struct {
	// Room is the broadcast group to join. Empty joins the server default.
	Room string
	// Role is the viewer role reported to the relay, for logging only.
	Role string
}

// Client is one event channel endpoint. Writes are serialized through a
// single pump goroutine; inbound events are dispatched to subscribers in
// receipt order.
type Client struct {
	conn    *websocket.Conn
	writeCh chan []byte

	mu       sync.RWMutex
	handlers map[string][]func(payload json.RawMessage)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Dial connects to the relay at serverURL (http, https, ws or wss) and
// starts the read and write pumps.
func Dial(ctx context.Context, serverURL string, opts Options) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	query := u.Query()
	if opts.Room != "" {
		query.Set("room", opts.Room)
	}
	if opts.Role != "" {
		query.Set("role", opts.Role)
	}
	u.RawQuery = query.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		writeCh:  make(chan []byte, 100),
		handlers: make(map[string][]func(json.RawMessage)),
		ctx:      cctx,
		cancel:   cancel,
	}

	go c.writeLoop()
	go c.readLoop()

	return c, nil
}

// Emit sends a named event to the relay. Fire-and-forget: a nil return means
// the event was queued, not that any peer received it.
func (c *Client) Emit(eventName string, payload interface{}) error {
	ev, err := protocol.NewEvent(eventName, payload)
	if err != nil {
		return err
	}
	frame, err := ev.Encode()
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return ErrClientClosed
	default:
	}

	select {
	case c.writeCh <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrClientClosed
	default:
		return ErrEmitBufferFull
	}
}

// Subscribe registers a handler for an event name. Handlers run on the read
// goroutine, one event at a time, in the order events arrive.
func (c *Client) Subscribe(eventName string, handler func(payload json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventName] = append(c.handlers[eventName], handler)
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection is torn down.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Client) writeLoop() {
	for {
		select {
		case frame := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Msg("relay write failed")
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Warn().Err(err).Msg("relay connection lost")
			}
			return
		}

		ev, err := protocol.ParseEvent(data)
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed event from relay")
			continue
		}

		c.mu.RLock()
		handlers := c.handlers[ev.Name]
		c.mu.RUnlock()

		for _, handler := range handlers {
			handler(ev.Payload)
		}
	}
}
