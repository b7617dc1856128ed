package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps one client's WebSocket with a single-writer pump.
// All writes go through writeCh so concurrent fan-outs never race on the
// underlying socket. Identity is fixed at construction; there is no
// authentication state here, the surrounding session layer owns that.
type Connection struct {
	conn      *websocket.Conn
	writeCh   chan []byte
	id        string
	room      string
	role      string
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps an upgraded WebSocket and starts its write pump.
func NewConnection(conn *websocket.Conn, room, role string, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:    conn,
		writeCh: make(chan []byte, bufferSize),
		id:      uuid.New().String(),
		room:    room,
		role:    role,
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.writeLoop()

	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues a raw frame for delivery. It never blocks the caller: a full
// buffer or a closed connection returns an error instead, so one slow peer
// cannot stall a broadcast.
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Done is closed once the connection is torn down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// ID returns the opaque connection identifier.
func (c *Connection) ID() string { return c.id }

// Room returns the broadcast group this connection belongs to.
func (c *Connection) Room() string { return c.room }

// Role returns the viewer role the client reported. Informational only; the
// relay never makes authorization decisions from it.
func (c *Connection) Role() string { return c.role }
