package relay

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"pairpad/internal/websocket"
)

// Broadcaster fans inbound events out to every other connection in the
// sender's room. It inspects nothing beyond the event name, persists nothing,
// and never echoes an event back to its origin; that exclusion is the only
// thing keeping clients from reprocessing their own edits.
type Broadcaster struct {
	eventCh      chan *inboundEvent
	registerCh   chan *websocket.Connection
	unregisterCh chan *websocket.Connection
	shutdownCh   chan struct{}

	registry *websocket.Registry

	running bool
	mu      sync.RWMutex
}

// inboundEvent carries one received frame together with its origin.
type inboundEvent struct {
	sender *websocket.Connection
	name   string
	frame  []byte
}

// NewBroadcaster creates a broadcaster over the given connection registry.
func NewBroadcaster(registry *websocket.Registry) *Broadcaster {
	return &Broadcaster{
		// Event buffer sized for bursts of per-keystroke code-change events.
		eventCh:      make(chan *inboundEvent, 1000),
		registerCh:   make(chan *websocket.Connection, 100),
		unregisterCh: make(chan *websocket.Connection, 100),
		shutdownCh:   make(chan struct{}),
		registry:     registry,
	}
}

// Start launches the single dispatch goroutine. Events, registrations and
// deregistrations are all serialized through it, in arrival order.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	b.mu.Unlock()

	log.Info().Msg("relay broadcaster started")
	go b.run(ctx)
	return nil
}

// Stop shuts the dispatch loop down.
func (b *Broadcaster) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return ErrNotRunning
	}
	b.running = false

	select {
	case <-b.shutdownCh:
	default:
		close(b.shutdownCh)
	}
	return nil
}

// Register queues a new connection for the registry.
func (b *Broadcaster) Register(conn *websocket.Connection) error {
	if err := b.checkRunning(); err != nil {
		return err
	}
	select {
	case b.registerCh <- conn:
		return nil
	default:
		return ErrRegisterChannelFull
	}
}

// Unregister queues a connection removal.
func (b *Broadcaster) Unregister(conn *websocket.Connection) error {
	if err := b.checkRunning(); err != nil {
		return err
	}
	select {
	case b.unregisterCh <- conn:
		return nil
	default:
		return ErrUnregisterChannelFull
	}
}

// Publish queues an event frame for fan-out to the sender's room peers.
// The frame is forwarded verbatim; the name is only carried for logging.
func (b *Broadcaster) Publish(sender *websocket.Connection, eventName string, frame []byte) error {
	if err := b.checkRunning(); err != nil {
		return err
	}
	select {
	case b.eventCh <- &inboundEvent{sender: sender, name: eventName, frame: frame}:
		return nil
	default:
		return ErrEventChannelFull
	}
}

func (b *Broadcaster) checkRunning() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return ErrNotRunning
	}
	return nil
}

func (b *Broadcaster) run(ctx context.Context) {
	defer log.Info().Msg("relay broadcaster stopped")

	for {
		select {
		case ev := <-b.eventCh:
			b.fanOut(ev)
		case conn := <-b.registerCh:
			b.handleRegister(conn)
		case conn := <-b.unregisterCh:
			b.handleUnregister(conn)
		case <-b.shutdownCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fanOut forwards one event to every other connection in the sender's room.
// A failed forward is logged and skipped; the remaining peers still get the
// event.
func (b *Broadcaster) fanOut(ev *inboundEvent) {
	peers := b.registry.Peers(ev.sender.Room(), ev.sender.ID())
	delivered := 0
	for _, peer := range peers {
		if err := peer.Send(ev.frame); err != nil {
			log.Warn().Err(err).
				Str("event", ev.name).
				Str("peer_id", peer.ID()).
				Msg("failed to forward event to peer")
			continue
		}
		delivered++
	}

	log.Debug().
		Str("event", ev.name).
		Str("sender_id", ev.sender.ID()).
		Str("room", ev.sender.Room()).
		Int("peers", delivered).
		Msg("event relayed")
}

func (b *Broadcaster) handleRegister(conn *websocket.Connection) {
	if conn == nil {
		log.Warn().Msg("attempted to register nil connection")
		return
	}
	if err := b.registry.Add(conn); err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID()).Msg("connection registration failed")
		_ = conn.Close()
		return
	}
	log.Info().
		Str("connection_id", conn.ID()).
		Str("room", conn.Room()).
		Str("role", conn.Role()).
		Int("room_size", b.registry.RoomSize(conn.Room())).
		Msg("client connected")
}

func (b *Broadcaster) handleUnregister(conn *websocket.Connection) {
	if conn == nil {
		return
	}
	b.registry.Remove(conn)
	log.Info().
		Str("connection_id", conn.ID()).
		Str("room", conn.Room()).
		Msg("client disconnected")
}
