package websocket

import "sync"

// Registry tracks live connections grouped by room. It is the one shared
// mutable structure in the relay; every access goes through the mutex so a
// connection removed mid-fan-out is simply absent from the next snapshot.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection // room -> connection id -> connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Connection),
	}
}

// Add registers a connection under its room.
func (r *Registry) Add(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conn.Room()]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[conn.Room()] = room
	}
	room[conn.ID()] = conn
	return nil
}

// Remove deregisters a connection. Idempotent: removing a connection that is
// already gone, or that was replaced under the same id, is a no-op.
func (r *Registry) Remove(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[conn.Room()]
	if !ok {
		return
	}
	if registered, ok := room[conn.ID()]; !ok || registered != conn {
		return
	}
	delete(room, conn.ID())
	if len(room) == 0 {
		delete(r.rooms, conn.Room())
	}
}

// Peers returns every connection in a room except the one identified by
// excludeID. The slice is a snapshot; callers iterate it without the lock.
func (r *Registry) Peers(roomID, excludeID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}

	peers := make([]*Connection, 0, len(room))
	for id, conn := range room {
		if id == excludeID {
			continue
		}
		peers = append(peers, conn)
	}
	return peers
}

// RoomSize returns the number of live connections in a room.
func (r *Registry) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Stats returns registry counters for the health and stats endpoints.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, room := range r.rooms {
		total += len(room)
	}
	return map[string]int{
		"total_connections": total,
		"active_rooms":      len(r.rooms),
	}
}
