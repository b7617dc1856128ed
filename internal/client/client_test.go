package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"pairpad/internal/catalog"
	"pairpad/internal/relay"
	"pairpad/internal/session"
	"pairpad/internal/websocket"
	"pairpad/pkg/protocol"
)

// newStack boots a full relay: registry, broadcaster and WebSocket handler
// behind an httptest server.
func newStack(t *testing.T) (string, *websocket.Registry) {
	t.Helper()

	registry := websocket.NewRegistry()
	broadcaster := relay.NewBroadcaster(registry)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := broadcaster.Start(ctx); err != nil {
		t.Fatalf("failed to start broadcaster: %v", err)
	}
	t.Cleanup(func() { broadcaster.Stop() })

	handler := websocket.NewHandler(broadcaster, websocket.HandlerOptions{})
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(srv.Close)

	return srv.URL, registry
}

// peer is one simulated browser: a connected client with its session store
// bound for inbound events and an emitter for local actions.
type peer struct {
	client  *Client
	store   *session.Store
	emitter *session.Emitter
}

func newPeer(t *testing.T, serverURL, room string, interviewer bool) *peer {
	t.Helper()

	role := "candidate"
	if interviewer {
		role = "interviewer"
	}
	c, err := Dial(context.Background(), serverURL, Options{Room: room, Role: role})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	store := session.NewStore(cat, clockwork.NewFakeClock())
	t.Cleanup(store.Close)
	session.Bind(store, c)

	return &peer{
		client:  c,
		store:   store,
		emitter: session.NewEmitter(store, c, session.StaticRole(interviewer)),
	}
}

func waitForConnections(t *testing.T, registry *websocket.Registry, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if registry.Stats()["total_connections"] == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry never reached %d connections", want)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func TestQuestionChangeReachesPeerInTheirLanguage(t *testing.T) {
	url, registry := newStack(t)

	a := newPeer(t, url, "room-1", true)
	b := newPeer(t, url, "room-1", false)
	waitForConnections(t, registry, 2)

	// B works in python locally; a question switch from A must land as the
	// python starter on B's side.
	b.store.ApplyLanguageChange("python")

	a.emitter.SelectQuestion("reverse-string")

	waitFor(t, "question change on b", func() bool {
		return b.store.Snapshot().QuestionID == "reverse-string"
	})

	snap := b.store.Snapshot()
	if snap.Code != snap.Question.Starter("python") {
		t.Errorf("expected python starter on b, got %q", snap.Code)
	}
	if a.store.Snapshot().QuestionID != "reverse-string" {
		t.Error("expected a's own store to hold the new question")
	}
}

func TestConcurrentEditsConvergeOnLastWrite(t *testing.T) {
	url, registry := newStack(t)

	a := newPeer(t, url, "room-1", false)
	b := newPeer(t, url, "room-1", false)
	waitForConnections(t, registry, 2)

	a.emitter.EditCode("x = 1")
	waitFor(t, "first edit on b", func() bool {
		return b.store.Snapshot().Code == "x = 1"
	})

	b.emitter.EditCode("x = 2")
	waitFor(t, "second edit on a", func() bool {
		return a.store.Snapshot().Code == "x = 2"
	})

	if got := b.store.Snapshot().Code; got != "x = 2" {
		t.Errorf("expected both sides on the last write, b has %q", got)
	}
}

func TestSenderNeverReceivesOwnEvent(t *testing.T) {
	url, registry := newStack(t)

	a := newPeer(t, url, "room-1", false)
	b := newPeer(t, url, "room-1", false)
	waitForConnections(t, registry, 2)

	var echoes atomic.Int64
	a.client.Subscribe(protocol.EventCodeChange, func(json.RawMessage) {
		echoes.Add(1)
	})

	a.emitter.EditCode("only for peers")

	waitFor(t, "edit on b", func() bool {
		return b.store.Snapshot().Code == "only for peers"
	})
	if n := echoes.Load(); n != 0 {
		t.Errorf("sender received %d echoes of its own event", n)
	}
}

func TestStartTimerPropagates(t *testing.T) {
	url, registry := newStack(t)

	interviewer := newPeer(t, url, "room-1", true)
	candidate := newPeer(t, url, "room-1", false)
	waitForConnections(t, registry, 2)

	interviewer.emitter.StartTimer(session.DefaultTimerSeconds)

	waitFor(t, "countdown on candidate", func() bool {
		return candidate.store.Snapshot().CountdownActive
	})
	if got := candidate.store.Snapshot().CountdownRemaining; got != session.DefaultTimerSeconds {
		t.Errorf("expected countdown at %d on candidate, got %d", session.DefaultTimerSeconds, got)
	}
}

func TestLateJoinerReceivesNoBacklog(t *testing.T) {
	url, registry := newStack(t)

	a := newPeer(t, url, "room-1", true)
	b := newPeer(t, url, "room-1", false)
	waitForConnections(t, registry, 2)

	a.emitter.EditCode("early edit")
	a.emitter.SelectQuestion("palindrome-number")
	waitFor(t, "events on b", func() bool {
		return b.store.Snapshot().QuestionID == "palindrome-number"
	})

	// The relay keeps no history; a peer joining now starts from the
	// catalog defaults and only converges as peers emit again.
	late := newPeer(t, url, "room-1", false)
	waitForConnections(t, registry, 3)
	time.Sleep(100 * time.Millisecond)

	snap := late.store.Snapshot()
	if snap.QuestionID == "palindrome-number" || snap.Code == "early edit" {
		t.Errorf("late joiner received backlog: %+v", snap)
	}

	a.emitter.EditCode("fresh edit")
	waitFor(t, "fresh edit on late joiner", func() bool {
		return late.store.Snapshot().Code == "fresh edit"
	})
}

func TestEmitAfterClose(t *testing.T) {
	url, _ := newStack(t)

	c, err := Dial(context.Background(), url, Options{})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// Idempotent.
	c.Close()

	if err := c.Emit(protocol.EventCodeChange, "late"); err != ErrClientClosed {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Error("expected Done closed after Close")
	}
}

func TestDialRejectsBadURL(t *testing.T) {
	if _, err := Dial(context.Background(), "http://\x7f", Options{}); err == nil {
		t.Error("expected an error for an unparseable URL")
	}
}
