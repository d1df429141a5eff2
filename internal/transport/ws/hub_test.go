package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/cwrk-planet/fleet-service/internal/domain"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	open     bool
	failSend bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{open: true}
}

func (c *fakeConn) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

func (c *fakeConn) SendRaw(data []byte) error {
	if c.failSend {
		return errors.New("send failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func countOfRole(h *Hub, role domain.Role) int {
	n := 0
	h.ForEachOfRole(role, func(Conn) { n++ })
	return n
}

func TestHubIdentifyRoleMembership(t *testing.T) {
	h := NewHub()
	c := newFakeConn()
	id := h.Register(c)

	if !h.Identify(id, domain.RolePassenger, "u1") {
		t.Fatal("Identify returned false for a registered connection")
	}

	if got := countOfRole(h, domain.RolePassenger); got != 1 {
		t.Fatalf("passenger role has %d entries, want 1", got)
	}
	for _, role := range []domain.Role{domain.RoleDriver, domain.RoleAdmin} {
		if got := countOfRole(h, role); got != 0 {
			t.Fatalf("role %q has %d entries, want 0", role, got)
		}
	}

	role, userID, ok := h.Identity(id)
	if !ok || role != domain.RolePassenger || userID != "u1" {
		t.Fatalf("Identity = (%q, %q, %v), want (passenger, u1, true)", role, userID, ok)
	}
}

func TestHubIdentifyUnknownID(t *testing.T) {
	h := NewHub()
	if h.Identify("no-such-id", domain.RoleDriver, "d1") {
		t.Fatal("Identify succeeded for an unknown connection id")
	}
}

func TestHubSecondIdentifyIgnored(t *testing.T) {
	h := NewHub()
	id := h.Register(newFakeConn())

	h.Identify(id, domain.RolePassenger, "u1")
	if h.Identify(id, domain.RoleAdmin, "u2") {
		t.Fatal("second Identify was not ignored")
	}

	role, userID, _ := h.Identity(id)
	if role != domain.RolePassenger || userID != "u1" {
		t.Fatalf("identity changed after second Identify: (%q, %q)", role, userID)
	}
}

func TestHubUnidentifiedExcludedFromRoles(t *testing.T) {
	h := NewHub()
	c := newFakeConn()
	h.Register(c)

	for _, role := range []domain.Role{domain.RolePassenger, domain.RoleDriver, domain.RoleAdmin} {
		if got := countOfRole(h, role); got != 0 {
			t.Fatalf("unidentified connection appears in role %q", role)
		}
	}

	h.Broadcast(domain.RolePassenger, Message{Type: "x"})
	if c.received() != 0 {
		t.Fatal("unidentified connection received a broadcast")
	}
}

func TestHubRemoveIdempotent(t *testing.T) {
	h := NewHub()
	c := newFakeConn()
	id := h.Register(c)
	h.Identify(id, domain.RoleAdmin, "a1")

	h.Remove(id)
	h.Remove(id) // второй вызов — no-op

	if got := countOfRole(h, domain.RoleAdmin); got != 0 {
		t.Fatalf("admin role has %d entries after remove, want 0", got)
	}
	h.Broadcast(domain.RoleAdmin, Message{Type: "x"})
	if c.received() != 0 {
		t.Fatal("removed connection received a broadcast")
	}
}

func TestHubBroadcastSkipsClosed(t *testing.T) {
	h := NewHub()
	open := newFakeConn()
	closed := newFakeConn()

	h.Identify(h.Register(open), domain.RolePassenger, "u1")
	h.Identify(h.Register(closed), domain.RolePassenger, "u2")
	_ = closed.Close()

	h.Broadcast(domain.RolePassenger, Message{Type: "x"})

	if open.received() != 1 {
		t.Fatalf("open connection received %d frames, want 1", open.received())
	}
	if closed.received() != 0 {
		t.Fatal("closed connection received a broadcast")
	}
	// закрытое соединение не удаляется: это дело close-handler-а
	if got := countOfRole(h, domain.RolePassenger); got != 2 {
		t.Fatalf("passenger role has %d entries, want 2", got)
	}
}

func TestHubBroadcastIsolatesFailures(t *testing.T) {
	h := NewHub()
	failing := newFakeConn()
	failing.failSend = true
	healthy := newFakeConn()

	h.Identify(h.Register(failing), domain.RoleAdmin, "a1")
	h.Identify(h.Register(healthy), domain.RoleAdmin, "a2")

	h.Broadcast(domain.RoleAdmin, Message{Type: "x"})

	if healthy.received() != 1 {
		t.Fatalf("healthy connection received %d frames, want 1", healthy.received())
	}
}

func TestHubBroadcastPayload(t *testing.T) {
	h := NewHub()
	a := newFakeConn()
	b := newFakeConn()
	h.Identify(h.Register(a), domain.RolePassenger, "u1")
	h.Identify(h.Register(b), domain.RolePassenger, "u2")

	h.Broadcast(domain.RolePassenger, Message{
		Type: TypeBusLocationUpdate,
		Data: BusLocationUpdatePayload{BusID: "bus42", Location: domain.Location{Lat: 1, Lng: 2}},
	})

	if a.received() != 1 || b.received() != 1 {
		t.Fatalf("received %d/%d frames, want 1/1", a.received(), b.received())
	}
	if string(a.frames[0]) != string(b.frames[0]) {
		t.Fatal("recipients got different serializations of the same broadcast")
	}

	var msg struct {
		Type string                   `json:"type"`
		Data BusLocationUpdatePayload `json:"data"`
	}
	if err := json.Unmarshal(a.frames[0], &msg); err != nil {
		t.Fatalf("unmarshal broadcast frame: %v", err)
	}
	if msg.Type != TypeBusLocationUpdate || msg.Data.BusID != "bus42" ||
		msg.Data.Location.Lat != 1 || msg.Data.Location.Lng != 2 {
		t.Fatalf("unexpected frame: %s", a.frames[0])
	}
}
