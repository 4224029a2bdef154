package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeConn struct {
	events  []Event
	failing bool
	closed  bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.failing {
		return errors.New("connection reset")
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestPublishOrderUpdate(t *testing.T) {
	hub := NewHub(nil)
	sub := &fakeConn{}
	other := &fakeConn{}

	hub.Join(OrderRoom(7), sub)
	hub.Join(OrderRoom(8), other)

	hub.PublishOrderUpdate(7, map[string]int{"total": 19000})

	if len(sub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sub.events))
	}
	if sub.events[0].Type != "order:update" {
		t.Errorf("unexpected event type %q", sub.events[0].Type)
	}
	if len(other.events) != 0 {
		t.Error("subscriber of another order must not receive the event")
	}
}

func TestPublishNewOrderForTable(t *testing.T) {
	hub := NewHub(nil)
	waiter := &fakeConn{}
	hub.Join(TableRoom("12"), waiter)

	hub.PublishNewOrderForTable("12", map[string]int64{"orderId": 3})

	if len(waiter.events) != 1 || waiter.events[0].Type != "order:new" {
		t.Fatalf("expected one order:new event, got %+v", waiter.events)
	}
}

func TestConnInMultipleRooms(t *testing.T) {
	hub := NewHub(nil)
	sub := &fakeConn{}
	hub.Join(OrderRoom(1), sub)
	hub.Join(TableRoom("4"), sub)

	hub.PublishOrderUpdate(1, "a")
	hub.PublishNewOrderForTable("4", "b")

	if len(sub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sub.events))
	}
}

func TestBroadcastDropsDeadConnections(t *testing.T) {
	hub := NewHub(nil)
	dead := &fakeConn{failing: true}
	alive := &fakeConn{}

	hub.Join(OrderRoom(5), dead)
	hub.Join(OrderRoom(5), alive)

	hub.PublishOrderUpdate(5, "payload")

	if !dead.closed {
		t.Error("failed connection must be closed")
	}
	if hub.RoomSize(OrderRoom(5)) != 1 {
		t.Errorf("expected 1 remaining subscriber, got %d", hub.RoomSize(OrderRoom(5)))
	}
	if len(alive.events) != 1 {
		t.Error("healthy subscriber must still receive the event")
	}

	// The dead connection receives nothing further.
	hub.PublishOrderUpdate(5, "again")
	if len(alive.events) != 2 {
		t.Error("healthy subscriber must keep receiving")
	}
}

// guardedConn fails the test if two writers are ever inside WriteJSON at the
// same time, which is what a real websocket connection forbids.
type guardedConn struct {
	t       *testing.T
	writers atomic.Int32
	events  atomic.Int32
}

func (g *guardedConn) WriteJSON(v interface{}) error {
	if g.writers.Add(1) > 1 {
		g.t.Error("concurrent writers on the same connection")
	}
	time.Sleep(time.Millisecond)
	g.writers.Add(-1)
	g.events.Add(1)
	return nil
}

func (g *guardedConn) Close() error { return nil }

func TestConcurrentBroadcastsSerializePerConnection(t *testing.T) {
	hub := NewHub(nil)
	sub := &guardedConn{t: t}
	hub.Join(OrderRoom(7), sub)
	hub.Join(TableRoom("12"), sub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.PublishOrderUpdate(7, "items")
		}()
		go func() {
			defer wg.Done()
			hub.PublishNewOrderForTable("12", "status")
		}()
	}
	wg.Wait()

	if got := sub.events.Load(); got != 16 {
		t.Errorf("expected 16 events, got %d", got)
	}
}

func TestLeaveRemovesFromAllRooms(t *testing.T) {
	hub := NewHub(nil)
	sub := &fakeConn{}
	hub.Join(OrderRoom(1), sub)
	hub.Join(TableRoom("2"), sub)

	hub.Leave(sub)

	if hub.RoomSize(OrderRoom(1)) != 0 || hub.RoomSize(TableRoom("2")) != 0 {
		t.Error("Leave must remove the connection from every room")
	}
}
