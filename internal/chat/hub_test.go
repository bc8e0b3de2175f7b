package chat

import (
	"testing"
	"time"
)

func newHubClient(hub *Hub, userID int64) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan *Event, sendBufferSize),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newHubClient(hub, 1)
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount(1) == 1 })

	hub.unregister <- client
	waitFor(t, func() bool { return hub.ClientCount(1) == 0 })

	// The hub closes the send channel on unregister
	if _, ok := <-client.send; ok {
		t.Error("expected the send channel to be closed after unregister")
	}
}

func TestHub_BroadcastRoutesByUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice1 := newHubClient(hub, 1)
	alice2 := newHubClient(hub, 1)
	bob := newHubClient(hub, 2)

	hub.register <- alice1
	hub.register <- alice2
	hub.register <- bob
	waitFor(t, func() bool { return hub.TotalClients() == 3 })

	hub.Broadcast(&Event{Type: "message", UserID: 1, Message: &MessageInfo{Content: "hi"}})

	for _, c := range []*Client{alice1, alice2} {
		select {
		case event := <-c.send:
			if event.Message.Content != "hi" {
				t.Errorf("expected content %q, got %q", "hi", event.Message.Content)
			}
		case <-time.After(time.Second):
			t.Fatal("expected the event to reach every connection of the user")
		}
	}

	select {
	case event := <-bob.send:
		t.Errorf("event leaked to another user's connection: %+v", event)
	default:
	}
}

// A client that never drains its buffer gets evicted on the broadcast that
// overflows it, and its send channel is closed.
func TestHub_SlowClientEvicted(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newHubClient(hub, 1)
	hub.register <- slow
	waitFor(t, func() bool { return hub.ClientCount(1) == 1 })

	for i := 0; i < sendBufferSize+1; i++ {
		hub.Broadcast(&Event{Type: "message", UserID: 1, Message: &MessageInfo{Content: "fill"}})
	}

	waitFor(t, func() bool { return hub.ClientCount(1) == 0 })

	// Drain the buffered events; the channel must end up closed
	for range slow.send {
	}
}

// Eviction mutates the client map, so it must be safe against concurrent
// ClientCount readers. Run with -race.
func TestHub_EvictionConcurrentWithClientCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	defer close(done)
	for i := 0; i < 4; i++ {
		go func() {
			for {
				select {
				case <-done:
					return
				default:
					hub.ClientCount(1)
					hub.TotalClients()
				}
			}
		}()
	}

	for round := 0; round < 20; round++ {
		slow := newHubClient(hub, 1)
		hub.register <- slow
		for i := 0; i < sendBufferSize+1; i++ {
			hub.Broadcast(&Event{Type: "message", UserID: 1, Message: &MessageInfo{Content: "fill"}})
		}
		waitFor(t, func() bool { return hub.ClientCount(1) == 0 })
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	if hub.ClientCount(42) != 0 {
		t.Error("expected zero clients for an unknown user")
	}

	client := newHubClient(hub, 42)
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount(42) == 1 })
}
