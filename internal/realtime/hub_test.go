package realtime_test

import (
	"testing"
	"time"

	"github.com/allyourbase/dialplan/internal/realtime"
	"github.com/allyourbase/dialplan/internal/testutil"
)

func TestSubscribeAndPublish(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	client := hub.Subscribe("s1")
	defer hub.Unsubscribe(client.ID)

	testutil.Equal(t, 1, hub.ClientCount())
	testutil.True(t, client.ID != "", "client should have an ID")
	testutil.Equal(t, "s1", client.Session())

	hub.Publish(&realtime.Event{Action: realtime.ActionInput, Session: "s1", Output: "650 2", Position: 5})

	select {
	case event := <-client.Events():
		testutil.Equal(t, realtime.ActionInput, event.Action)
		testutil.Equal(t, "650 2", event.Output)
		testutil.Equal(t, 5, event.Position)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishToOtherSession(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	client := hub.Subscribe("s1")
	defer hub.Unsubscribe(client.ID)

	hub.Publish(&realtime.Event{Action: realtime.ActionInput, Session: "s2", Output: "1"})

	select {
	case <-client.Events():
		t.Fatal("should not receive event for another session")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestUnsubscribeRemovesClient(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	client := hub.Subscribe("s1")
	testutil.Equal(t, 1, hub.ClientCount())

	hub.Unsubscribe(client.ID)
	testutil.Equal(t, 0, hub.ClientCount())

	_, ok := <-client.Events()
	testutil.False(t, ok, "channel should be closed after unsubscribe")
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	client := hub.Subscribe("s1")
	hub.Unsubscribe(client.ID)
	hub.Unsubscribe(client.ID)
	testutil.Equal(t, 0, hub.ClientCount())
}

func TestMultipleClients(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	c1 := hub.Subscribe("s1")
	defer hub.Unsubscribe(c1.ID)
	c2 := hub.Subscribe("s1")
	defer hub.Unsubscribe(c2.ID)
	c3 := hub.Subscribe("s2")
	defer hub.Unsubscribe(c3.ID)

	testutil.Equal(t, 3, hub.ClientCount())
	testutil.NotEqual(t, c1.ID, c2.ID)

	hub.Publish(&realtime.Event{Action: realtime.ActionClear, Session: "s1"})

	for _, c := range []*realtime.Client{c1, c2} {
		select {
		case event := <-c.Events():
			testutil.Equal(t, realtime.ActionClear, event.Action)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client %s should receive the s1 event", c.ID)
		}
	}

	select {
	case <-c3.Events():
		t.Fatal("c3 should not receive s1 events")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestPublishNoClientsIsNoop(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())
	hub.Publish(&realtime.Event{Action: realtime.ActionInput, Session: "s1"})
}

func TestBufferFullDropsEvent(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	client := hub.Subscribe("s1")
	defer hub.Unsubscribe(client.ID)

	for i := 0; i < 256; i++ {
		hub.Publish(&realtime.Event{Action: realtime.ActionInput, Session: "s1", Position: i})
	}
	// The publisher must not block on a full buffer.
	hub.Publish(&realtime.Event{Action: realtime.ActionInput, Session: "s1", Position: 256})

	count := 0
	for count < 256 {
		select {
		case <-client.Events():
			count++
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("expected 256 events, got %d", count)
		}
	}

	select {
	case <-client.Events():
		t.Fatal("should not receive the dropped event")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestCloseSessionDeliversBufferedEvents(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	c1 := hub.Subscribe("s1")
	c2 := hub.Subscribe("s2")
	defer hub.Unsubscribe(c2.ID)

	hub.Publish(&realtime.Event{Action: realtime.ActionDelete, Session: "s1"})
	hub.CloseSession("s1")
	testutil.Equal(t, 1, hub.ClientCount())

	event, ok := <-c1.Events()
	testutil.True(t, ok, "buffered event should be delivered")
	testutil.Equal(t, realtime.ActionDelete, event.Action)
	_, ok = <-c1.Events()
	testutil.False(t, ok, "channel should be closed after the session ends")

	// Unsubscribing after the session closed must not double-close.
	hub.Unsubscribe(c1.ID)
}

func TestCloseDisconnectsAllClients(t *testing.T) {
	hub := realtime.NewHub(testutil.DiscardLogger())

	c1 := hub.Subscribe("s1")
	c2 := hub.Subscribe("s2")
	testutil.Equal(t, 2, hub.ClientCount())

	hub.Close()
	hub.Close()
	testutil.Equal(t, 0, hub.ClientCount())

	_, ok1 := <-c1.Events()
	testutil.False(t, ok1, "c1 channel should be closed")
	_, ok2 := <-c2.Events()
	testutil.False(t, ok2, "c2 channel should be closed")
}
