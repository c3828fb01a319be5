package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case event := <-c.Send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestHub_RoutesBySession(t *testing.T) {
	hub := startHub(t)

	a1 := NewClient(hub, nil, "agent-a", testLogger())
	a2 := NewClient(hub, nil, "agent-a", testLogger())
	b := NewClient(hub, nil, "agent-b", testLogger())
	hub.Register <- a1
	hub.Register <- a2
	hub.Register <- b

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventNotice, SessionID: "agent-a"}))

	assert.Equal(t, domain.EventNotice, receive(t, a1).Type)
	assert.Equal(t, domain.EventNotice, receive(t, a2).Type)
	assert.Never(t, func() bool { return len(b.Send) > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	assert.Equal(t, 3, hub.GetClientCount())
	assert.Equal(t, 2, hub.GetRoomCount())
	assert.Equal(t, 2, hub.GetClientsInRoom("agent-a"))
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)

	c := NewClient(hub, nil, "agent-a", testLogger())
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.IsSessionConnected("agent-a") }, time.Second, 5*time.Millisecond)

	hub.Unregister <- c
	require.Eventually(t, func() bool { return !hub.IsSessionConnected("agent-a") }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.GetRoomCount())

	// A second unregister is a no-op.
	hub.Unregister <- c
	assert.Equal(t, 0, hub.GetClientCount())
}

func TestHub_SubscribeToOtherSession(t *testing.T) {
	hub := startHub(t)

	supervisor := NewClient(hub, nil, "supervisor", testLogger())
	hub.Register <- supervisor
	require.Eventually(t, func() bool { return hub.IsSessionConnected("supervisor") }, time.Second, 5*time.Millisecond)

	supervisor.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_SESSION","payload":{"sessionId":"agent-a"}}`))
	assert.True(t, supervisor.HasSubscription("agent-a"))

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventCallsChanged, SessionID: "agent-a"}))
	assert.Equal(t, domain.EventCallsChanged, receive(t, supervisor).Type)

	supervisor.handleIncomingMessage([]byte(`{"type":"UNSUBSCRIBE_FROM_SESSION","payload":{"sessionId":"agent-a"}}`))
	assert.False(t, supervisor.HasSubscription("agent-a"))

	supervisor.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_SESSION","payload":{"sessionId":"bad id"}}`))
	assert.False(t, supervisor.HasSubscription("bad id"))

	// The connection's own room cannot be left.
	supervisor.handleIncomingMessage([]byte(`{"type":"UNSUBSCRIBE_FROM_SESSION","payload":{"sessionId":"supervisor"}}`))
	assert.True(t, supervisor.HasSubscription("supervisor"))
}

func TestClient_Ping(t *testing.T) {
	hub := NewHub(testLogger())
	c := NewClient(hub, nil, "agent-a", testLogger())

	c.handleIncomingMessage([]byte(`{"type":"PING"}`))

	assert.Equal(t, EventPong, receive(t, c).Type)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	hub := startHub(t)
	dispatcher := NewDispatcher(hub, "https://applications.zoom.us", testLogger())

	// Nobody connected: dropped without blocking.
	dispatcher.PlaceCall(ctx, "agent-a", "+15550100")

	c := NewClient(hub, nil, "agent-a", testLogger())
	hub.Register <- c
	require.Eventually(t, func() bool { return hub.IsSessionConnected("agent-a") }, time.Second, 5*time.Millisecond)

	dispatcher.RouteTo(ctx, "agent-a", domain.NavigateTicket, "42")
	event := receive(t, c)
	assert.Equal(t, domain.EventNavigate, event.Type)
	assert.Equal(t, domain.NavigatePayload{Action: "routeTo", Target: domain.NavigateTicket, ID: "42"}, event.Payload)

	dispatcher.PlaceCall(ctx, "agent-a", "+15550100")
	event = receive(t, c)
	assert.Equal(t, domain.EventMakeCall, event.Type)
	payload, ok := event.Payload.(domain.MakeCallPayload)
	require.True(t, ok)
	assert.Equal(t, "https://applications.zoom.us", payload.TargetOrigin)
	assert.Equal(t, "zp-make-call", payload.Message.Type)
	assert.Equal(t, "+15550100", payload.Message.Data.Number)

	assert.Empty(t, c.Send)
}
