package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	default:
		t.Fatalf("no message queued for client %s", c.ConnectionID)
		return Event{}
	}
}

func TestHub_BroadcastOnlyToTournamentRoom(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, 1, 10)
	b := NewClient(hub, nil, 2, 10)
	other := NewClient(hub, nil, 3, 20)
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	require.NoError(t, hub.BroadcastToTournament(10, EventLeaderboardUpdated, map[string]int{"total": 2}))

	assert.Equal(t, EventLeaderboardUpdated, readEvent(t, a).Type)
	assert.Equal(t, EventLeaderboardUpdated, readEvent(t, b).Type)
	assert.Len(t, other.send, 0)
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, 1, 10)
	hub.Register(c)
	assert.Equal(t, 1, hub.RoomSize(10))

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.RoomSize(10))

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, 1, 10)
	hub.Register(c)

	for i := 0; i < defaultClientBufferSize; i++ {
		require.NoError(t, hub.BroadcastToTournament(10, EventLeaderboardUpdated, i))
	}
	assert.Equal(t, 1, hub.RoomSize(10))

	require.NoError(t, hub.BroadcastToTournament(10, EventLeaderboardUpdated, "overflow"))
	assert.Equal(t, 0, hub.RoomSize(10))
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, 1, 10)
	b := NewClient(hub, nil, 2, 11)
	hub.Register(a)
	hub.Register(b)

	hub.CloseAll()
	assert.Equal(t, 0, hub.RoomSize(10))
	assert.Equal(t, 0, hub.RoomSize(11))
	// повторное закрытие через Unregister не паникует
	hub.Unregister(a)
}
