package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitForRoom(t *testing.T, hub *Hub, room string, size int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.RoomSize(room) == size }, time.Second, 5*time.Millisecond)
}

func TestHub_PublishReachesOnlyTournamentRoom(t *testing.T) {
	hub := newTestHub(t)
	inRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: TournamentRoom(7)}
	other := &Client{Hub: hub, Send: make(chan []byte, 4), Room: TournamentRoom(8)}
	hub.Register <- inRoom
	hub.Register <- other
	waitForRoom(t, hub, "tournament_7", 1)

	hub.Publish(7, EventMatchUpdated, map[string]string{"uid": "R1M1"})

	select {
	case raw := <-inRoom.Send:
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventMatchUpdated, msg.Type)
		assert.Equal(t, "tournament_7", msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Empty(t, other.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := newTestHub(t)
	c := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "tournament_1"}
	hub.Register <- c
	waitForRoom(t, hub, "tournament_1", 1)

	hub.Unregister <- c
	waitForRoom(t, hub, "tournament_1", 0)

	_, open := <-c.Send
	assert.False(t, open)
	assert.False(t, c.deliver([]byte("x")), "closed client must not receive")
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	hub := newTestHub(t)
	c := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "tournament_1"}
	hub.Register <- c
	waitForRoom(t, hub, "tournament_1", 1)

	hub.Publish(1, EventBracketUpdated, nil)
	hub.Publish(1, EventBracketUpdated, nil)
	assert.Len(t, c.Send, 1)
}

func TestHub_WebSocketRoundTrip(t *testing.T) {
	hub := newTestHub(t)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, TournamentRoom(3))
		hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForRoom(t, hub, "tournament_3", 1)

	hub.Publish(3, EventStageCompleted, map[string]int{"stage_index": 0})
	hub.Publish(3, EventBracketUpdated, map[string]int{"stage_index": 1})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{EventStageCompleted, EventBracketUpdated} {
		var msg WebSocketMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, want, msg.Type)
	}
}
