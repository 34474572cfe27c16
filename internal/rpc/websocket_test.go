package rpc

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

func dialTestSocket(t *testing.T, ws *WebSocketServer) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(ws)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSocketMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestWebSocketStreamsSubscribedEvents(t *testing.T) {
	ws := NewWebSocketServer()
	conn := dialTestSocket(t, ws)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"command": "subscribe",
		"streams": []string{"swap"},
	}))
	ack := readSocketMessage(t, conn)
	assert.Equal(t, "success", ack["status"])

	// Only the subscribed stream is delivered.
	ws.Emit(pool.LiquidityAdded{Provider: "alice", LpMinted: 1000})
	ws.Emit(pool.Swap{Sender: "bob", BaseIn: 100_000_000, QuoteOut: 90_661_089})

	msg := readSocketMessage(t, conn)
	assert.Equal(t, "event", msg["type"])
	assert.Equal(t, "swap", msg["stream"])

	event, ok := msg["event"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bob", event["Sender"])
	assert.Equal(t, float64(90_661_089), event["QuoteOut"])
}

func TestWebSocketSubscribeAllStreams(t *testing.T) {
	ws := NewWebSocketServer()
	conn := dialTestSocket(t, ws)

	// An empty stream list subscribes to everything.
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "subscribe"}))
	readSocketMessage(t, conn)

	ws.Emit(pool.Compounded{RewardsHarvested: 10_000_000, ProtocolFee: 1_000_000, RewardsToPool: 9_000_000})

	msg := readSocketMessage(t, conn)
	assert.Equal(t, "compounded", msg["stream"])
}

func TestWebSocketUnknownCommand(t *testing.T) {
	ws := NewWebSocketServer()
	conn := dialTestSocket(t, ws)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "teleport"}))

	msg := readSocketMessage(t, conn)
	assert.Equal(t, "error", msg["status"])
	assert.Equal(t, "unknownCommand", msg["error"])
}

func TestWebSocketUnsubscribedReceivesNothing(t *testing.T) {
	ws := NewWebSocketServer()
	conn := dialTestSocket(t, ws)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"command": "subscribe",
		"streams": []string{"swap"},
	}))
	readSocketMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"command": "unsubscribe",
		"streams": []string{"swap"},
	}))
	readSocketMessage(t, conn)

	ws.Emit(pool.Swap{Sender: "bob", BaseIn: 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
