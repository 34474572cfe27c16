package rpc

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

const (
	wsSendBuffer   = 64
	wsReadLimit    = 64 * 1024
	wsPongWait     = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteWait    = 10 * time.Second
)

// wsAllStreams subscribes a connection to every event stream.
const wsAllStreams = "all"

// WebSocketServer streams pool events to subscribed connections. It
// implements pool.Sink: Emit runs under the engine lock, so it only fans
// the marshalled event out to per-connection buffered channels; all
// network I/O happens on the connections' own goroutines.
type WebSocketServer struct {
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[uint64]*wsConnection
	nextID      uint64
}

type wsConnection struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu      sync.RWMutex
	streams map[string]bool

	closeOnce sync.Once
}

// wsCommand is the client request shape.
type wsCommand struct {
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

// NewWebSocketServer returns a server with no connections.
func NewWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connections: make(map[uint64]*wsConnection),
	}
}

// ServeHTTP upgrades the request and starts the connection's goroutines.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &wsConnection{
		conn:    conn,
		send:    make(chan []byte, wsSendBuffer),
		done:    make(chan struct{}),
		streams: make(map[string]bool),
	}

	ws.mu.Lock()
	ws.nextID++
	c.id = ws.nextID
	ws.connections[c.id] = c
	ws.mu.Unlock()

	go ws.readLoop(c)
	go ws.writeLoop(c)
}

// Emit satisfies pool.Sink: the event is marshalled once and handed to
// every subscribed connection without blocking. Slow consumers miss
// events rather than stalling the engine.
func (ws *WebSocketServer) Emit(ev pool.Event) {
	msg, err := json.Marshal(map[string]interface{}{
		"type":   "event",
		"stream": ev.EventType(),
		"event":  ev,
	})
	if err != nil {
		log.Printf("failed to marshal websocket event: %v", err)
		return
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()
	for _, c := range ws.connections {
		if !c.subscribed(ev.EventType()) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			log.Printf("websocket connection %d too slow, event dropped", c.id)
		}
	}
}

// Close drops every connection. Used on daemon shutdown.
func (ws *WebSocketServer) Close() {
	ws.mu.RLock()
	conns := make([]*wsConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.mu.RUnlock()

	for _, c := range conns {
		ws.drop(c)
	}
}

func (ws *WebSocketServer) readLoop(c *wsConnection) {
	defer ws.drop(c)

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket connection %d read error: %v", c.id, err)
			}
			return
		}
		ws.handleCommand(c, message)
	}
}

func (ws *WebSocketServer) writeLoop(c *wsConnection) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				ws.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.drop(c)
				return
			}
		}
	}
}

func (ws *WebSocketServer) handleCommand(c *wsConnection, message []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.enqueue(wsError("invalidParams", "Invalid JSON: "+err.Error()))
		return
	}

	switch cmd.Command {
	case "subscribe":
		c.subscribe(cmd.Streams)
		c.enqueue(wsAck(map[string]interface{}{"subscribed": c.streamList()}))
	case "unsubscribe":
		c.unsubscribe(cmd.Streams)
		c.enqueue(wsAck(map[string]interface{}{"subscribed": c.streamList()}))
	case "ping":
		c.enqueue(wsAck(map[string]interface{}{}))
	default:
		c.enqueue(wsError("unknownCommand", "Unknown command: "+cmd.Command))
	}
}

func (ws *WebSocketServer) drop(c *wsConnection) {
	c.closeOnce.Do(func() {
		close(c.done)
		ws.mu.Lock()
		delete(ws.connections, c.id)
		ws.mu.Unlock()
		c.conn.Close()
	})
}

// subscribe with no streams means everything.
func (c *wsConnection) subscribe(streams []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(streams) == 0 {
		c.streams[wsAllStreams] = true
		return
	}
	for _, s := range streams {
		c.streams[s] = true
	}
}

func (c *wsConnection) unsubscribe(streams []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(streams) == 0 {
		c.streams = make(map[string]bool)
		return
	}
	for _, s := range streams {
		delete(c.streams, s)
	}
}

func (c *wsConnection) subscribed(stream string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streams[wsAllStreams] || c.streams[stream]
}

func (c *wsConnection) streamList() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.streams))
	for s := range c.streams {
		out = append(out, s)
	}
	return out
}

// enqueue hands a response to the writer without blocking the reader.
func (c *wsConnection) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
	}
}

func wsAck(result map[string]interface{}) []byte {
	msg, _ := json.Marshal(map[string]interface{}{
		"type":   "response",
		"status": "success",
		"result": result,
	})
	return msg
}

func wsError(kind, message string) []byte {
	msg, _ := json.Marshal(map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         kind,
		"error_message": message,
	})
	return msg
}
