package quadsim

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketLogger broadcasts each Snapshot as a JSON message to subscribed
// websocket clients, for a live telemetry viewer (the out-of-scope 3-D
// viewer is exactly such a client; SPEC_FULL.md §4.11). It is the one Logger
// implementation allowed to guard its own state with a mutex, because it is
// also driven by an HTTP accept loop outside the simulator's goroutine.
type WebSocketLogger struct {
	upgrader websocket.Upgrader

	mu           sync.Mutex
	clients      map[*wsClient]struct{}
	simulationID string
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

const wsClientBuffer = 16

// NewWebSocketLogger returns a logger ready to accept subscribers via
// ServeHTTP.
func NewWebSocketLogger() *WebSocketLogger {
	return &WebSocketLogger{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers it as a subscriber until
// the client disconnects.
func (l *WebSocketLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsClientBuffer)}

	l.mu.Lock()
	l.clients[c] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.clients, c)
		l.mu.Unlock()
		conn.Close()
	}()

	for msg := range c.send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (l *WebSocketLogger) SetSimulationID(id string) {
	l.mu.Lock()
	l.simulationID = id
	l.mu.Unlock()
}

// Log marshals the snapshot and fans it out to every connected client
// without blocking: a client whose send buffer is full is dropped from that
// broadcast rather than stalling the simulation loop.
func (l *WebSocketLogger) Log(s Snapshot) error {
	msg, err := json.Marshal(s)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for c := range l.clients {
		select {
		case c.send <- msg:
		default:
			// client too slow to keep up; drop the message for it
		}
	}
	return nil
}

// Flush is a no-op: messages are written as they're sent, there is no
// internal buffer to drain.
func (l *WebSocketLogger) Flush() error {
	return nil
}
