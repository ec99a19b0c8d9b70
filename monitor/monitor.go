// Package monitor serves a live observer surface for the pipeline: a
// state snapshot over HTTP and a WebSocket stream of lifecycle events.
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bosley/huddle/pipeline"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// streamedEvent is the wire shape of one pipeline event.
type streamedEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Monitor observes one pipeline and fans its events out to WebSocket
// subscribers.
type Monitor struct {
	pipe     *pipeline.Pipeline
	server   *http.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*wsConnection

	subIDs map[pipeline.EventType]int
}

func New(addr string, pipe *pipeline.Pipeline) *Monitor {
	m := &Monitor{
		pipe:  pipe,
		conns: make(map[string]*wsConnection),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subIDs: make(map[pipeline.EventType]int),
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/state", m.handleState).Methods("GET")
	router.HandleFunc("/ws", m.handleWebSocket)

	m.server = &http.Server{Addr: addr, Handler: router}
	return m
}

// Start subscribes to the pipeline events and serves until the context
// is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	types := []pipeline.EventType{
		pipeline.EventStatusChanged,
		pipeline.EventParticipantDetected,
		pipeline.EventTranscriptSegment,
		pipeline.EventExpressionUpdate,
		pipeline.EventReviewReady,
		pipeline.EventError,
	}
	for _, t := range types {
		m.subIDs[t] = m.pipe.Events().Subscribe(t, m.broadcast)
	}

	go func() {
		if err := m.server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Monitor server error", "error", err)
		}
	}()

	<-ctx.Done()
	return m.Stop(context.Background())
}

// Stop unsubscribes and shuts the server down.
func (m *Monitor) Stop(ctx context.Context) error {
	for t, id := range m.subIDs {
		m.pipe.Events().Unsubscribe(t, id)
	}

	m.mu.Lock()
	for _, c := range m.conns {
		c.close()
	}
	m.mu.Unlock()

	return m.server.Shutdown(ctx)
}

func (m *Monitor) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.pipe.State()); err != nil {
		slog.Error("Failed to encode state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	c := &wsConnection{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, 256),
		monitor: m,
	}

	m.mu.Lock()
	m.conns[c.id] = c
	m.mu.Unlock()

	slog.Debug("Monitor subscriber connected", "connID", c.id, "remoteAddr", r.RemoteAddr)

	go c.writePump()
	go c.readPump()
}

// broadcast forwards one pipeline event to every connected subscriber.
func (m *Monitor) broadcast(ev pipeline.Event) {
	data, err := json.Marshal(streamedEvent{
		Type:      string(ev.Type),
		Timestamp: ev.Timestamp,
		Payload:   ev.Payload,
	})
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "event", ev.Type)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.conns {
		select {
		case c.send <- data:
		default:
			slog.Warn("Monitor subscriber channel full, dropping event",
				"connID", id,
				"event", ev.Type)
		}
	}
}

func (m *Monitor) unregister(c *wsConnection) {
	m.mu.Lock()
	delete(m.conns, c.id)
	m.mu.Unlock()
}

type wsConnection struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	monitor   *Monitor
	closeOnce sync.Once
}

func (c *wsConnection) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConnection) readPump() {
	defer func() {
		c.monitor.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			break
		}
	}
}
