// Package broadcast fans follower goal projections out to every connected
// widget websocket client. A single actor goroutine owns the client set;
// all access goes through its command channel.
package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brockodle/twitchfollowergoal/internal/goal"
	"github.com/brockodle/twitchfollowergoal/internal/metrics"
)

const (
	maxClients    = 50
	writeDeadline = 5 * time.Second
)

// ProjectionSource yields the current projection on each publish.
type ProjectionSource func() (goal.Projection, error)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdPublish struct{}

func (cmdPublish) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	id     uuid.UUID
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		id:     uuid.New(),
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub owns the set of connected widget clients and pushes the current
// projection to all of them whenever Publish is called.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*clientWriter
	source  ProjectionSource
}

// NewHub creates and starts a hub reading projections from source.
func NewHub(source ProjectionSource) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[*websocket.Conn]*clientWriter),
		source:  source,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdPublish:
			h.handlePublish()
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if len(h.clients) >= maxClients {
		slog.Warn("Rejecting widget client: max clients reached", "max", maxClients)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max widget clients (%d) reached", maxClients)
		return
	}

	cw := newClientWriter(c.conn)
	h.clients[c.conn] = cw
	metrics.WidgetClients.Set(float64(len(h.clients)))
	slog.Info("Widget client registered", "client_id", cw.id, "total", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.WidgetClients.Set(float64(len(h.clients)))
	slog.Info("Widget client unregistered", "client_id", cw.id, "remaining", len(h.clients))
}

func (h *Hub) handlePublish() {
	if len(h.clients) == 0 {
		return
	}

	projection, err := h.source()
	if err != nil {
		slog.Error("Failed to compute projection for broadcast", "error", err)
		return
	}

	data, err := json.Marshal(projection)
	if err != nil {
		slog.Error("Failed to marshal projection", "error", err)
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow widget client")
		h.handleUnregister(conn)
	}

	metrics.BroadcastsTotal.Inc()
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
	}
	metrics.WidgetClients.Set(0)
}

// --- Public API ---

// Register adds a widget client connection.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a widget client connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// Publish pushes the current projection to all connected clients.
func (h *Hub) Publish() {
	h.cmdCh <- cmdPublish{}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}
	return <-replyCh
}

// Stop shuts down the hub, closing all client connections.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
