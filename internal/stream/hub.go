package stream

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/geointel-engine/core"
	"github.com/signalsfoundry/geointel-engine/internal/logging"
)

// Message is the envelope pushed to map clients. Exactly one payload
// field is set, matching Type.
type Message struct {
	Type      string              `json:"type"` // tracks | hotspots | selection
	Tracks    *core.TrackReport   `json:"tracks,omitempty"`
	HotSpots  *core.HotSpotReport `json:"hotspots,omitempty"`
	Selection string              `json:"selection,omitempty"`
}

// ClientsRecorder receives connection-count updates; optional.
type ClientsRecorder interface {
	SetStreamClients(n int)
}

// Hub fans freshly generated analytic batches out to connected map
// clients over websockets. Selection state is owned by the presentation
// layer: the hub relays selection changes unchanged and retains nothing.
type Hub struct {
	log logging.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	broadcast  chan Message
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once

	onSelect func(id string)
	metrics  ClientsRecorder
}

// Option customises Hub construction.
type Option func(*Hub)

// WithSelectionCallback registers the presentation layer's onSelect
// handler. The hub invokes it with the raw identifier, unchanged.
func WithSelectionCallback(fn func(id string)) Option {
	return func(h *Hub) {
		h.onSelect = fn
	}
}

// WithClientsRecorder attaches an optional connection-count recorder.
func WithClientsRecorder(m ClientsRecorder) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// NewHub constructs a hub. Run must be called before broadcasting.
func NewHub(log logging.Logger, opts ...Option) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	h := &Hub{
		log:        log,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Message, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Run drives the hub's register/broadcast loop until Close is called.
// Intended to run on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.recordClients(count)
			h.log.Debug(context.Background(), "stream client connected", logging.Int("clients", count))

		case conn := <-h.unregister:
			h.dropClient(conn)

		case msg := <-h.broadcast:
			h.mu.Lock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.Unlock()

			for _, conn := range conns {
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Warn(context.Background(), "dropping stream client",
						logging.String("error", err.Error()))
					h.dropClient(conn)
				}
			}
		}
	}
}

// Close shuts the hub down and disconnects all clients. Safe to call
// more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// BroadcastTracks pushes a track batch to all connected clients.
func (h *Hub) BroadcastTracks(report core.TrackReport) {
	h.send(Message{Type: "tracks", Tracks: &report})
}

// BroadcastHotSpots pushes a hotspot batch to all connected clients.
func (h *Hub) BroadcastHotSpots(report core.HotSpotReport) {
	h.send(Message{Type: "hotspots", HotSpots: &report})
}

// Select relays a selection change: the registered presentation callback
// fires with the identifier, and every client is told which object is
// highlighted. The hub stores nothing.
func (h *Hub) Select(id string) {
	if h.onSelect != nil {
		h.onSelect(id)
	}
	h.send(Message{Type: "selection", Selection: id})
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The map frontend is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request and registers the connection with the
// hub. Inbound messages are drained only to detect disconnects; clients
// talk to the engine through the HTTP API, not the stream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.String("error", err.Error()))
		return
	}

	// Once done is closed Run no longer drains register/unregister, so
	// every send must also select on done or the goroutine leaks.
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
					websocket.CloseAbnormalClosure) {
					h.log.Warn(context.Background(), "stream read error", logging.String("error", err.Error()))
				}
				select {
				case h.unregister <- conn:
				case <-h.done:
					conn.Close()
				}
				return
			}
		}
	}()
}

func (h *Hub) send(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) dropClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.recordClients(count)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	h.recordClients(0)
}

func (h *Hub) recordClients(n int) {
	if h.metrics != nil {
		h.metrics.SetStreamClients(n)
	}
}
