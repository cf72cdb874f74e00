package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dukapulse/dukapulse/internal/application"
	"github.com/dukapulse/dukapulse/internal/telemetry/metrics"
)

// Hub pushes each published evaluation result to connected dashboard
// clients so widgets update without polling.
type Hub struct {
	engine *application.Engine
	telem  *metrics.Registry

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	done    chan struct{}
	once    sync.Once
}

// NewHub creates a hub bound to an engine's result stream.
func NewHub(engine *application.Engine, telem *metrics.Registry) *Hub {
	return &Hub{
		engine: engine,
		telem:  telem,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard is served same-origin behind the app's proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

// Run starts the broadcast loop.
func (h *Hub) Run() {
	results := h.engine.Subscribe()
	go func() {
		for {
			select {
			case <-h.done:
				return
			case res := <-results:
				h.broadcast(res)
			}
		}
	}()
}

// Stop terminates the broadcast loop and closes all client connections.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.telem.ConnectedClients.Set(0)
}

// HandleWS upgrades the connection and registers the client. The latest
// result is sent immediately so new widgets render without waiting for
// the next tick.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.telem.ConnectedClients.Set(float64(len(h.clients)))
	h.mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(h.engine.Latest()); err != nil {
		h.drop(conn)
		return
	}

	// Reader loop exists only to notice the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

func (h *Hub) broadcast(res application.Result) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(res); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
		h.telem.ConnectedClients.Set(float64(len(h.clients)))
	}
}
