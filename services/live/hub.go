// Package live streams derived metrics to UI clients over websockets.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"forcedeck/models"
	"forcedeck/utils"
)

var hubLog = utils.Named("live")

const (
	writeWait = 2 * time.Second
	// clientQueue frames may wait per client; a client that falls further
	// behind is disconnected.
	clientQueue = 16
)

// client is one websocket connection with its own outbound queue, drained
// by a dedicated writer goroutine.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans metric frames out to every connected client. Publish never
// touches a socket: it rate-limits, marshals and enqueues. Run copies each
// frame into the per-client queues and drops clients whose queue is full.
type Hub struct {
	mu      sync.Mutex // guards clients
	clients map[*client]struct{}

	lastSentNs atomic.Int64
	minGap     time.Duration

	broadcast chan []byte
	upgrader  websocket.Upgrader
}

// NewHub returns a hub emitting at most rateHz frames per second.
func NewHub(rateHz int) *Hub {
	if rateHz <= 0 {
		rateHz = 30
	}
	return &Hub{
		clients:   make(map[*client]struct{}),
		minGap:    time.Second / time.Duration(rateHz),
		broadcast: make(chan []byte, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler upgrades the request and registers the connection.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			hubLog.Warn("upgrade from %s failed: %v", r.RemoteAddr, err)
			return
		}
		c := &client{
			conn: conn,
			send: make(chan []byte, clientQueue),
			done: make(chan struct{}),
		}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		n := len(h.clients)
		h.mu.Unlock()
		hubLog.Info("client %s connected (clients=%d)", r.RemoteAddr, n)

		go h.writePump(c)
		go h.readPump(c)
	})
}

// writePump is the only goroutine that writes to c.conn.
func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards inbound frames and unregisters the client on close.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

// dropLocked unregisters c once; later calls are no-ops. Caller holds h.mu.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.done)
	c.conn.Close()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues m for broadcast. It returns false when the frame was
// decimated or the broadcast queue was full.
func (h *Hub) Publish(m models.Metrics) bool {
	now := time.Now().UnixNano()
	last := h.lastSentNs.Load()
	if last != 0 && time.Duration(now-last) < h.minGap {
		return false
	}
	if !h.lastSentNs.CompareAndSwap(last, now) {
		// another publisher claimed this slot
		return false
	}

	msg, err := json.Marshal(m)
	if err != nil {
		hubLog.Error("marshal metrics: %v", err)
		return false
	}
	select {
	case h.broadcast <- msg:
		return true
	default:
		return false
	}
}

// Run distributes queued frames until ctx ends, then closes all
// connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					hubLog.Warn("client %s too slow, disconnecting", c.conn.RemoteAddr())
					h.dropLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ListenAndServe serves the hub on addr at /ws until ctx ends.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	hubLog.Info("feed listening on %s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
