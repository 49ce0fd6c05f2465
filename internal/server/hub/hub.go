// Package hub fans accepted pins out to every connected websocket session.
//
// Delivery is best effort: a full broadcast queue or a full session queue
// drops the pin, and a session whose write fails or times out is
// disconnected. Sessions that miss an event catch up on their next pull.
package hub

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

const (
	defaultBuffer = 256
	sessionBuffer = 32
	writeTimeout  = 5 * time.Second
)

// session owns one connection. Only its writer goroutine writes to conn.
type session struct {
	conn *websocket.Conn
	out  chan models.Pin
	done chan struct{}
	once sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		out:  make(chan models.Pin, sessionBuffer),
		done: make(chan struct{}),
	}
}

func (s *session) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub manages websocket sessions and broadcasts pins to them.
type Hub struct {
	logger logging.Logger

	clients   map[*session]struct{}
	clientsMu sync.RWMutex

	broadcast chan models.Pin
	dropped   atomic.Int64
}

func New(l logging.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		logger:    l.With("module", "hub"),
		clients:   make(map[*session]struct{}),
		broadcast: make(chan models.Pin, buffer),
	}
}

// Publish queues p for broadcast without blocking.
func (h *Hub) Publish(ctx context.Context, p models.Pin) {
	select {
	case h.broadcast <- p.Clone():
	default:
		h.dropped.Add(1)
		h.logger.Warn(ctx, "broadcast queue full, dropping pin", "id", p.ID)
	}
}

// Run delivers queued pins until ctx is cancelled, then disconnects every
// session.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case p := <-h.broadcast:
			h.deliver(ctx, p)
		}
	}
}

// deliver hands p to every session queue without waiting on any socket.
func (h *Hub) deliver(ctx context.Context, p models.Pin) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for sess := range h.clients {
		select {
		case sess.out <- p:
		default:
			h.dropped.Add(1)
			h.logger.Warn(ctx, "session queue full, dropping pin", "id", p.ID)
		}
	}
}

// ServeHTTP upgrades the request and keeps the session registered until the
// peer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(conn)

	h.clientsMu.Lock()
	h.clients[sess] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Info(r.Context(), "session connected", "sessions", n, "remote", r.RemoteAddr)

	go h.writeLoop(r.Context(), sess)
	h.readLoop(r.Context(), sess)
}

func (h *Hub) writeLoop(ctx context.Context, sess *session) {
	for {
		select {
		case <-sess.done:
			return
		case p := <-sess.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, sess.conn, p)
			cancel()

			if err != nil {
				h.logger.Warn(ctx, "failed to send to session", "id", p.ID, "error", err)
				h.removeClient(ctx, sess)
				return
			}
		}
	}
}

// readLoop discards inbound frames and returns once the session is gone.
func (h *Hub) readLoop(ctx context.Context, sess *session) {
	defer h.removeClient(ctx, sess)

	for {
		if _, _, err := sess.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(ctx context.Context, sess *session) {
	h.clientsMu.Lock()
	if _, ok := h.clients[sess]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, sess)
	n := len(h.clients)
	h.clientsMu.Unlock()

	sess.stop()
	_ = sess.conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Info(ctx, "session disconnected", "sessions", n)
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	sessions := make([]*session, 0, len(h.clients))
	for sess := range h.clients {
		sessions = append(sessions, sess)
		delete(h.clients, sess)
	}
	h.clientsMu.Unlock()

	for _, sess := range sessions {
		sess.stop()
		_ = sess.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// Sessions returns the number of connected sessions.
func (h *Hub) Sessions() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many deliveries were discarded because a queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
