package relay

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout bounds a single websocket write.
const DefaultWriteTimeout = 10 * time.Second

// Hub owns the websocket connections of this process. It registers each
// connection for its lifetime, feeds inbound frames to an Ingestor and
// implements Sender for the Broadcaster.
type Hub struct {
	registry     Registry
	ingestor     *Ingestor
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       Logger

	mu    sync.RWMutex
	conns map[string]*hubConn
}

type hubConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithUpgrader replaces the default websocket.Upgrader.
func WithUpgrader(u websocket.Upgrader) HubOption {
	return func(h *Hub) {
		h.upgrader = u
	}
}

// WithWriteTimeout sets the deadline applied to each write.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		h.writeTimeout = d
	}
}

// WithHubLogger sets an optional logger.
func WithHubLogger(logger Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub returns a Hub registering connections in registry and handing
// their messages to ingestor.
func NewHub(registry Registry, ingestor *Ingestor, opts ...HubOption) *Hub {
	h := &Hub{
		registry:     registry,
		ingestor:     ingestor,
		writeTimeout: DefaultWriteTimeout,
		logger:       nopLogger{},
		conns:        make(map[string]*hubConn),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeWS upgrades the request and serves the connection until it closes.
// The caller has already authorized the request; principal is recorded as
// the author of the connection's messages.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, principal string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	ctx := context.WithoutCancel(r.Context())

	if err := h.registry.Put(ctx, Connection{ID: id, Principal: principal}); err != nil {
		h.logger.Error("failed to register connection", "error", err, "connection", id)
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "registration failed"))
		_ = ws.Close()
		return
	}

	conn := &hubConn{ws: ws}
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	h.logger.Debug("connection opened", "connection", id, "principal", principal)

	defer func() {
		h.mu.Lock()
		delete(h.conns, id)
		h.mu.Unlock()
		if err := h.registry.Delete(ctx, id); err != nil {
			h.logger.Error("failed to unregister connection", "error", err, "connection", id)
		}
		_ = ws.Close()
		h.logger.Debug("connection closed", "connection", id)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if _, err := h.ingestor.Ingest(ctx, id, data); err != nil {
			h.logger.Warn("message rejected", "error", err, "connection", id)
			_ = h.write(conn, []byte(`{"error":"message rejected"}`))
		}
	}
}

// Send writes payload to the connection as a text frame. It returns ErrGone
// when the connection is not held by this hub or has been closed.
func (h *Hub) Send(_ context.Context, connectionID string, payload []byte) error {
	h.mu.RLock()
	conn, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return ErrGone
	}

	err := h.write(conn, payload)
	if errors.Is(err, websocket.ErrCloseSent) || websocket.IsUnexpectedCloseError(err) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return ErrGone
	}
	return err
}

// Len returns the number of connections held.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) write(conn *hubConn, payload []byte) error {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()

	if err := conn.ws.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return conn.ws.WriteMessage(websocket.TextMessage, payload)
}
