// Package ws carries push notifications to browsers over websockets. A
// client connects, identifies its user id, and the hub records the
// connection so the notifier can reach the user later.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

const (
	// identifyTimeout bounds how long a fresh connection may sit silent
	// before sending its identify message.
	identifyTimeout = 10 * time.Second

	writeTimeout = 10 * time.Second
)

// identifyMessage is the first frame a client must send after connecting.
type identifyMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// envelope is the wire shape of every pushed event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	// wmu serializes writes; gorilla connections allow one concurrent writer.
	wmu sync.Mutex
}

// Hub upgrades websocket requests, tracks live clients by connection id, and
// implements keyword.Pusher. It is an injected handle, not a package
// singleton, so tests and the notifier share the same instance the server
// uses.
type Hub struct {
	upgrader    websocket.Upgrader
	connections keyword.ConnectionStore
	idGen       keyword.IDGenerator
	clock       keyword.Clock
	logger      *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub constructs a Hub.
func NewHub(connections keyword.ConnectionStore, idGen keyword.IDGenerator, clock keyword.Clock, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections: connections,
		idGen:       idGen,
		clock:       clock,
		logger:      logger,
		clients:     make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and services the connection until the
// client goes away. The connection is only usable for pushes after the
// client identifies itself.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	userID, err := h.readIdentify(conn)
	if err != nil {
		h.logger.Warn("websocket identify failed", zap.Error(err))
		return
	}

	connectionID, err := h.register(r.Context(), userID, conn)
	if err != nil {
		h.logger.Error("register websocket connection failed",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	h.logger.Info("websocket client connected",
		zap.String("user_id", userID),
		zap.String("connection_id", connectionID))

	defer h.unregister(userID, connectionID)

	// Drain the connection; clients only speak once, at identify time. The
	// read loop returns when the peer closes or the connection breaks.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Push writes the event to the identified connection. It returns an error
// when the connection is no longer live; callers treat delivery as best
// effort.
func (h *Hub) Push(ctx context.Context, connectionID, event string, payload any) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %q is not live", connectionID)
	}

	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s event: %w", event, err)
	}
	return nil
}

func (h *Hub) readIdentify(conn *websocket.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(identifyTimeout)); err != nil {
		return "", fmt.Errorf("set read deadline: %w", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("read identify message: %w", err)
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return "", fmt.Errorf("clear read deadline: %w", err)
	}

	var msg identifyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("decode identify message: %w", err)
	}
	if msg.Type != "identify" || msg.UserID == "" {
		return "", fmt.Errorf("unexpected first message type %q", msg.Type)
	}
	return msg.UserID, nil
}

func (h *Hub) register(ctx context.Context, userID string, conn *websocket.Conn) (string, error) {
	connectionID, err := h.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate connection id: %w", err)
	}
	if err := h.connections.Create(ctx, keyword.Connection{
		UserID:       userID,
		ConnectionID: connectionID,
		CreatedAt:    h.clock.Now(),
	}); err != nil {
		return "", fmt.Errorf("record connection: %w", err)
	}

	h.mu.Lock()
	h.clients[connectionID] = &client{conn: conn}
	h.mu.Unlock()
	return connectionID, nil
}

func (h *Hub) unregister(userID, connectionID string) {
	h.mu.Lock()
	delete(h.clients, connectionID)
	h.mu.Unlock()

	// A stale row only costs the notifier one failed push, but clean up
	// eagerly anyway. Use a fresh context: the request context is already
	// canceled at this point.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.connections.DeleteByConnectionID(ctx, connectionID); err != nil {
		h.logger.Warn("delete connection record failed",
			zap.String("connection_id", connectionID), zap.Error(err))
	}
	h.logger.Info("websocket client disconnected",
		zap.String("user_id", userID),
		zap.String("connection_id", connectionID))
}
