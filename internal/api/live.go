package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/observability"
)

const (
	defaultLiveInterval = 15 * time.Second
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 512
	sendBuffer          = 8
)

// LiveMessage is pushed to websocket clients.
type LiveMessage struct {
	Type      string `json:"type"` // always "cards"
	Timestamp int64  `json:"timestamp"`
	CardsResponse
}

type liveClient struct {
	conn  *websocket.Conn
	query dashboard.Query
	send  chan []byte
}

// LiveHub pushes card updates to subscribed websocket clients.
type LiveHub struct {
	service  *dashboard.Service
	interval time.Duration
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.RWMutex
	clients map[*liveClient]struct{}
}

// NewLiveHub creates a hub that refreshes every interval.
func NewLiveHub(service *dashboard.Service, interval time.Duration, logger zerolog.Logger) *LiveHub {
	if interval <= 0 {
		interval = defaultLiveInterval
	}
	return &LiveHub{
		service:  service,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.With().Str("component", "live").Logger(),
		clients: make(map[*liveClient]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *LiveHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and sends the current cards immediately.
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	// fail before upgrading so the client gets a proper status
	first, err := h.message(r.Context(), q)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &liveClient{conn: conn, query: q, send: make(chan []byte, sendBuffer)}
	c.send <- first

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observability.LiveConnected(1)

	h.logger.Debug().Str("network", string(q.Network)).Str("period", string(q.Period)).Msg("live client connected")

	go h.writePump(c)
	go h.readPump(c)
}

// Run refreshes subscribed clients until ctx is done, then disconnects them.
func (h *LiveHub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case <-ticker.C:
			h.Broadcast(ctx)
		}
	}
}

// Broadcast computes cards once per distinct subscription and pushes them.
// Clients whose buffer is full are dropped.
func (h *LiveHub) Broadcast(ctx context.Context) {
	h.mu.RLock()
	groups := make(map[string][]*liveClient)
	queries := make(map[string]dashboard.Query)
	for c := range h.clients {
		key := subscriptionKey(c.query)
		groups[key] = append(groups[key], c)
		queries[key] = c.query
	}
	h.mu.RUnlock()

	for key, clients := range groups {
		msg, err := h.message(ctx, queries[key])
		if err != nil {
			h.logger.Error().Err(err).Str("subscription", key).Msg("live refresh failed")
			continue
		}
		for _, c := range clients {
			h.deliver(c, msg)
		}
	}
}

func (h *LiveHub) deliver(c *liveClient, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.logger.Warn().Msg("live client too slow, dropping")
		h.removeLocked(c)
	}
}

func (h *LiveHub) message(ctx context.Context, q dashboard.Query) ([]byte, error) {
	result, err := h.service.Cards(ctx, q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LiveMessage{
		Type:          "cards",
		Timestamp:     h.service.Now().UnixMilli(),
		CardsResponse: CardsResponse{Network: q.Network, Period: q.Period, Cards: result},
	})
}

func (h *LiveHub) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *LiveHub) removeLocked(c *liveClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	observability.LiveConnected(-1)
}

func (h *LiveHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// writePump owns all writes to the connection.
func (h *LiveHub) writePump(c *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards client messages and detects disconnects.
func (h *LiveHub) readPump(c *liveClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func subscriptionKey(q dashboard.Query) string {
	return string(q.Network) + "|" + string(q.Period) + "|" + strings.Join(q.Tokens, ",")
}
