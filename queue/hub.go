// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/netutil"
)

const (
	// hubWriteWait bounds a single frame write to a client.
	hubWriteWait = 10 * time.Second

	// hubReadLimit bounds inbound frames. Connected clients only
	// ever send heartbeat pings.
	hubReadLimit = 4096

	// hubSendBuffer is the per-client outbound queue. A client that
	// falls this many frames behind is disconnected rather than
	// allowed to stall broadcasts.
	hubSendBuffer = 64

	// defaultPingInterval matches the heartbeat cadence of the
	// review client. Reads time out after three missed intervals.
	defaultPingInterval = 30 * time.Second
)

// Hub owns the push channel: it upgrades review clients to
// websockets, answers their heartbeat pings, and fans queue events
// out to every connected client. Events are fire-and-forget
// invalidation signals — a client that misses one recovers on its
// next refetch, so the hub never blocks on a slow client.
type Hub struct {
	logger       *slog.Logger
	pingInterval time.Duration
	upgrader     websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

// HubConfig holds the parameters for creating a Hub.
type HubConfig struct {
	// PingInterval is how often connected clients are expected to
	// send a heartbeat ping. A connection that stays silent for
	// three intervals is considered dead and read out. Defaults to
	// 30 seconds.
	PingInterval time.Duration

	// Logger is used for structured logging. If nil, logs are
	// discarded.
	Logger *slog.Logger
}

// NewHub creates a Hub with no connected clients.
func NewHub(cfg HubConfig) *Hub {
	interval := cfg.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		logger:       logger,
		pingInterval: interval,
		clients:      make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			// Access is gated by the bearer token middleware, not
			// by origin: the dashboard and the CLI connect from
			// wherever they run.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// ServeHTTP upgrades the request to a websocket and serves it until
// the client disconnects or falls too far behind.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed",
			"remote", r.RemoteAddr,
			"error", err,
		)
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan []byte, hubSendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("push client connected",
		"remote", r.RemoteAddr,
		"clients", clientCount,
	)

	go h.writePump(client)
	h.readPump(client, r.RemoteAddr)
}

// readPump reads frames from one client until the connection dies.
// The only meaningful inbound frame is the heartbeat ping, answered
// with a pong to that client alone; everything else is dropped.
func (h *Hub) readPump(client *hubClient, remote string) {
	defer func() {
		h.removeClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(hubReadLimit)
	readWait := 3 * h.pingInterval
	client.conn.SetReadDeadline(time.Now().Add(readWait))

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if !netutil.IsExpectedCloseError(err) &&
				websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("push client read error",
					"remote", remote,
					"error", err,
				)
			}
			return
		}
		client.conn.SetReadDeadline(time.Now().Add(readWait))

		event, err := extraction.ParseFrame(data)
		if err != nil {
			h.logger.Debug("dropping unparseable client frame",
				"remote", remote,
				"error", err,
			)
			continue
		}
		if _, ok := event.(extraction.Ping); ok {
			pong, err := extraction.EncodeFrame(extraction.Pong{})
			if err != nil {
				continue
			}
			h.sendTo(client, pong)
		}
	}
}

// writePump writes queued frames to one client. When the send channel
// closes (eviction or hub shutdown), it tells the client the closure
// is deliberate before hanging up.
func (h *Hub) writePump(client *hubClient) {
	defer client.conn.Close()

	for data := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
	client.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
}

// Broadcast fans one queue event out to every connected client.
// Clients whose send buffer is full are evicted.
func (h *Hub) Broadcast(event extraction.Event) {
	data, err := extraction.EncodeFrame(event)
	if err != nil {
		h.logger.Error("unencodable broadcast event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("push client too slow, disconnecting")
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// sendTo queues a frame for a single client, evicting it when its
// buffer is full.
func (h *Hub) sendTo(client *hubClient, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("push client too slow, disconnecting")
		delete(h.clients, client)
		close(client.send)
	}
}

// removeClient takes a client out of the broadcast set. Safe to call
// after an eviction already removed it.
func (h *Hub) removeClient(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	h.logger.Info("push client disconnected", "clients", len(h.clients))
}

// ClientCount returns the number of connected push clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new connections. Called
// during service shutdown, after the HTTP listener stops accepting.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
