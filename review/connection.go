// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
)

// State is the connection's position in its lifecycle. Error is an
// overlay on the failure path: a dial failure shows StateError while
// a reconnect may still be pending, and becomes terminal once the
// retry budget is spent.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Reconnection and heartbeat defaults. The delay before reconnect
// attempt n is min(DefaultBaseDelay << n, DefaultMaxDelay); after
// DefaultMaxAttempts reconnects the cycle ends in a terminal error
// state.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultBaseDelay         = 5 * time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultMaxAttempts       = 5
)

// ErrNormalClosure marks a read failure caused by a deliberate close
// of the channel. Conn implementations return an error satisfying
// errors.Is(err, ErrNormalClosure) for it; every other read failure
// is treated as abnormal and triggers the reconnect cycle.
var ErrNormalClosure = errors.New("review: connection closed normally")

// Conn is one open push channel. The Connection reads frames from it
// on a dedicated goroutine and writes heartbeats from timer
// callbacks; implementations must allow one concurrent reader
// alongside writers.
type Conn interface {
	// ReadMessage blocks until the next inbound frame, returning
	// ErrNormalClosure-wrapped errors for deliberate closes.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one frame.
	WriteMessage(data []byte) error

	// Close tears the channel down without a closing handshake.
	Close() error

	// CloseNormal announces a normal closure with the given reason,
	// then closes.
	CloseNormal(reason string) error
}

// Dialer opens push channels. Tests substitute a fake; production
// uses the gorilla/websocket-backed default.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// pingFrame is the client heartbeat, precomputed since its encoding
// never changes.
var pingFrame = func() []byte {
	data, err := extraction.EncodeFrame(extraction.Ping{})
	if err != nil {
		panic("review: encoding ping frame: " + err.Error())
	}
	return data
}()

// ConnectionConfig configures a Connection. URL is required.
type ConnectionConfig struct {
	// URL is the push channel endpoint, e.g. "ws://host/api/ws".
	URL string

	// Dialer opens the channel. Nil selects the websocket default.
	Dialer Dialer

	// HandleFrame receives every inbound frame, in arrival order, on
	// the connection's read goroutine. Wire the Dispatcher here. Nil
	// drops frames.
	HandleFrame func(data []byte)

	// OnStateChange observes every state transition. It is called
	// synchronously with the connection's lock held: record the
	// values and return, never call back into the Connection.
	OnStateChange func(state State, err error)

	// HeartbeatInterval is the ping cadence while connected.
	// Defaults to DefaultHeartbeatInterval. Pings are send-only
	// keepalives; failure detection relies on the channel's own
	// close and error signals, never on pong timeouts.
	HeartbeatInterval time.Duration

	// BaseDelay and MaxDelay bound the reconnect backoff. Defaults
	// to DefaultBaseDelay and DefaultMaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// MaxAttempts is the reconnect budget per cycle. Defaults to
	// DefaultMaxAttempts.
	MaxAttempts int

	// Clock drives the heartbeat and backoff timers. Nil selects the
	// real clock.
	Clock clock.Clock

	// Logger receives connection lifecycle messages. Nil discards.
	Logger *slog.Logger
}

// Connection maintains exactly one logical push channel. It is meant
// to be process-wide: construct one, inject it into consumers, and
// let them share the socket.
//
// Connect and Disconnect are safe for concurrent use. At most one
// reconnect timer and one heartbeat timer exist at any time, and both
// die with the connection era that created them.
type Connection struct {
	url               string
	dialer            Dialer
	handleFrame       func([]byte)
	onStateChange     func(State, error)
	heartbeatInterval time.Duration
	baseDelay         time.Duration
	maxDelay          time.Duration
	maxAttempts       int
	clock             clock.Clock
	logger            *slog.Logger

	mu       sync.Mutex
	state    State
	lastErr  error
	attempts int

	// generation identifies the current connection era. Dial
	// results, read loops, and timers capture it at creation and are
	// ignored once it moves on, so nothing stale can act on a
	// replaced connection.
	generation int

	conn           Conn
	heartbeatTimer *clock.Timer
	reconnectTimer *clock.Timer
}

// NewConnection builds a Connection. It does not dial; call Connect.
func NewConnection(cfg ConnectionConfig) (*Connection, error) {
	if cfg.URL == "" {
		return nil, errors.New("review: ConnectionConfig.URL is required")
	}
	if cfg.Dialer == nil {
		cfg.Dialer = newWebsocketDialer()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Connection{
		url:               cfg.URL,
		dialer:            cfg.Dialer,
		handleFrame:       cfg.HandleFrame,
		onStateChange:     cfg.OnStateChange,
		heartbeatInterval: cfg.HeartbeatInterval,
		baseDelay:         cfg.BaseDelay,
		maxDelay:          cfg.MaxDelay,
		maxAttempts:       cfg.MaxAttempts,
		clock:             cfg.Clock,
		logger:            cfg.Logger,
		state:             StateDisconnected,
	}, nil
}

// Connect starts a new connection cycle with a fresh reconnect
// budget. It is a no-op while the connection is already connecting or
// connected, so concurrent callers cannot open duplicate sockets. The
// dial itself is asynchronous; outcomes arrive via OnStateChange.
func (c *Connection) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateConnecting || c.state == StateConnected {
		return
	}
	c.attempts = 0
	c.startDialLocked()
}

// Disconnect closes the channel with a normal closure, cancels any
// heartbeat and scheduled reconnect, and settles in
// StateDisconnected. Nothing reconnects until Connect is called
// again.
func (c *Connection) Disconnect(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimersLocked()
	c.generation++
	if c.conn != nil {
		if err := c.conn.CloseNormal(reason); err != nil {
			c.logger.Debug("normal close failed", "error", err)
		}
		c.conn = nil
	}
	c.setStateLocked(StateDisconnected, nil)
	c.logger.Info("push channel disconnected", "reason", reason)
}

// State reports the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError reports the most recent connection failure, nil while
// healthy.
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// startDialLocked opens a new connection era: it invalidates
// everything belonging to the previous one, moves to StateConnecting,
// and dials on a fresh goroutine.
func (c *Connection) startDialLocked() {
	c.stopTimersLocked()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.generation++
	generation := c.generation
	c.setStateLocked(StateConnecting, nil)
	go c.dial(generation)
}

func (c *Connection) dial(generation int) {
	conn, err := c.dialer.Dial(context.Background(), c.url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		// A Disconnect or newer Connect superseded this dial.
		if err == nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		c.logger.Warn("push channel dial failed",
			"url", c.url,
			"attempts", c.attempts,
			"error", err,
		)
		c.failLocked(err, StateError)
		return
	}

	c.conn = conn
	c.attempts = 0
	c.setStateLocked(StateConnected, nil)
	c.startHeartbeatLocked(generation)
	go c.readLoop(conn, generation)
	c.logger.Info("push channel connected", "url", c.url)
}

// readLoop delivers inbound frames until the channel fails or is
// superseded. It owns all reads on conn.
func (c *Connection) readLoop(conn Conn, generation int) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(generation, err)
			return
		}

		c.mu.Lock()
		current := generation == c.generation
		handle := c.handleFrame
		c.mu.Unlock()
		if !current {
			return
		}
		if handle != nil {
			handle(data)
		}
	}
}

func (c *Connection) handleReadError(generation int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		// Local disconnect or replacement already tore this era
		// down; the read error is just its echo.
		return
	}

	if errors.Is(err, ErrNormalClosure) {
		c.stopTimersLocked()
		c.generation++
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.setStateLocked(StateDisconnected, nil)
		c.logger.Info("push channel closed by server")
		return
	}

	c.logger.Warn("push channel read failed", "error", err)
	c.failLocked(err, StateDisconnected)
}

// failLocked ends the current era after a transport failure and
// either schedules a reconnect or, with the budget spent, settles in
// the terminal error state. failState distinguishes an abnormal close
// of an established channel (StateDisconnected) from a dial failure
// (StateError overlay); the bookkeeping is identical.
func (c *Connection) failLocked(err error, failState State) {
	c.stopTimersLocked()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.generation++

	if c.attempts >= c.maxAttempts {
		c.setStateLocked(StateError, &ConnectionError{Err: err, Attempts: c.attempts, Terminal: true})
		c.logger.Error("push channel reconnect budget exhausted",
			"attempts", c.attempts,
			"error", err,
		)
		return
	}

	delay := c.reconnectDelayLocked()
	generation := c.generation
	c.reconnectTimer = c.clock.AfterFunc(delay, func() { c.redial(generation) })
	c.setStateLocked(failState, &ConnectionError{Err: err, Attempts: c.attempts})
	c.logger.Warn("push channel reconnect scheduled",
		"delay", delay,
		"attempts", c.attempts,
	)
}

// redial fires when a scheduled reconnect comes due. The attempt
// counter moves only here: attempts counts reconnects actually made,
// not failures observed.
func (c *Connection) redial(generation int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	c.reconnectTimer = nil
	c.attempts++
	c.startDialLocked()
}

// reconnectDelayLocked computes min(baseDelay << attempts, maxDelay).
func (c *Connection) reconnectDelayLocked() time.Duration {
	shift := uint(c.attempts)
	if shift > 16 {
		shift = 16
	}
	delay := c.baseDelay << shift
	if delay <= 0 || delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

func (c *Connection) startHeartbeatLocked(generation int) {
	c.stopHeartbeatLocked()
	c.heartbeatTimer = c.clock.AfterFunc(c.heartbeatInterval, func() { c.heartbeat(generation) })
}

// heartbeat sends one ping and re-arms. A write failure is a
// transport failure like any other: it enters the reconnect cycle.
func (c *Connection) heartbeat(generation int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.state != StateConnected || c.conn == nil {
		return
	}

	if err := c.conn.WriteMessage(pingFrame); err != nil {
		c.logger.Warn("heartbeat write failed", "error", err)
		c.failLocked(err, StateDisconnected)
		return
	}
	c.startHeartbeatLocked(generation)
}

func (c *Connection) stopTimersLocked() {
	c.stopHeartbeatLocked()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Connection) stopHeartbeatLocked() {
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
		c.heartbeatTimer = nil
	}
}

// setStateLocked records the transition and notifies the observer.
// The callback runs with c.mu held; see ConnectionConfig.
func (c *Connection) setStateLocked(state State, err error) {
	c.state = state
	c.lastErr = err
	if c.onStateChange != nil {
		c.onStateChange(state, err)
	}
}
