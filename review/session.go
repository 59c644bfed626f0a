// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docsift/docsift/extraction"
	"github.com/docsift/docsift/lib/clock"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	// APIURL is the review API root (e.g. "http://localhost:8100").
	// Required.
	APIURL string

	// PushURL is the websocket endpoint. Empty derives it from APIURL
	// by switching the scheme to ws/wss and appending /api/ws.
	PushURL string

	// Token, when set, authenticates both API calls and the websocket
	// handshake.
	Token string

	// StatePath is the session stats file. Empty keeps the counters in
	// memory only.
	StatePath string

	// HTTPClient overrides the API client's transport.
	HTTPClient *http.Client

	// Dialer overrides the websocket dialer.
	Dialer Dialer

	// OnSnapshot fires after every successful queue refresh with the
	// new snapshot.
	OnSnapshot func([]extraction.Record)

	// OnNewItems fires when the new-items indicator turns on or off.
	OnNewItems func(bool)

	// OnConnectionState observes push channel state transitions. It is
	// called synchronously from inside the connection; record the
	// values and return.
	OnConnectionState func(State, error)

	// HeartbeatInterval, BaseDelay, MaxDelay, MaxAttempts tune the
	// push connection. Zero values take the connection defaults.
	HeartbeatInterval time.Duration
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	MaxAttempts       int

	// NewItemsDwell and FetchTimeout tune the queue cache. Zero values
	// take the cache defaults.
	NewItemsDwell time.Duration
	FetchTimeout  time.Duration

	// Clock injects time for tests. Nil uses the real clock.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, logs are discarded.
	Logger *slog.Logger
}

// Session assembles the full review pipeline: the API client, the push
// connection feeding the event dispatcher, the queue cache it
// invalidates, the mutator for review decisions, and the session
// counters. Components stay reachable through accessors for callers
// that need only part of the pipeline.
type Session struct {
	client      *Client
	stats       *Stats
	dispatcher  *Dispatcher
	cache       *QueueCache
	mutator     *Mutator
	connection  *Connection
	unsubscribe func()
	logger      *slog.Logger
}

// NewSession wires a Session from config. Nothing connects or fetches
// until Start.
func NewSession(config SessionConfig) (*Session, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := NewClient(ClientConfig{
		BaseURL:    config.APIURL,
		Token:      config.Token,
		HTTPClient: config.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	stats := NewStats(StatsConfig{Path: config.StatePath, Logger: logger})

	// Every refresh feeds the queue length to the stats auto-reset
	// rule before the caller sees the snapshot.
	onSnapshot := func(records []extraction.Record) {
		stats.ObserveQueueLength(len(records))
		if config.OnSnapshot != nil {
			config.OnSnapshot(records)
		}
	}

	cache, err := NewQueueCache(QueueCacheConfig{
		Fetcher:       client,
		OnSnapshot:    onSnapshot,
		OnNewItems:    config.OnNewItems,
		NewItemsDwell: config.NewItemsDwell,
		FetchTimeout:  config.FetchTimeout,
		Clock:         config.Clock,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	mutator, err := NewMutator(MutatorConfig{
		Remote: client,
		Cache:  cache,
		OnApproved: func(string, extraction.ApprovalResult) {
			stats.IncrementApproved()
		},
		OnRejected: func(string) {
			stats.IncrementRejected()
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	pushURL := config.PushURL
	if pushURL == "" {
		pushURL, err = derivePushURL(config.APIURL)
		if err != nil {
			return nil, err
		}
	}

	dialer := config.Dialer
	if dialer == nil && config.Token != "" {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+config.Token)
		dialer = NewWebsocketDialer(header)
	}

	dispatcher := NewDispatcher(logger)
	connection, err := NewConnection(ConnectionConfig{
		URL:               pushURL,
		Dialer:            dialer,
		HandleFrame:       dispatcher.Dispatch,
		OnStateChange:     config.OnConnectionState,
		HeartbeatInterval: config.HeartbeatInterval,
		BaseDelay:         config.BaseDelay,
		MaxDelay:          config.MaxDelay,
		MaxAttempts:       config.MaxAttempts,
		Clock:             config.Clock,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	unsubscribe := dispatcher.Subscribe(cache.HandleEvent)

	return &Session{
		client:      client,
		stats:       stats,
		dispatcher:  dispatcher,
		cache:       cache,
		mutator:     mutator,
		connection:  connection,
		unsubscribe: unsubscribe,
		logger:      logger,
	}, nil
}

// derivePushURL turns the API root into the websocket endpoint.
func derivePushURL(apiURL string) (string, error) {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("review: invalid APIURL %q: %w", apiURL, err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
		// Already a websocket URL.
	default:
		return "", fmt.Errorf("review: cannot derive push URL from scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/api/ws"
	return parsed.String(), nil
}

// Start opens the push connection and triggers the initial queue
// fetch. Both proceed asynchronously; connection state arrives through
// OnConnectionState and the snapshot through OnSnapshot.
func (s *Session) Start() {
	s.connection.Connect()
	s.cache.Invalidate()
}

// Stop closes the push connection with a normal closure carrying
// reason, detaches the cache from the dispatcher, and stops cache
// timers. The snapshot and counters remain readable afterwards.
func (s *Session) Stop(reason string) {
	s.connection.Disconnect(reason)
	s.unsubscribe()
	s.cache.Close()
}

// Pending projects the current snapshot through filter.
func (s *Session) Pending(filter Filter) []extraction.Record {
	return Project(s.cache.Snapshot(), filter)
}

// Approve delegates to the mutator.
func (s *Session) Approve(ctx context.Context, recordID string) (extraction.ApprovalResult, error) {
	return s.mutator.Approve(ctx, recordID)
}

// Reject delegates to the mutator.
func (s *Session) Reject(ctx context.Context, recordID string) error {
	return s.mutator.Reject(ctx, recordID)
}

// Edit delegates to the mutator.
func (s *Session) Edit(ctx context.Context, recordID string, updates map[string]any) (extraction.Record, error) {
	return s.mutator.Edit(ctx, recordID, updates)
}

// Client returns the API client.
func (s *Session) Client() *Client { return s.client }

// Stats returns the session counters.
func (s *Session) Stats() *Stats { return s.stats }

// Cache returns the queue cache.
func (s *Session) Cache() *QueueCache { return s.cache }

// Mutator returns the mutator.
func (s *Session) Mutator() *Mutator { return s.mutator }

// Connection returns the push connection.
func (s *Session) Connection() *Connection { return s.connection }

// Dispatcher returns the event dispatcher.
func (s *Session) Dispatcher() *Dispatcher { return s.dispatcher }
