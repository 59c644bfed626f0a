// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport timeouts for the websocket-backed Conn. Writes that
// cannot complete within writeWait count as transport failures.
const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
)

// websocketDialer is the default Dialer, backed by gorilla/websocket.
type websocketDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

func newWebsocketDialer() Dialer {
	return &websocketDialer{
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// NewWebsocketDialer returns the production Dialer with optional
// request headers applied to the handshake, for deployments that put
// the push endpoint behind bearer authentication.
func NewWebsocketDialer(header http.Header) Dialer {
	return &websocketDialer{
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		header: header,
	}
}

func (d *websocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("review: dialing %s: %w", url, err)
	}
	return &websocketConn{conn: conn}, nil
}

// websocketConn adapts *websocket.Conn to the Conn interface: text
// frames only, writes serialized and deadline-bounded, normal close
// frames mapped to ErrNormalClosure.
type websocketConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (w *websocketConn) ReadMessage() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil, ErrNormalClosure
		}
		return nil, err
	}
	return data, nil
}

func (w *websocketConn) WriteMessage(data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *websocketConn) Close() error {
	return w.conn.Close()
}

func (w *websocketConn) CloseNormal(reason string) error {
	w.writeMu.Lock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	writeErr := w.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	)
	w.writeMu.Unlock()

	closeErr := w.conn.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
