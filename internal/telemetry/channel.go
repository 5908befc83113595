// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	internal_type "github.com/rapidaai/interview/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
)

const handshakeTimeout = 30 * time.Second

// websocketChannel implements DuplexChannel over one gorilla/websocket
// connection. Sends are serialized by a write mutex; the open flag flips
// once on close and never back.
type websocketChannel struct {
	logger commons.Logger
	conn   *websocket.Conn

	mu      sync.Mutex
	writeMu sync.Mutex
	open    bool
}

// DialChannel opens the persistent telemetry socket. Headers carry the
// bearer token when one is available.
func DialChannel(ctx context.Context, logger commons.Logger, url string, headers http.Header) (internal_type.DuplexChannel, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to connect to %s: %w", url, err)
	}
	return &websocketChannel{
		logger: logger,
		conn:   conn,
		open:   true,
	}, nil
}

func (c *websocketChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *websocketChannel) Send(payload []byte) error {
	if !c.IsOpen() {
		return internal_type.ErrUplinkUnavailable
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("telemetry: write: %w", err)
	}
	return nil
}

func (c *websocketChannel) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		c.markClosed()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, fmt.Errorf("telemetry: connection closed: %w", err)
		}
		return nil, fmt.Errorf("telemetry: read: %w", err)
	}
	return payload, nil
}

func (c *websocketChannel) Close() error {
	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()
	if !wasOpen {
		return nil
	}

	c.writeMu.Lock()
	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Debugf("telemetry: close message: %v", err)
	}
	return c.conn.Close()
}

func (c *websocketChannel) markClosed() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}
