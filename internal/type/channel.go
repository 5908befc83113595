// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

// DuplexChannel is a persistent bidirectional message socket. The telemetry
// uplink owns exactly one for the lifetime of an interview; closing is
// terminal, there is no reconnect.
type DuplexChannel interface {
	// IsOpen reports whether the channel can currently send.
	IsOpen() bool
	// Send writes one outbound message.
	Send(payload []byte) error
	// ReadMessage blocks for the next inbound message. It returns an error
	// once the channel is closed.
	ReadMessage() ([]byte, error)
	// Close tears the channel down. Idempotent.
	Close() error
}
