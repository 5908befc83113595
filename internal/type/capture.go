// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"
	"image"
)

// PermissionState is the capability state of a hardware device grant.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPending PermissionState = "pending"
)

// AudioStream is an open microphone stream. It is exclusively owned by the
// component that opened it for the lifetime of one capture session.
type AudioStream interface {
	// SampleRate reports the native device rate of the delivered samples.
	SampleRate() int
	// Close releases the underlying hardware track. Idempotent.
	Close() error
}

// AudioSource models the platform microphone capability. Implementations
// deliver raw float32 sample chunks (range [-1, 1]) in strict capture order
// on a single callback goroutine.
type AudioSource interface {
	// QueryPermission reports the current microphone grant without opening
	// the device.
	QueryPermission(ctx context.Context) (PermissionState, error)
	// Open acquires the microphone and begins delivering chunks to onChunk.
	Open(ctx context.Context, onChunk func(samples []float32)) (AudioStream, error)
}

// VideoFrameSource models the camera capability. Frames are delivered in
// capture order on a single callback goroutine.
type VideoFrameSource interface {
	Start(ctx context.Context, onFrame func(frame image.Image)) error
	Stop() error
}
