// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "errors"

// Capture failures are scoped to the current turn or session; none are fatal
// to the application process.
var (
	// ErrPermissionDenied: microphone/camera refused. Terminal for the
	// attempt; the user must retry manually.
	ErrPermissionDenied = errors.New("capture permission denied")

	// ErrDeviceUnavailable: no compatible capture/encoding format found.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrTranscriptionUnavailable: no speech-to-text engine on this
	// platform. Recording continues without a live transcript.
	ErrTranscriptionUnavailable = errors.New("transcription engine unavailable")

	// ErrUplinkUnavailable: telemetry socket not open at send time. The
	// sample is dropped and capture continues.
	ErrUplinkUnavailable = errors.New("telemetry uplink unavailable")

	// ErrUploadFailed: backend analysis call failed. Surfaced as a
	// turn-level failure; the turn must be redone.
	ErrUploadFailed = errors.New("answer upload failed")

	// ErrMalformedTelemetryReply: unparsable inbound telemetry message.
	// Logged and discarded.
	ErrMalformedTelemetryReply = errors.New("malformed telemetry reply")
)
