// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_telemetry

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/jpeg"
	"sync"
	"time"

	internal_type "github.com/rapidaai/interview/internal/type"
	internal_vision "github.com/rapidaai/interview/internal/vision"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/utils"
)

// sendInterval is the fixed uplink cadence. Stale samples are intentionally
// dropped rather than backlogged: there is no queueing and no retry.
const sendInterval = time.Second

// Sample is one outbound telemetry message. Image is a base64 JPEG without
// a data-URI prefix.
type Sample struct {
	Timestamp  string     `json:"timestamp"`
	BlinkCount int        `json:"blink_count"`
	GazeX      float64    `json:"gaze_x"`
	GazeY      float64    `json:"gaze_y"`
	HeadPose   [3]float64 `json:"head_pose"`
	Posture    string     `json:"posture"`
	Image      string     `json:"image"`
}

// Result is one inbound analysis message. Only the emotion label is
// consumed; it is display-only and never used for flow control.
type Result struct {
	Emotion    string `json:"emotion"`
	BlinkCount int    `json:"blink_count,omitempty"`
	Posture    string `json:"posture,omitempty"`
}

// Uplink owns one duplex channel for the lifetime of an interview. A fixed
// timer serializes the extractor's latest features plus a still frame; a
// background reader consumes inferred-emotion results. Connection errors
// are terminal for the session — there is no reconnect.
type Uplink struct {
	logger    commons.Logger
	channel   internal_type.DuplexChannel
	extractor *internal_vision.Extractor

	cancel context.CancelFunc

	mu      sync.Mutex
	emotion string
}

func NewUplink(logger commons.Logger, channel internal_type.DuplexChannel, extractor *internal_vision.Extractor) *Uplink {
	return &Uplink{
		logger:    logger,
		channel:   channel,
		extractor: extractor,
	}
}

// Start launches the 1 Hz send timer and the inbound reader.
func (u *Uplink) Start(ctx context.Context) {
	uplinkCtx, cancel := context.WithCancel(ctx)
	u.cancel = cancel

	utils.Go(uplinkCtx, func() {
		ticker := time.NewTicker(sendInterval)
		defer ticker.Stop()
		for {
			select {
			case <-uplinkCtx.Done():
				return
			case <-ticker.C:
				u.sendSample()
			}
		}
	})

	utils.Go(uplinkCtx, func() {
		u.readResults(uplinkCtx)
	})
}

// sendSample serializes the latest visual features and still frame into one
// message. A closed channel skips the tick silently — the sample is dropped,
// capture continues.
func (u *Uplink) sendSample() {
	if !u.channel.IsOpen() {
		return
	}

	features := u.extractor.Features()
	if !features.FaceSeen {
		return
	}
	frame := u.extractor.LastFrame()
	if frame == nil {
		return
	}

	var img bytes.Buffer
	if err := jpeg.Encode(&img, frame, nil); err != nil {
		u.logger.Warnf("telemetry: frame encode: %v", err)
		return
	}

	payload, err := json.Marshal(Sample{
		Timestamp:  features.Timestamp.UTC().Format(time.RFC3339Nano),
		BlinkCount: features.BlinkCount,
		GazeX:      features.GazeX,
		GazeY:      features.GazeY,
		HeadPose:   features.HeadPose,
		Posture:    features.Posture,
		Image:      base64.StdEncoding.EncodeToString(img.Bytes()),
	})
	if err != nil {
		u.logger.Errorf("telemetry: sample marshal: %v", err)
		return
	}

	if err := u.channel.Send(payload); err != nil {
		// Transient socket error: drop the sample, never corrupt capture.
		u.logger.Warnf("telemetry: send failed, sample dropped: %v", err)
	}
}

// readResults consumes inbound messages until the channel closes. Malformed
// payloads are logged and discarded without affecting capture.
func (u *Uplink) readResults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, err := u.channel.ReadMessage()
		if err != nil {
			u.logger.Infof("telemetry: channel closed: %v", err)
			return
		}

		var result Result
		if err := json.Unmarshal(payload, &result); err != nil || result.Emotion == "" {
			u.logger.Warnf("telemetry: %v: %.120s", internal_type.ErrMalformedTelemetryReply, payload)
			continue
		}

		u.mu.Lock()
		u.emotion = result.Emotion
		u.mu.Unlock()
	}
}

// Emotion returns the most recent inferred-emotion label, for display only.
func (u *Uplink) Emotion() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.emotion
}

// Close stops both loops and tears the channel down. Closing is terminal.
func (u *Uplink) Close() error {
	if u.cancel != nil {
		u.cancel()
	}
	return u.channel.Close()
}
