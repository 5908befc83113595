// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	internal_encoder "github.com/rapidaai/interview/internal/audio/encoder"
	internal_audio_level "github.com/rapidaai/interview/internal/audio/level"
	internal_transcribe "github.com/rapidaai/interview/internal/transcribe"
	internal_type "github.com/rapidaai/interview/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Session state machine
// ============================================================================

// State is the capture-session lifecycle. External events map onto explicit
// transitions instead of ad hoc boolean guards:
//
//	Idle -> Requesting -> Active -> Stopping -> Idle
//
// Stopping holds for stopCooldown after teardown so that duplicate stop
// requests (explicit UI stop racing the keyword heuristic) collapse into one.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateActive     State = "active"
	StateStopping   State = "stopping"
)

const (
	// stopCooldown is how long the stopping guard holds after teardown.
	stopCooldown = 500 * time.Millisecond
	// endDetectDebounce delays the keyword-triggered stop so a final
	// explicit stop or a revised transcript can win first.
	endDetectDebounce = 500 * time.Millisecond
	// durationTick drives the recording-duration UI counter.
	durationTick = time.Second
)

// Callbacks carries the controller's outward-facing notifications. All fire
// on controller goroutines; implementations must not call back into the
// controller synchronously except Stop, which is safe from any callback.
type Callbacks struct {
	OnRecordingStart func()
	OnRecordingStop  func()
	// OnRecordingComplete fires exactly once per session with the encoded
	// artifact — never when zero samples were captured.
	OnRecordingComplete func(artifact *internal_encoder.Artifact)
	OnTranscript        func(text string, isFinal bool)
	OnDuration          func(seconds int)
	OnLevel             func(level int)
}

// Options selects per-session behaviour.
type Options struct {
	// Continuous requests live transcription with automatic engine restart.
	Continuous bool
	Language   string
}

// captureSession owns every resource of one answer turn: microphone stream,
// encoder buffer, transcription engine and timers. Constructed fresh per
// turn and discarded at teardown, so nothing leaks across sessions.
type captureSession struct {
	ctx        context.Context
	cancel     context.CancelFunc
	stream     internal_type.AudioStream
	transcript *internal_transcribe.Session // nil when unavailable
	nativeRate int

	mu        sync.Mutex
	stopTimer *time.Timer // pending keyword-debounce stop
	seconds   int
}

// Controller orchestrates transcription, encoding and level analysis for one
// answer turn. At most one capture session is active at any time; starting a
// second one is rejected, not queued.
type Controller struct {
	logger   commons.Logger
	source   internal_type.AudioSource
	provider internal_type.TranscriberProvider // nil on platforms without STT
	encoder  *internal_encoder.Encoder
	analyzer *internal_audio_level.Analyzer
	opts     Options
	cb       Callbacks

	mu      sync.Mutex
	state   State
	session *captureSession
}

func NewController(
	logger commons.Logger,
	source internal_type.AudioSource,
	provider internal_type.TranscriberProvider,
	opts Options,
	cb Callbacks,
) *Controller {
	return &Controller{
		logger:   logger,
		source:   source,
		provider: provider,
		encoder:  internal_encoder.NewEncoder(logger),
		analyzer: internal_audio_level.NewAnalyzer(logger),
		opts:     opts,
		cb:       cb,
		state:    StateIdle,
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Encoder exposes the playback handle of the most recent artifact.
func (c *Controller) Encoder() *internal_encoder.Encoder {
	return c.encoder
}

// ============================================================================
// Start
// ============================================================================

// Start acquires the microphone and begins one capture session. Preconditions:
// no session active, not mid-stop. On permission denial it fails with
// ErrPermissionDenied and performs no further action.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("recorder: start rejected in state %q", state)
	}
	c.state = StateRequesting
	c.mu.Unlock()

	session, err := c.openSession(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.session = session
	c.state = StateActive
	c.mu.Unlock()

	c.startDurationTimer(session)
	c.analyzer.StartMonitor(session.ctx, func(level int) {
		if c.cb.OnLevel != nil {
			c.cb.OnLevel(level)
		}
	})

	if c.cb.OnRecordingStart != nil {
		c.cb.OnRecordingStart()
	}
	c.logger.Infof("recorder: capture started, native=%dHz transcript=%v",
		session.nativeRate, session.transcript != nil)
	return nil
}

// openSession checks permission, opens the microphone and builds the
// transcription engine. Engine construction failure degrades gracefully —
// recording continues without a live transcript.
func (c *Controller) openSession(ctx context.Context) (*captureSession, error) {
	if err := c.checkPermission(ctx); err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &captureSession{ctx: sessionCtx, cancel: cancel}

	c.encoder.Reset()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stream, err := c.source.Open(gCtx, func(samples []float32) {
			// Capture callback: append + level only, format conversion is
			// deferred to stop time.
			c.encoder.Append(samples)
			c.analyzer.Feed(samples)
		})
		if err != nil {
			return fmt.Errorf("recorder: microphone open: %w", err)
		}
		session.stream = stream
		session.nativeRate = stream.SampleRate()
		return nil
	})
	g.Go(func() error {
		session.transcript = c.newTranscriptSession()
		return nil
	})
	if err := g.Wait(); err != nil {
		cancel()
		return nil, err
	}

	if session.transcript != nil {
		if err := session.transcript.Start(); err != nil {
			c.logger.Warnf("recorder: transcription start failed, continuing without transcript: %v", err)
			session.transcript = nil
		}
	}
	return session, nil
}

// checkPermission resolves the microphone grant. A pending grant is resolved
// by a probe open that is released immediately.
func (c *Controller) checkPermission(ctx context.Context) error {
	state, err := c.source.QueryPermission(ctx)
	if err != nil {
		c.logger.Warnf("recorder: permission query failed, probing device: %v", err)
		state = internal_type.PermissionPending
	}

	switch state {
	case internal_type.PermissionGranted:
		return nil
	case internal_type.PermissionDenied:
		return internal_type.ErrPermissionDenied
	default:
		probe, err := c.source.Open(ctx, func([]float32) {})
		if err != nil {
			return internal_type.ErrPermissionDenied
		}
		if err := probe.Close(); err != nil {
			c.logger.Warnf("recorder: probe close: %v", err)
		}
		return nil
	}
}

// newTranscriptSession builds the live-transcription session, or returns nil
// when the engine is unavailable.
func (c *Controller) newTranscriptSession() *internal_transcribe.Session {
	if c.provider == nil {
		return nil
	}
	session, err := internal_transcribe.NewSession(c.logger, c.provider,
		internal_type.TranscriberConfig{
			Language:       c.opts.Language,
			Continuous:     c.opts.Continuous,
			InterimResults: true,
		},
		internal_transcribe.Events{
			OnTranscript: func(text string, isFinal bool) {
				if c.cb.OnTranscript != nil {
					c.cb.OnTranscript(text, isFinal)
				}
			},
			OnEndDetected: c.scheduleHeuristicStop,
			OnError: func(err error) {
				c.logger.Errorf("recorder: transcription error: %v", err)
			},
		})
	if err != nil {
		c.logger.Warnf("recorder: %v, recording continues without live transcript", err)
		return nil
	}
	return session
}

func (c *Controller) startDurationTimer(session *captureSession) {
	utils.Go(session.ctx, func() {
		ticker := time.NewTicker(durationTick)
		defer ticker.Stop()
		for {
			select {
			case <-session.ctx.Done():
				return
			case <-ticker.C:
				session.mu.Lock()
				session.seconds++
				seconds := session.seconds
				session.mu.Unlock()
				if c.cb.OnDuration != nil {
					c.cb.OnDuration(seconds)
				}
			}
		}
	})
}

// ============================================================================
// Stop
// ============================================================================

// scheduleHeuristicStop arms the debounced keyword-triggered stop. Advisory
// only: an explicit Stop always wins and is never blocked by a pending
// heuristic stop.
func (c *Controller) scheduleHeuristicStop() {
	c.mu.Lock()
	session := c.session
	active := c.state == StateActive
	c.mu.Unlock()
	if !active || session == nil {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.stopTimer != nil {
		session.stopTimer.Reset(endDetectDebounce)
		return
	}
	session.stopTimer = time.AfterFunc(endDetectDebounce, func() {
		c.logger.Debugf("recorder: answer-end keyword stop")
		c.Stop()
	})
}

// Stop tears one capture session down: timers, transcription engine,
// microphone stream, then the buffered samples are flushed into exactly one
// artifact. Idempotent — a second call while stopping or within the cooldown
// is a no-op. Safe to invoke from explicit user action, the keyword
// heuristic and component teardown alike.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping
	session := c.session
	c.session = nil
	c.mu.Unlock()

	session.mu.Lock()
	if session.stopTimer != nil {
		session.stopTimer.Stop()
		session.stopTimer = nil
	}
	session.mu.Unlock()

	session.cancel()
	c.analyzer.StopMonitor()
	if session.transcript != nil {
		session.transcript.Abort()
	}
	if err := session.stream.Close(); err != nil {
		c.logger.Warnf("recorder: stream close: %v", err)
	}

	artifact, err := c.encoder.Finish(session.nativeRate)
	if err != nil && err != internal_encoder.ErrNoSamples {
		c.logger.Errorf("recorder: encode failed: %v", err)
	}

	if c.cb.OnRecordingStop != nil {
		c.cb.OnRecordingStop()
	}
	if artifact != nil && c.cb.OnRecordingComplete != nil {
		c.cb.OnRecordingComplete(artifact)
	}

	// Hold the stopping guard for the cooldown, then release to Idle.
	time.AfterFunc(stopCooldown, func() {
		c.mu.Lock()
		if c.state == StateStopping {
			c.state = StateIdle
		}
		c.mu.Unlock()
	})
}
