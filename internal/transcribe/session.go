// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_transcribe

import (
	"fmt"
	"sync"
	"time"

	internal_type "github.com/rapidaai/interview/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
)

// restartDelay is how long a continuous-mode session waits before restarting
// an engine that ended on its own (platform timeout).
const restartDelay = 100 * time.Millisecond

// Events carries the session's outward-facing callbacks.
type Events struct {
	// OnTranscript receives every interim/final transcript of the current
	// utterance.
	OnTranscript func(text string, isFinal bool)
	// OnEndDetected fires when the transcript contains an answer-completion
	// keyword and at least one final segment has been produced. Advisory
	// only — the caller decides whether to stop.
	OnEndDetected func()
	// OnError receives engine errors.
	OnError func(err error)
}

// Session wraps one speech-to-text engine instance for one answer turn. In
// continuous mode the engine is restarted after a short delay whenever it
// ends on its own, until Abort begins.
type Session struct {
	logger commons.Logger
	cfg    internal_type.TranscriberConfig
	events Events

	mu       sync.Mutex
	engine   internal_type.Transcriber
	stopping bool
	sawFinal bool
}

// NewSession constructs the engine through the provider. Construction
// failure is returned to the caller so recording can degrade to running
// without a live transcript.
func NewSession(
	logger commons.Logger,
	provider internal_type.TranscriberProvider,
	cfg internal_type.TranscriberConfig,
	events Events,
) (*Session, error) {
	s := &Session{
		logger: logger,
		cfg:    cfg,
		events: events,
	}

	engine, err := provider.NewTranscriber(cfg, internal_type.TranscriptHandler{
		OnTranscript: s.handleTranscript,
		OnError:      s.handleError,
		OnEnd:        s.handleEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: engine construction failed: %w", err)
	}
	s.engine = engine
	return s, nil
}

// Start begins recognition.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = false
	s.sawFinal = false
	return s.engine.Start()
}

// Abort stops the engine and gates off any pending restart. Idempotent.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	engine := s.engine
	s.mu.Unlock()

	if err := engine.Abort(); err != nil {
		s.logger.Warnf("transcribe: engine abort: %v", err)
	}
}

func (s *Session) handleTranscript(text string, isFinal bool) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	if isFinal {
		s.sawFinal = true
	}
	sawFinal := s.sawFinal
	s.mu.Unlock()

	if s.events.OnTranscript != nil {
		s.events.OnTranscript(text, isFinal)
	}
	if sawFinal && ContainsEndKeyword(text) && s.events.OnEndDetected != nil {
		s.events.OnEndDetected()
	}
}

func (s *Session) handleError(err error) {
	s.logger.Errorf("transcribe: engine error: %v", err)
	if s.events.OnError != nil {
		s.events.OnError(err)
	}
}

// handleEnd fires when the engine ends by itself. Continuous sessions are
// restarted after restartDelay; the stopping gate is re-checked when the
// timer fires so a restart can never race past Abort.
func (s *Session) handleEnd() {
	s.mu.Lock()
	restart := s.cfg.Continuous && !s.stopping
	s.mu.Unlock()
	if !restart {
		return
	}

	time.AfterFunc(restartDelay, func() {
		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			return
		}
		engine := s.engine
		s.mu.Unlock()

		if err := engine.Start(); err != nil {
			s.logger.Warnf("transcribe: continuous restart failed: %v", err)
		}
	})
}
