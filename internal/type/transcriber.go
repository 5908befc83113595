// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

// TranscriberConfig selects the behaviour of a speech-to-text engine for one
// capture session.
type TranscriberConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// TranscriptHandler carries the callbacks a Transcriber invokes. All callbacks
// fire on the engine's single event goroutine, in event order.
type TranscriptHandler struct {
	// OnTranscript receives the accumulated transcript of the current
	// utterance. isFinal marks segments the engine will not revise.
	OnTranscript func(text string, isFinal bool)
	// OnError receives engine errors. A permission error is terminal.
	OnError func(err error)
	// OnEnd fires when the engine stops on its own (platform timeout).
	OnEnd func()
}

// Transcriber is one live speech-to-text engine instance. Engines are
// constructed per session and never reused after Abort.
type Transcriber interface {
	Start() error
	// Abort stops the engine immediately and drops any pending results.
	Abort() error
}

// TranscriberProvider constructs engines. Platforms without speech-to-text
// return ErrTranscriptionUnavailable; recording then proceeds without a live
// transcript.
type TranscriberProvider interface {
	NewTranscriber(cfg TranscriberConfig, handler TranscriptHandler) (Transcriber, error)
}
