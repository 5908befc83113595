// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"errors"
	"time"
)

// Step is the interview lifecycle phase. Transitions only move forward:
// setup → interview → results. There is no way back.
type Step string

const (
	StepSetup     Step = "setup"
	StepInterview Step = "interview"
	StepResults   Step = "results"
)

// Chat message kinds. Questions, the greeting and the terminal notice are
// all "question"; only the candidate speaks as "answer".
const (
	MessageQuestion = "question"
	MessageAnswer   = "answer"
)

// Chat ordinals. The greeting is 0, questions count from 1, and the
// terminal notice carries a fixed out-of-band ordinal so the log sorts it
// last regardless of question count.
const (
	GreetingOrdinal = 0
	TerminalOrdinal = 999
)

// Fixed interviewer lines, verbatim in the interview language.
const (
	greetingMessage   = "AI 면접을 시작합니다."
	completionMessage = "모든 질문이 완료되었습니다."
)

// Question count bounds for one interview.
const (
	MinQuestionCount = 1
	MaxQuestionCount = 5
)

var (
	// ErrInvalidSetup: the requested role or question count is out of
	// bounds. Nothing was sent to the backend.
	ErrInvalidSetup = errors.New("invalid interview setup")

	// ErrWrongStep: the operation is not legal in the current lifecycle
	// phase. The machine state is unchanged.
	ErrWrongStep = errors.New("operation not allowed in current interview step")

	// ErrInterviewIncomplete: results were requested before every
	// question had an answer.
	ErrInterviewIncomplete = errors.New("interview is not complete")
)

// ChatMessage is one turn in the interview transcript.
type ChatMessage struct {
	TurnID    string
	Kind      string
	Text      string
	Ordinal   int
	Timestamp time.Time
}
