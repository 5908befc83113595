// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	analysis_client "github.com/rapidaai/interview/pkg/clients/analysis"
	"github.com/rapidaai/interview/pkg/commons"
)

// RecordingStopper lets the machine cut a live recording when the last
// answer lands. The recorder's own stop path stays the authority on
// teardown order; the machine only requests it.
type RecordingStopper interface {
	Stop()
}

// Machine drives one interview through its lifecycle: setup → interview →
// results, forward only. It owns the chat log and the question cursor;
// the backend owns the session id, the questions and all scoring.
//
// The store and the recorder are optional. Persistence is best-effort:
// a failed local write is logged and the interview continues, because the
// backend copy of the session is the one that matters.
type Machine struct {
	logger   commons.Logger
	client   analysis_client.AnalysisServiceClient
	recorder RecordingStopper
	store    Store

	mu          sync.Mutex
	step        Step
	sessionID   string
	jobPosition string
	questions   []string
	index       int
	chat        []ChatMessage
	complete    bool
}

func NewMachine(logger commons.Logger, client analysis_client.AnalysisServiceClient, recorder RecordingStopper, store Store) *Machine {
	return &Machine{
		logger:   logger,
		client:   client,
		recorder: recorder,
		store:    store,
		step:     StepSetup,
	}
}

// Begin validates the setup, fetches the question list and moves to the
// interview step, seeding the chat with the greeting and the first
// question. Validation failures never reach the backend.
func (m *Machine) Begin(ctx context.Context, jobPosition, jobURL string, numQuestions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepSetup {
		return fmt.Errorf("%w: begin from %s", ErrWrongStep, m.step)
	}
	if strings.TrimSpace(jobPosition) == "" {
		return fmt.Errorf("%w: job position is empty", ErrInvalidSetup)
	}
	if numQuestions < MinQuestionCount || numQuestions > MaxQuestionCount {
		return fmt.Errorf("%w: question count %d out of range %d-%d",
			ErrInvalidSetup, numQuestions, MinQuestionCount, MaxQuestionCount)
	}

	session, err := m.client.SetupInterview(ctx, jobPosition, jobURL, numQuestions)
	if err != nil {
		return fmt.Errorf("interview: setup: %w", err)
	}

	m.sessionID = session.SessionID
	m.jobPosition = session.JobPosition
	m.questions = session.Questions
	m.index = 0
	m.complete = false
	m.chat = nil
	m.step = StepInterview

	if m.store != nil {
		_, err := m.store.Save(ctx, &SessionRecord{
			SessionID:     m.sessionID,
			JobPosition:   m.jobPosition,
			QuestionCount: len(m.questions),
		})
		if err != nil {
			m.logger.Warnf("interview: session not persisted locally: %v", err)
		}
	}

	m.appendMessage(ctx, MessageQuestion, greetingMessage, GreetingOrdinal)
	m.appendMessage(ctx, MessageQuestion, m.questions[0], 1)

	m.logger.Infof("interview: started: session=%s, position=%s, questions=%d",
		m.sessionID, m.jobPosition, len(m.questions))
	return nil
}

// SubmitAnswer uploads one recorded answer for the current question and
// advances the cursor. On upload failure nothing changes: the cursor stays,
// the chat log stays, and the caller may re-record the answer. There is
// no automatic retry.
func (m *Machine) SubmitAnswer(ctx context.Context, answerText string, wav []byte) (*analysis_client.SpeechAnalysisResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepInterview {
		return nil, fmt.Errorf("%w: answer during %s", ErrWrongStep, m.step)
	}
	if m.complete {
		return nil, fmt.Errorf("%w: all questions already answered", ErrWrongStep)
	}

	report, err := m.client.AnalyzeAnswer(ctx, m.sessionID, m.index, wav)
	if err != nil {
		return nil, err
	}

	// The backend transcript backstops a degraded local one.
	if strings.TrimSpace(answerText) == "" {
		answerText = report.Text
	}
	m.appendMessage(ctx, MessageAnswer, answerText, m.index+1)

	m.index++
	if m.index < len(m.questions) {
		m.appendMessage(ctx, MessageQuestion, m.questions[m.index], m.index+1)
	} else {
		m.finishQuestions(ctx)
	}

	return report, nil
}

// finishQuestions runs exactly once per interview: the completion flag
// gates every later SubmitAnswer, so the terminal message can never be
// appended twice. Caller holds the lock.
func (m *Machine) finishQuestions(ctx context.Context) {
	m.complete = true
	m.appendMessage(ctx, MessageQuestion, completionMessage, TerminalOrdinal)

	if m.recorder != nil {
		m.recorder.Stop()
	}
	if m.store != nil {
		if err := m.store.Complete(ctx, m.sessionID); err != nil {
			m.logger.Warnf("interview: completion not persisted locally: %v", err)
		}
	}

	m.logger.Infof("interview: all questions answered: session=%s", m.sessionID)
}

// Finish fetches the aggregate report and moves to the results step.
// It is legal only once, and only after every question has an answer.
func (m *Machine) Finish(ctx context.Context) (*analysis_client.FinalFeedbackResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != StepInterview {
		return nil, fmt.Errorf("%w: finish from %s", ErrWrongStep, m.step)
	}
	if !m.complete {
		return nil, fmt.Errorf("%w: %d of %d questions answered",
			ErrInterviewIncomplete, m.index, len(m.questions))
	}

	report, err := m.client.GenerateFeedback(ctx, m.sessionID)
	if err != nil {
		return nil, fmt.Errorf("interview: feedback: %w", err)
	}

	m.step = StepResults
	return report, nil
}

// appendMessage records one chat turn and mirrors it to the local store.
// Caller holds the lock.
func (m *Machine) appendMessage(ctx context.Context, kind, text string, ordinal int) {
	message := ChatMessage{
		TurnID:    uuid.New().String(),
		Kind:      kind,
		Text:      text,
		Ordinal:   ordinal,
		Timestamp: time.Now(),
	}
	m.chat = append(m.chat, message)

	if m.store != nil {
		err := m.store.AppendMessage(ctx, &MessageRecord{
			TurnID:    message.TurnID,
			SessionID: m.sessionID,
			Ordinal:   message.Ordinal,
			Kind:      message.Kind,
			Text:      message.Text,
		})
		if err != nil {
			m.logger.Warnf("interview: chat turn not persisted locally: %v", err)
		}
	}
}

// Step reports the current lifecycle phase.
func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// SessionID reports the backend session identifier, empty before Begin.
func (m *Machine) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// QuestionIndex reports how many questions have been answered; it equals
// the question count once the interview is complete.
func (m *Machine) QuestionIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// CurrentQuestion returns the question awaiting an answer.
func (m *Machine) CurrentQuestion() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.step != StepInterview || m.complete {
		return "", false
	}
	return m.questions[m.index], true
}

// IsComplete reports whether every question has an answer.
func (m *Machine) IsComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.complete
}

// ChatLog returns a copy of the transcript so far.
func (m *Machine) ChatLog() []ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := make([]ChatMessage, len(m.chat))
	copy(log, m.chat)
	return log
}
