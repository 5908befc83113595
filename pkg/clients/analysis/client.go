// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package analysis_client

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rapidaai/interview/config"
	internal_type "github.com/rapidaai/interview/internal/type"
	token_store "github.com/rapidaai/interview/pkg/clients/token"
	"github.com/rapidaai/interview/pkg/commons"
)

const requestTimeout = 60 * time.Second

// AnalysisServiceClient talks to the interview-analysis backend. Answer
// uploads are deliberately not retried; a failed upload is surfaced so the
// caller can re-record the answer instead of silently resubmitting stale
// audio.
type AnalysisServiceClient interface {
	// Login exchanges credentials for a bearer token and stores it.
	Login(ctx context.Context, email, password string) error

	// SetupInterview generates a question list for the given role. The
	// question count must already be validated by the caller.
	SetupInterview(ctx context.Context, jobPosition, jobURL string, numQuestions int) (*SetupResponse, error)

	// AnalyzeAnswer uploads one recorded answer as a WAV payload and
	// returns the per-answer report.
	AnalyzeAnswer(ctx context.Context, sessionID string, questionIndex int, wav []byte) (*SpeechAnalysisResponse, error)

	// GenerateFeedback produces the aggregate report for a finished
	// interview session.
	GenerateFeedback(ctx context.Context, sessionID string) (*FinalFeedbackResponse, error)
}

type analysisServiceClient struct {
	cfg    *config.AppConfig
	logger commons.Logger
	tokens token_store.Store
	http   *resty.Client
}

func NewAnalysisServiceClient(cfg *config.AppConfig, logger commons.Logger, tokens token_store.Store) AnalysisServiceClient {
	return &analysisServiceClient{
		cfg:    cfg,
		logger: logger,
		tokens: tokens,
		http: resty.New().
			SetBaseURL(cfg.AnalysisHost).
			SetTimeout(requestTimeout),
	}
}

// request builds an outgoing request carrying the stored bearer token when
// one exists. Anonymous requests are legal; the backend decides what they
// may do.
func (client *analysisServiceClient) request(ctx context.Context) *resty.Request {
	req := client.http.R().SetContext(ctx)
	if token := client.tokens.Load(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (client *analysisServiceClient) Login(ctx context.Context, email, password string) error {
	var out LoginResponse
	resp, err := client.request(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/api/user/login")
	if err != nil {
		return fmt.Errorf("analysis: login: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("analysis: login: status %d", resp.StatusCode())
	}
	if err := client.tokens.Save(out.AccessToken); err != nil {
		return err
	}
	client.logger.Infof("analysis: logged in as %s", email)
	return nil
}

func (client *analysisServiceClient) SetupInterview(ctx context.Context, jobPosition, jobURL string, numQuestions int) (*SetupResponse, error) {
	var out SetupResponse
	resp, err := client.request(ctx).
		SetBody(SetupRequest{JobURL: jobURL}).
		SetResult(&out).
		Post(fmt.Sprintf("/api/user/interview/setup/%s/%d", jobPosition, numQuestions))
	if err != nil {
		return nil, fmt.Errorf("analysis: interview setup: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analysis: interview setup: status %d", resp.StatusCode())
	}
	if len(out.Questions) == 0 {
		return nil, fmt.Errorf("analysis: interview setup returned no questions")
	}

	client.logger.Infof("analysis: interview ready: session=%s, questions=%d, position=%s",
		out.SessionID, len(out.Questions), out.JobPosition)
	return &out, nil
}

func (client *analysisServiceClient) AnalyzeAnswer(ctx context.Context, sessionID string, questionIndex int, wav []byte) (*SpeechAnalysisResponse, error) {
	var out SpeechAnalysisResponse
	resp, err := client.request(ctx).
		SetFileReader("audio_file", "audio.wav", bytes.NewReader(wav)).
		SetQueryParam("question_index", strconv.Itoa(questionIndex)).
		SetResult(&out).
		Post(fmt.Sprintf("/api/speech/analyze/%s", sessionID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal_type.ErrUploadFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", internal_type.ErrUploadFailed, resp.StatusCode())
	}

	client.logger.Debugf("analysis: answer %d analyzed: session=%s, score=%.1f, emotion=%s",
		questionIndex, sessionID, out.OverallScore, out.Emotion)
	return &out, nil
}

func (client *analysisServiceClient) GenerateFeedback(ctx context.Context, sessionID string) (*FinalFeedbackResponse, error) {
	var out FinalFeedbackResponse
	resp, err := client.request(ctx).
		SetBody(map[string]string{"session_id": sessionID}).
		SetResult(&out).
		Post("/api/feedback/generate")
	if err != nil {
		return nil, fmt.Errorf("analysis: feedback: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analysis: feedback: status %d", resp.StatusCode())
	}

	client.logger.Infof("analysis: final feedback generated: session=%s, overall=%.1f",
		sessionID, out.OverallScore)
	return &out, nil
}
