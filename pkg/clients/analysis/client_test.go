// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package analysis_client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/interview/config"
	internal_type "github.com/rapidaai/interview/internal/type"
	token_store "github.com/rapidaai/interview/pkg/clients/token"
	"github.com/rapidaai/interview/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-analysis"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func newTestClient(t *testing.T, server *httptest.Server) (AnalysisServiceClient, token_store.Store) {
	t.Helper()
	logger := newTestLogger(t)
	tokens := token_store.NewStore(logger, t.TempDir())
	cfg := &config.AppConfig{AnalysisHost: server.URL}
	return NewAnalysisServiceClient(cfg, logger, tokens), tokens
}

func TestSetupInterviewRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody SetupRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(SetupResponse{
			SessionID:   "s-1",
			Questions:   []string{"q1", "q2", "q3"},
			JobPosition: "backend",
		})
	}))
	defer server.Close()

	client, tokens := newTestClient(t, server)
	require.NoError(t, tokens.Save("bearer-token"))

	out, err := client.SetupInterview(context.Background(), "backend", "https://jobs.example/1", 3)
	require.NoError(t, err)
	assert.Equal(t, "/api/user/interview/setup/backend/3", gotPath)
	assert.Equal(t, "Bearer bearer-token", gotAuth)
	assert.Equal(t, "https://jobs.example/1", gotBody.JobURL)
	assert.Equal(t, "s-1", out.SessionID)
	assert.Len(t, out.Questions, 3)
}

func TestSetupInterviewWithoutTokenIsAnonymous(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(SetupResponse{SessionID: "s-1", Questions: []string{"q"}})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.SetupInterview(context.Background(), "backend", "u", 1)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestSetupInterviewEmptyQuestionListIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SetupResponse{SessionID: "s-1"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.SetupInterview(context.Background(), "backend", "u", 2)
	assert.Error(t, err)
}

func TestAnalyzeAnswerMultipartShape(t *testing.T) {
	wav := []byte{'R', 'I', 'F', 'F', 1, 2, 3, 4}
	var gotIndex, gotFilename string
	var gotPayload []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIndex = r.URL.Query().Get("question_index")
		require.Equal(t, "/api/speech/analyze/s-9", r.URL.Path)

		file, header, err := r.FormFile("audio_file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotPayload, err = io.ReadAll(file)
		require.NoError(t, err)

		json.NewEncoder(w).Encode(SpeechAnalysisResponse{
			SessionID:     "s-9",
			QuestionIndex: 2,
			Text:          "transcribed answer",
			OverallScore:  81.5,
		})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	out, err := client.AnalyzeAnswer(context.Background(), "s-9", 2, wav)
	require.NoError(t, err)
	assert.Equal(t, "2", gotIndex)
	assert.Equal(t, "audio.wav", gotFilename)
	assert.Equal(t, wav, gotPayload)
	assert.Equal(t, "transcribed answer", out.Text)
}

func TestAnalyzeAnswerServerErrorIsUploadFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.AnalyzeAnswer(context.Background(), "s-9", 0, []byte{1})
	assert.True(t, errors.Is(err, internal_type.ErrUploadFailed))
}

func TestGenerateFeedback(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/feedback/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(FinalFeedbackResponse{
			SessionID:    "s-3",
			OverallScore: 74.2,
			Strengths:    []string{"pace"},
		})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	out, err := client.GenerateFeedback(context.Background(), "s-3")
	require.NoError(t, err)
	assert.Equal(t, "s-3", gotBody["session_id"])
	assert.Equal(t, 74.2, out.OverallScore)
}

func TestLoginStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/user/login", r.URL.Path)
		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "fresh-token", TokenType: "bearer"})
	}))
	defer server.Close()

	client, tokens := newTestClient(t, server)
	require.NoError(t, client.Login(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, "fresh-token", tokens.Load())
}

func TestLoginRejectedDoesNotStoreToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, tokens := newTestClient(t, server)
	assert.Error(t, client.Login(context.Background(), "a@b.c", "bad"))
	assert.Equal(t, "", tokens.Load())
}
