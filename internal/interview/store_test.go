// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interview

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore(newTestLogger(t), filepath.Join(t.TempDir(), "interview.db"))
	require.NoError(t, err)
	return store
}

func TestSaveGeneratesSessionID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, &SessionRecord{JobPosition: "backend", QuestionCount: 3})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sr, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "backend", sr.JobPosition)
	assert.Equal(t, 3, sr.QuestionCount)
	assert.Equal(t, StatusActive, sr.Status)
	assert.False(t, sr.CreatedDate.IsZero())
}

func TestGetUnknownSessionFails(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "no-such-session")
	assert.Error(t, err)
}

func TestMessagesOrderedByOrdinal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id, err := store.Save(ctx, &SessionRecord{JobPosition: "backend", QuestionCount: 2})
	require.NoError(t, err)

	// Append out of order; the terminal turn is written before the log
	// is read back.
	for _, turn := range []MessageRecord{
		{SessionID: id, Ordinal: 1, Kind: MessageQuestion, Text: "q1"},
		{SessionID: id, Ordinal: TerminalOrdinal, Kind: MessageQuestion, Text: "done"},
		{SessionID: id, Ordinal: GreetingOrdinal, Kind: MessageQuestion, Text: "hello"},
		{SessionID: id, Ordinal: 1, Kind: MessageAnswer, Text: "a1"},
	} {
		turn := turn
		require.NoError(t, store.AppendMessage(ctx, &turn))
	}

	messages, err := store.Messages(ctx, id)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "hello", messages[0].Text)
	assert.Equal(t, "q1", messages[1].Text)
	assert.Equal(t, "a1", messages[2].Text)
	assert.Equal(t, "done", messages[3].Text)
	for _, message := range messages {
		assert.NotEmpty(t, message.TurnID)
	}
}

func TestCompleteKeepsRowReadable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id, err := store.Save(ctx, &SessionRecord{JobPosition: "backend", QuestionCount: 1})
	require.NoError(t, err)

	require.NoError(t, store.Complete(ctx, id))

	sr, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sr.Status)
	assert.False(t, sr.UpdatedDate.IsZero())
}

func TestSessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first, err := store.Save(ctx, &SessionRecord{JobPosition: "backend", QuestionCount: 1})
	require.NoError(t, err)
	second, err := store.Save(ctx, &SessionRecord{JobPosition: "frontend", QuestionCount: 2})
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, &MessageRecord{SessionID: first, Ordinal: 0, Kind: MessageQuestion, Text: "x"}))

	messages, err := store.Messages(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
