// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_telemetry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"sync"
	"testing"
	"time"

	internal_vision "github.com/rapidaai/interview/internal/vision"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-telemetry"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

type fakeChannel struct {
	mu     sync.Mutex
	open   bool
	sent   [][]byte
	out    chan []byte
	closed bool
}

func newFakeChannel(open bool) *fakeChannel {
	return &fakeChannel{open: open, out: make(chan []byte, 8)}
}

func (f *fakeChannel) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeChannel) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeChannel) ReadMessage() ([]byte, error) {
	payload, ok := <-f.out
	if !ok {
		return nil, context.Canceled
	}
	return payload, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.open = false
		close(f.out)
	}
	return nil
}

func (f *fakeChannel) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeChannel) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

// --- extractor fixture ---

type stubFace struct{ landmarks []internal_vision.Landmark }

func (s *stubFace) DetectFace(image.Image) ([]internal_vision.Landmark, error) {
	return s.landmarks, nil
}

type stubPose struct{}

func (stubPose) DetectPose(image.Image) ([]internal_vision.Landmark, error) { return nil, nil }

func seededExtractor(t *testing.T) *internal_vision.Extractor {
	t.Helper()
	landmarks := make([]internal_vision.Landmark, 480)
	for i := range landmarks {
		landmarks[i] = internal_vision.Landmark{X: 0.5, Y: 0.5}
	}
	e := internal_vision.NewExtractor(newTestLogger(t), &stubFace{landmarks: landmarks},
		stubPose{}, internal_vision.DefaultOptions())
	e.ProcessFrame(image.NewRGBA(image.Rect(0, 0, 32, 24)))
	return e
}

func emptyExtractor(t *testing.T) *internal_vision.Extractor {
	t.Helper()
	return internal_vision.NewExtractor(newTestLogger(t), &stubFace{}, stubPose{},
		internal_vision.DefaultOptions())
}

// --- tests ---

func TestTickWhileClosedSendsNothing(t *testing.T) {
	channel := newFakeChannel(false)
	u := NewUplink(newTestLogger(t), channel, seededExtractor(t))
	u.sendSample()
	assert.Equal(t, 0, channel.sentCount())
}

func TestTickWithoutFaceSendsNothing(t *testing.T) {
	channel := newFakeChannel(true)
	u := NewUplink(newTestLogger(t), channel, emptyExtractor(t))
	u.sendSample()
	assert.Equal(t, 0, channel.sentCount())
}

func TestSampleWireFormat(t *testing.T) {
	channel := newFakeChannel(true)
	u := NewUplink(newTestLogger(t), channel, seededExtractor(t))
	u.sendSample()
	require.Equal(t, 1, channel.sentCount())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(channel.lastSent(), &raw))
	for _, field := range []string{"timestamp", "blink_count", "gaze_x", "gaze_y", "head_pose", "posture", "image"} {
		assert.Contains(t, raw, field)
	}

	var sample Sample
	require.NoError(t, json.Unmarshal(channel.lastSent(), &sample))
	assert.Equal(t, internal_vision.PostureNormal, sample.Posture)

	// image must be bare base64 JPEG, no data-URI prefix
	assert.NotContains(t, sample.Image, "data:")
	decoded, err := base64.StdEncoding.DecodeString(sample.Image)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, decoded[:2], "JPEG SOI marker")

	_, err = time.Parse(time.RFC3339Nano, sample.Timestamp)
	assert.NoError(t, err)
}

func TestInboundEmotionConsumed(t *testing.T) {
	channel := newFakeChannel(true)
	u := NewUplink(newTestLogger(t), channel, seededExtractor(t))
	u.Start(context.Background())
	defer u.Close()

	channel.out <- []byte(`{"emotion":"happy","blink_count":3}`)
	assert.Eventually(t, func() bool {
		return u.Emotion() == "happy"
	}, time.Second, 10*time.Millisecond)
}

func TestMalformedInboundDiscarded(t *testing.T) {
	channel := newFakeChannel(true)
	u := NewUplink(newTestLogger(t), channel, seededExtractor(t))
	u.Start(context.Background())
	defer u.Close()

	channel.out <- []byte(`not json at all`)
	channel.out <- []byte(`{"no_emotion_field":1}`)
	channel.out <- []byte(`{"emotion":"calm"}`)
	assert.Eventually(t, func() bool {
		return u.Emotion() == "calm"
	}, time.Second, 10*time.Millisecond)
}

func TestCloseIsTerminal(t *testing.T) {
	channel := newFakeChannel(true)
	u := NewUplink(newTestLogger(t), channel, seededExtractor(t))
	u.Start(context.Background())
	require.NoError(t, u.Close())
	assert.False(t, channel.IsOpen())
	u.sendSample()
	assert.Equal(t, 0, channel.sentCount())
}
