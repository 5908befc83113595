// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_encoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	internal_audio "github.com/rapidaai/interview/internal/audio"
	internal_audio_resampler "github.com/rapidaai/interview/internal/audio/resampler"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/utils"
)

const (
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
)

var audioConfig = internal_audio.INTERVIEW_INTERNAL_AUDIO_CONFIG

// ErrNoSamples is returned by Finish when nothing was captured; no artifact
// is produced for an empty session.
var ErrNoSamples = errors.New("encoder: no samples captured")

// Artifact is one finished encoded answer. Immutable once produced; it has
// exactly one consumer, the per-answer analysis upload.
type Artifact struct {
	SampleRate   int
	BitDepth     int
	ChannelCount int
	// Payload is a complete WAV byte stream: 44-byte header + PCM16.
	Payload []byte
}

// Duration reports the artifact length in seconds.
func (a *Artifact) Duration() float64 {
	body := len(a.Payload) - wavHeaderSize
	if body <= 0 {
		return 0
	}
	return float64(body) / float64(a.SampleRate*a.ChannelCount*AudioBytesPerSample)
}

// Encoder accumulates raw float32 sample chunks for one capture session and,
// at stop time, renders them into a single uploadable WAV artifact. No
// transformation happens at capture time; the real-time callback only
// appends, the expensive resample/quantize/encode work is deferred to
// Finish.
type Encoder struct {
	logger commons.Logger

	mu     sync.Mutex
	chunks [][]float32
	total  int
	last   *Artifact
}

func NewEncoder(logger commons.Logger) *Encoder {
	return &Encoder{logger: logger}
}

// Reset clears the chunk buffer for a new session. The last finished
// artifact is kept for playback until the next Finish.
func (e *Encoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = nil
	e.total = 0
}

// Append copies one capture-callback chunk onto the buffer. Chunks are kept
// in strict arrival order; the finished artifact's byte order matches it.
func (e *Encoder) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	buf := make([]float32, len(samples))
	copy(buf, samples)

	e.mu.Lock()
	e.chunks = append(e.chunks, buf)
	e.total += len(buf)
	e.mu.Unlock()
}

// SampleCount reports the number of buffered samples.
func (e *Encoder) SampleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// Finish consumes the buffer exactly once: concatenate, resample from the
// native device rate to 16 kHz, quantize to PCM16 and wrap in a WAV
// container. Returns ErrNoSamples when nothing was captured.
func (e *Encoder) Finish(nativeRate int) (*Artifact, error) {
	e.mu.Lock()
	chunks := e.chunks
	total := e.total
	e.chunks = nil
	e.total = 0
	e.mu.Unlock()

	if total == 0 {
		return nil, ErrNoSamples
	}

	merged := make([]float32, 0, total)
	for _, c := range chunks {
		merged = append(merged, c...)
	}

	resampled, err := internal_audio_resampler.Resample(merged, nativeRate, int(audioConfig.SampleRate))
	if err != nil {
		return nil, fmt.Errorf("encoder: resample %dHz -> %dHz: %w", nativeRate, audioConfig.SampleRate, err)
	}

	pcm := quantizePCM16(resampled)
	artifact := &Artifact{
		SampleRate:   int(audioConfig.SampleRate),
		BitDepth:     AudioBitsPerSample,
		ChannelCount: int(audioConfig.Channels),
		Payload:      createWAVFile(pcm),
	}

	e.logger.Infof("encoder: finished artifact, samples=%d native=%dHz resampled=%d duration=%.2fs",
		total, nativeRate, len(resampled), artifact.Duration())

	e.mu.Lock()
	e.last = artifact
	e.mu.Unlock()
	return artifact, nil
}

// LastArtifact returns the most recently finished artifact for client-side
// playback, or nil when none exists.
func (e *Encoder) LastArtifact() *Artifact {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// quantizePCM16 maps float samples in [-1, 1] to 16-bit signed integers.
// The scale is asymmetric — negative values scale by 32768, non-negative by
// 32767 — with hard clamping at ±1 before scaling. Standard decoders expect
// exactly this mapping.
func quantizePCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		s = utils.ClampFloat32(s, -1, 1)
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7FFF)
		}
	}
	return out
}

const wavHeaderSize = 44

func createWAVFile(samples []int16) []byte {
	var buf bytes.Buffer
	sampleRate := audioConfig.SampleRate
	channels := audioConfig.Channels
	dataLen := len(samples) * AudioBytesPerSample
	bps := int(sampleRate) * int(channels) * AudioBytesPerSample

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(bps))
	binary.Write(&buf, binary.LittleEndian, uint16(int(channels)*AudioBytesPerSample))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBitsPerSample))

	// data chunk
	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
