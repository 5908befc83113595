// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_encoder

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/rapidaai/interview/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-encoder"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func chunk(val float32, length int) []float32 {
	buf := make([]float32, length)
	for i := range buf {
		buf[i] = val
	}
	return buf
}

func pcmData(wav []byte) []byte { return wav[wavHeaderSize:] }

func sampleAt(wav []byte, i int) int16 {
	off := wavHeaderSize + i*2
	return int16(binary.LittleEndian.Uint16(wav[off : off+2]))
}

func TestFinishEmptyReturnsNoArtifact(t *testing.T) {
	enc := NewEncoder(newTestLogger(t))
	artifact, err := enc.Finish(48000)
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
	if artifact != nil {
		t.Fatal("expected no artifact for empty buffer")
	}
}

func TestAppendCopiesChunk(t *testing.T) {
	enc := NewEncoder(newTestLogger(t))
	data := chunk(0.5, 10)
	enc.Append(data)
	data[0] = -0.9

	artifact, err := enc.Finish(16000)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if got := sampleAt(artifact.Payload, 0); got != 16383 {
		t.Errorf("append must copy data, first sample %d", got)
	}
}

func TestFinishResampledLength(t *testing.T) {
	tests := []struct {
		name       string
		samples    int
		nativeRate int
	}{
		{"48k exact", 4800, 48000},
		{"48k remainder", 4801, 48000},
		{"44.1k", 4410, 44100},
		{"already 16k", 1600, 16000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoder(newTestLogger(t))
			enc.Append(chunk(0.1, tt.samples))
			artifact, err := enc.Finish(tt.nativeRate)
			if err != nil {
				t.Fatalf("finish failed: %v", err)
			}
			want := int(math.Ceil(float64(tt.samples) * 16000 / float64(tt.nativeRate)))
			if got := len(pcmData(artifact.Payload)) / 2; got != want {
				t.Errorf("expected %d samples, got %d", want, got)
			}
		})
	}
}

func TestQuantizationClampsAndScales(t *testing.T) {
	tests := []struct {
		name     string
		in       float32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive full scale", 1.0, 0x7FFF},
		{"clamped positive", 1.5, 0x7FFF},
		{"negative full scale", -1.0, -0x8000},
		{"clamped negative", -1.5, -0x8000},
		{"positive half", 0.5, 16383},
		{"negative half", -0.5, -16384},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := quantizePCM16([]float32{tt.in})
			if out[0] != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, out[0])
			}
		})
	}
}

func TestWAVHeaderFields(t *testing.T) {
	enc := NewEncoder(newTestLogger(t))
	enc.Append(chunk(0.2, 1600))
	artifact, err := enc.Finish(16000)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	wav := artifact.Payload

	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if string(wav[12:16]) != "fmt " || string(wav[36:40]) != "data" {
		t.Fatal("missing fmt/data chunks")
	}
	if got := binary.LittleEndian.Uint16(wav[20:22]); got != AudioPCMFormat {
		t.Errorf("format tag: expected %d, got %d", AudioPCMFormat, got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != 1 {
		t.Errorf("channels: expected 1, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Errorf("sample rate: expected 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("byte rate: expected 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(wav[32:34]); got != 2 {
		t.Errorf("block align: expected 2, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != 16 {
		t.Errorf("bit depth: expected 16, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); int(got) != len(wav)-wavHeaderSize {
		t.Errorf("data length: expected %d, got %d", len(wav)-wavHeaderSize, got)
	}
	if got := binary.LittleEndian.Uint32(wav[4:8]); int(got) != 36+len(wav)-wavHeaderSize {
		t.Errorf("riff length: expected %d, got %d", 36+len(wav)-wavHeaderSize, got)
	}
}

func TestChunkOrderPreserved(t *testing.T) {
	enc := NewEncoder(newTestLogger(t))
	enc.Append([]float32{0.1})
	enc.Append([]float32{0.2})
	enc.Append([]float32{0.3})
	artifact, err := enc.Finish(16000)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	for i, want := range []float32{0.1, 0.2, 0.3} {
		got := float64(sampleAt(artifact.Payload, i)) / 0x7FFF
		if math.Abs(got-float64(want)) > 1e-3 {
			t.Errorf("sample %d: expected ~%.1f, got %.4f", i, want, got)
		}
	}
}

func TestFinishConsumesBufferOnce(t *testing.T) {
	enc := NewEncoder(newTestLogger(t))
	enc.Append(chunk(0.1, 100))
	if _, err := enc.Finish(16000); err != nil {
		t.Fatalf("first finish failed: %v", err)
	}
	if _, err := enc.Finish(16000); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("second finish should see an empty buffer, got %v", err)
	}
}

func TestLastArtifactPlaybackHandle(t *testing.T) {
	enc := NewEncoder(newTestLogger(t))
	if enc.LastArtifact() != nil {
		t.Fatal("expected nil before any finish")
	}
	enc.Append(chunk(0.1, 100))
	artifact, _ := enc.Finish(16000)
	if enc.LastArtifact() != artifact {
		t.Fatal("last artifact should be the finished one")
	}
	enc.Reset()
	if enc.LastArtifact() != artifact {
		t.Fatal("reset must not drop the playback handle")
	}
}
