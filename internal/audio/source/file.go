// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_source

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	internal_type "github.com/rapidaai/interview/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/utils"
)

// chunkSize is the number of samples delivered per capture callback.
const chunkSize = 4096

// FileSource replays a PCM16 WAV file as a capture stream. It satisfies the
// microphone capability for environments without a live device: each Open
// reads the file and delivers its samples in order, then the stream idles
// until closed. Permission is always granted; files need no device grant.
type FileSource struct {
	logger commons.Logger
	path   string
}

func NewFileSource(logger commons.Logger, path string) *FileSource {
	return &FileSource{logger: logger, path: path}
}

func (f *FileSource) QueryPermission(ctx context.Context) (internal_type.PermissionState, error) {
	return internal_type.PermissionGranted, nil
}

func (f *FileSource) Open(ctx context.Context, onChunk func(samples []float32)) (internal_type.AudioStream, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal_type.ErrDeviceUnavailable, err)
	}
	samples, sampleRate, err := decodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internal_type.ErrDeviceUnavailable, f.path, err)
	}

	stream := &fileStream{sampleRate: sampleRate, done: make(chan struct{})}

	utils.Go(ctx, func() {
		for offset := 0; offset < len(samples); offset += chunkSize {
			select {
			case <-ctx.Done():
				return
			case <-stream.done:
				return
			default:
			}
			end := offset + chunkSize
			if end > len(samples) {
				end = len(samples)
			}
			onChunk(samples[offset:end])
		}
		f.logger.Debugf("file source: replayed %d samples at %d Hz from %s",
			len(samples), sampleRate, f.path)
	})

	return stream, nil
}

type fileStream struct {
	sampleRate int

	mu   sync.Mutex
	done chan struct{}
	over bool
}

func (s *fileStream) SampleRate() int {
	return s.sampleRate
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.over {
		s.over = true
		close(s.done)
	}
	return nil
}

// decodeWAV extracts float32 samples and the sample rate from a PCM16 WAV
// byte stream. Chunks other than fmt and data are skipped; stereo input is
// downmixed to mono by averaging.
func decodeWAV(raw []byte) ([]float32, int, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var sampleRate int
	var channels int
	var pcm []byte

	offset := 12
	for offset+8 <= len(raw) {
		id := string(raw[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short")
			}
			var format struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(bytes.NewReader(raw[body:body+16]), binary.LittleEndian, &format); err != nil {
				return nil, 0, err
			}
			if format.AudioFormat != 1 || format.BitsPerSample != 16 {
				return nil, 0, fmt.Errorf("unsupported format: audioFormat=%d, bits=%d",
					format.AudioFormat, format.BitsPerSample)
			}
			sampleRate = int(format.SampleRate)
			channels = int(format.NumChannels)
		case "data":
			pcm = raw[body : body+size]
		}

		// Chunks are word aligned.
		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if sampleRate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if len(pcm) == 0 {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	frames := len(pcm) / (2 * channels)
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			s := int16(binary.LittleEndian.Uint16(pcm[(i*channels+c)*2:]))
			sum += float32(s) / 32768.0
		}
		samples[i] = sum / float32(channels)
	}
	return samples, sampleRate, nil
}
