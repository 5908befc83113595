// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_resampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResampleOutputLength(t *testing.T) {
	tests := []struct {
		name     string
		inLen    int
		fromRate int
		toRate   int
	}{
		{"48k to 16k exact", 4800, 48000, 16000},
		{"48k to 16k remainder", 4801, 48000, 16000},
		{"44.1k to 16k", 44100, 44100, 16000},
		{"44.1k to 16k odd", 1000, 44100, 16000},
		{"upsample 8k to 16k", 800, 8000, 16000},
		{"single sample", 1, 48000, 16000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resample(make([]float32, tt.inLen), tt.fromRate, tt.toRate)
			assert.NoError(t, err)
			want := int(math.Ceil(float64(tt.inLen) * float64(tt.toRate) / float64(tt.fromRate)))
			assert.Len(t, out, want)
		})
	}
}

func TestResampleSameRateCopies(t *testing.T) {
	src := []float32{0.1, -0.2, 0.3}
	out, err := Resample(src, 16000, 16000)
	assert.NoError(t, err)
	assert.Equal(t, src, out)
	out[0] = 0.9
	assert.Equal(t, float32(0.1), src[0])
}

func TestResampleEmptyInput(t *testing.T) {
	out, err := Resample(nil, 48000, 16000)
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestResampleIllegalRates(t *testing.T) {
	_, err := Resample([]float32{0}, 0, 16000)
	assert.Error(t, err)
	_, err = Resample([]float32{0}, 48000, -1)
	assert.Error(t, err)
}

func TestResamplePreservesConstantSignal(t *testing.T) {
	src := make([]float32, 4800)
	for i := range src {
		src[i] = 0.5
	}
	out, err := Resample(src, 48000, 16000)
	assert.NoError(t, err)
	for _, v := range out {
		assert.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestResampleDownsamplePicksEveryThird(t *testing.T) {
	// 48k -> 16k with ratio 3: output i maps exactly to input 3i.
	src := make([]float32, 30)
	for i := range src {
		src[i] = float32(i)
	}
	out, err := Resample(src, 48000, 16000)
	assert.NoError(t, err)
	for i, v := range out {
		assert.InDelta(t, float64(3*i), float64(v), 1e-6)
	}
}
