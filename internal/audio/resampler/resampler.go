// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_resampler

import (
	"fmt"
	"math"
)

// Resample renders src (mono float32 PCM at fromRate) to toRate offline.
// The output length is exactly ceil(len(src) * toRate / fromRate); decoders
// of the resulting artifact depend on this formula, so it must not drift.
// Samples are linearly interpolated between neighbouring input frames.
func Resample(src []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("resampler: illegal rates %d -> %d", fromRate, toRate)
	}
	if len(src) == 0 {
		return []float32{}, nil
	}
	if fromRate == toRate {
		out := make([]float32, len(src))
		copy(out, src)
		return out, nil
	}

	outLen := int(math.Ceil(float64(len(src)) * float64(toRate) / float64(fromRate)))
	out := make([]float32, outLen)
	ratio := float64(fromRate) / float64(toRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = src[idx]*(1-frac) + src[idx+1]*frac
	}
	return out, nil
}
