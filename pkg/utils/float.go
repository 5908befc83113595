// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

// AverageFloat32 returns the arithmetic mean of the slice, 0 when empty.
func AverageFloat32(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float32
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values))
}

// AverageAbsFloat32 returns the mean of absolute values, 0 when empty.
func AverageAbsFloat32(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float32
	for _, v := range values {
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return sum / float32(len(values))
}

// ClampFloat32 limits v to the closed interval [lo, hi].
func ClampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
