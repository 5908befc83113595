// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_level

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/utils"
)

// monitorInterval is the UI refresh cadence of the level meter.
const monitorInterval = 50 * time.Millisecond

// Analyzer derives a 0-100 loudness metric from live audio chunks. Feed
// pushes the latest chunk from the capture callback; a monitor loop samples
// the derived level at a fixed cadence for UI feedback. The analyzer makes
// no ordering promises relative to transcript or telemetry events.
type Analyzer struct {
	logger commons.Logger

	mu     sync.Mutex
	level  int
	cancel context.CancelFunc
}

func NewAnalyzer(logger commons.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// LevelOf maps one chunk of float32 samples (range [-1, 1]) to 0-100.
func LevelOf(samples []float32) int {
	avg := utils.AverageAbsFloat32(samples)
	level := int(math.Round(float64(avg) * 100))
	if level > 100 {
		level = 100
	}
	return level
}

// Feed records the loudness of the most recent chunk. Called from the
// capture callback; must stay cheap.
func (a *Analyzer) Feed(samples []float32) {
	level := LevelOf(samples)
	a.mu.Lock()
	a.level = level
	a.mu.Unlock()
}

// Level returns the most recently derived loudness.
func (a *Analyzer) Level() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

// StartMonitor begins invoking onLevel every 50 ms with the latest level.
// A second call replaces the previous monitor.
func (a *Analyzer) StartMonitor(ctx context.Context, onLevel func(level int)) {
	a.StopMonitor()

	monitorCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	utils.Go(monitorCtx, func() {
		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				onLevel(a.Level())
			}
		}
	})
}

// StopMonitor cancels the monitor loop and resets the level to zero.
func (a *Analyzer) StopMonitor() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.level = 0
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
