// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_vision

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/rapidaai/interview/pkg/commons"
)

// Landmark is one normalized inference point. X and Y are in [0, 1] relative
// to the frame; Z is depth with the same scale as X.
type Landmark struct {
	X, Y, Z float64
}

// FaceLandmarker runs facial-landmark inference on one frame. A nil slice
// (no error) means no face was found.
type FaceLandmarker interface {
	DetectFace(frame image.Image) ([]Landmark, error)
}

// PoseLandmarker runs body-pose inference on one frame. A nil slice (no
// error) means no body was found.
type PoseLandmarker interface {
	DetectPose(frame image.Image) ([]Landmark, error)
}

// Face-mesh landmark indices.
var (
	leftEyeIndices  = []int{33, 160, 158, 133, 153, 144}
	rightEyeIndices = []int{362, 385, 387, 263, 373, 380}
)

const (
	leftIrisIndex  = 468
	rightIrisIndex = 473
	noseTipIndex   = 1

	// Pose landmark indices.
	leftShoulderIndex  = 11
	rightShoulderIndex = 12
)

const (
	PostureNormal   = "normal"
	PostureUnstable = "unstable"
)

const (
	// DefaultEARThreshold is the eye-aspect-ratio below which the eyes
	// count as closed.
	DefaultEARThreshold = 0.21
	// DefaultPostureThreshold is the normalized shoulder-height difference
	// above which posture counts as unstable.
	DefaultPostureThreshold = 0.06
)

// Options carries the fixed classification thresholds. They are plain
// fields so a future calibration step can override them per user.
type Options struct {
	EARThreshold     float64
	PostureThreshold float64
}

func DefaultOptions() Options {
	return Options{
		EARThreshold:     DefaultEARThreshold,
		PostureThreshold: DefaultPostureThreshold,
	}
}

// Features is one periodic snapshot of the extracted visual state. Samples
// are independent; the blink count is monotonic cumulative.
type Features struct {
	Timestamp  time.Time
	BlinkCount int
	GazeX      float64
	GazeY      float64
	HeadPose   [3]float64
	Posture    string
	// FaceSeen reports whether any frame carried a face so far; telemetry
	// skips sending until one has.
	FaceSeen bool
}

// Extractor ingests camera frames, runs the two landmark inference passes
// and maintains the running blink/gaze/posture state. The per-frame
// inference callback and the periodic telemetry serializer share only this
// state; the serializer reads the latest value written by the most recent
// completed frame.
type Extractor struct {
	logger commons.Logger
	opts   Options
	face   FaceLandmarker
	pose   PoseLandmarker

	mu           sync.Mutex
	blinkCount   int
	wasEyeClosed bool
	gazeX, gazeY float64
	headPose     [3]float64
	posture      string
	faceSeen     bool
	lastFrame    image.Image
	overlay      *image.RGBA
}

func NewExtractor(logger commons.Logger, face FaceLandmarker, pose PoseLandmarker, opts Options) *Extractor {
	return &Extractor{
		logger:  logger,
		opts:    opts,
		face:    face,
		pose:    pose,
		posture: PostureNormal,
	}
}

// ProcessFrame runs both inference passes on one frame and updates the
// running state. The overlay render is part of this path and independent of
// telemetry; inference errors skip the frame without affecting capture.
func (e *Extractor) ProcessFrame(frame image.Image) {
	faceLandmarks, err := e.face.DetectFace(frame)
	if err != nil {
		e.logger.Warnf("vision: face inference: %v", err)
		faceLandmarks = nil
	}
	poseLandmarks, err := e.pose.DetectPose(frame)
	if err != nil {
		e.logger.Warnf("vision: pose inference: %v", err)
		poseLandmarks = nil
	}

	e.mu.Lock()
	e.lastFrame = frame
	if len(faceLandmarks) > rightIrisIndex {
		e.faceSeen = true
		e.processBlink(earOf(faceLandmarks))
		e.gazeX = (faceLandmarks[leftIrisIndex].X + faceLandmarks[rightIrisIndex].X) / 2
		e.gazeY = (faceLandmarks[leftIrisIndex].Y + faceLandmarks[rightIrisIndex].Y) / 2
		nose := faceLandmarks[noseTipIndex]
		e.headPose = [3]float64{nose.X, nose.Y, nose.Z}
	}
	if len(poseLandmarks) > rightShoulderIndex {
		e.posture = e.classifyPosture(poseLandmarks)
	}
	e.mu.Unlock()

	overlay := renderOverlay(frame, faceLandmarks, poseLandmarks)
	e.mu.Lock()
	e.overlay = overlay
	e.mu.Unlock()
}

// processBlink implements falling-edge blink counting: the counter
// increments exactly once when EAR drops below the threshold, and the latch
// blocks re-counting until EAR rises back above it. Caller holds e.mu.
func (e *Extractor) processBlink(ear float64) {
	if ear < e.opts.EARThreshold && !e.wasEyeClosed {
		e.blinkCount++
		e.wasEyeClosed = true
	} else if ear >= e.opts.EARThreshold {
		e.wasEyeClosed = false
	}
}

// classifyPosture labels shoulder tilt. The boundary value itself counts as
// normal. No hysteresis.
func (e *Extractor) classifyPosture(poseLandmarks []Landmark) string {
	dy := math.Abs(poseLandmarks[leftShoulderIndex].Y - poseLandmarks[rightShoulderIndex].Y)
	if dy > e.opts.PostureThreshold {
		return PostureUnstable
	}
	return PostureNormal
}

// Features snapshots the current visual state for the telemetry serializer.
func (e *Extractor) Features() Features {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Features{
		Timestamp:  time.Now(),
		BlinkCount: e.blinkCount,
		GazeX:      e.gazeX,
		GazeY:      e.gazeY,
		HeadPose:   e.headPose,
		Posture:    e.posture,
		FaceSeen:   e.faceSeen,
	}
}

// LastFrame returns the most recently ingested frame, for the telemetry
// still-frame snapshot.
func (e *Extractor) LastFrame() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFrame
}

// Overlay returns the most recently rendered annotated frame for UI display.
func (e *Extractor) Overlay() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlay
}

// earOf computes the eye-aspect-ratio over both eyes: for each eye the two
// vertical eye-opening distances are averaged and divided by twice the
// horizontal eye width, then the two eyes are averaged.
func earOf(landmarks []Landmark) float64 {
	return (eyeAspectRatio(landmarks, leftEyeIndices) + eyeAspectRatio(landmarks, rightEyeIndices)) / 2
}

func eyeAspectRatio(landmarks []Landmark, eye []int) float64 {
	p0, p1, p2 := landmarks[eye[0]], landmarks[eye[1]], landmarks[eye[2]]
	p3, p4, p5 := landmarks[eye[3]], landmarks[eye[4]], landmarks[eye[5]]
	horizontal := dist(p0, p3)
	if horizontal == 0 {
		return 0
	}
	return (dist(p1, p5) + dist(p2, p4)) / (2 * horizontal)
}

func dist(a, b Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
