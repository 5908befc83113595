// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_vision

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	meshColor     = color.RGBA{R: 0, G: 255, B: 128, A: 255}
	skeletonColor = color.RGBA{R: 255, G: 128, B: 0, A: 255}
)

// skeletonEdges are the pose landmark pairs joined by the overlay skeleton:
// shoulders, upper arms, torso sides and hips.
var skeletonEdges = [][2]int{
	{11, 12}, // shoulder line
	{11, 13}, {13, 15}, // left arm
	{12, 14}, {14, 16}, // right arm
	{11, 23}, {12, 24}, // torso
	{23, 24}, // hip line
}

// renderOverlay draws a mirrored copy of the frame with the face mesh points
// and pose skeleton on top. This is the self-view path; it must never block
// telemetry, so it works on copies only.
func renderOverlay(frame image.Image, faceLandmarks, poseLandmarks []Landmark) *image.RGBA {
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	overlay := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(overlay, overlay.Bounds(), frame, bounds.Min, draw.Src)
	mirror(overlay)

	for _, lm := range faceLandmarks {
		// Landmarks are in un-mirrored frame coordinates.
		plot(overlay, w-1-int(lm.X*float64(w)), int(lm.Y*float64(h)), meshColor)
	}

	for _, edge := range skeletonEdges {
		if len(poseLandmarks) <= edge[0] || len(poseLandmarks) <= edge[1] {
			continue
		}
		a, b := poseLandmarks[edge[0]], poseLandmarks[edge[1]]
		line(overlay,
			w-1-int(a.X*float64(w)), int(a.Y*float64(h)),
			w-1-int(b.X*float64(w)), int(b.Y*float64(h)),
			skeletonColor)
	}
	return overlay
}

func mirror(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x1, x2 := b.Min.X, b.Max.X-1; x1 < x2; x1, x2 = x1+1, x2-1 {
			left := img.RGBAAt(x1, y)
			img.SetRGBA(x1, y, img.RGBAAt(x2, y))
			img.SetRGBA(x2, y, left)
		}
	}
}

func plot(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// line draws with integer Bresenham.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
