// Package view holds the camera state of the map: the viewport that maps
// planar coordinates to screen units and the bounded trail that can drag
// the viewport along with it.
package view

import (
	"math"

	"circuit-tracker/internal/common"

	"github.com/paulmach/orb"
)

// Scale limits, in screen units per planar unit.
const (
	MinScale = 1e-5
	MaxScale = 1e6

	// fitFloor bounds both the fitted scale and a zero bounding-box extent.
	fitFloor = 1e-6
)

// Viewport owns the scale and the planar point shown at the surface center.
type Viewport struct {
	Center common.Vec2
	Scale  float64
}

// NewViewport returns a viewport at unit scale centered on the origin.
func NewViewport() *Viewport {
	return &Viewport{Scale: 1}
}

// Fit picks the scale that shows the whole box inside a w x h surface with
// pad units left free on each side, and centers the box.
func (v *Viewport) Fit(b orb.Bound, w, h, pad float64) {
	bw := b.Max.X() - b.Min.X()
	bh := b.Max.Y() - b.Min.Y()
	if bw == 0 {
		bw = fitFloor
	}
	if bh == 0 {
		bh = fitFloor
	}

	sx := (w - 2*pad) / bw
	sy := (h - 2*pad) / bh
	v.Scale = math.Max(fitFloor, math.Min(sx, sy))

	c := b.Center()
	v.Center = common.Vec2{X: c.X(), Y: c.Y()}
}

// WorldToScreen maps a planar point onto a w x h surface.
func (v *Viewport) WorldToScreen(p common.Vec2, w, h float64) common.Vec2 {
	return p.Sub(v.Center).Scale(v.Scale).Add(common.Vec2{X: w / 2, Y: h / 2})
}

// ScreenToWorld is the inverse of WorldToScreen.
func (v *Viewport) ScreenToWorld(s common.Vec2, w, h float64) common.Vec2 {
	return s.Sub(common.Vec2{X: w / 2, Y: h / 2}).Scale(1 / v.Scale).Add(v.Center)
}

// Zoom multiplies the scale by factor, saturating at MinScale and MaxScale.
func (v *Viewport) Zoom(factor float64) {
	v.Scale = clamp(v.Scale*factor, MinScale, MaxScale)
}

// RecenterTo moves the view center to p.
func (v *Viewport) RecenterTo(p common.Vec2) {
	v.Center = p
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}
