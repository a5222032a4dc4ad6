package scene

import (
	"fmt"
	"image/color"
	"math"

	"circuit-tracker/internal/canvas"
	"circuit-tracker/internal/common"
)

var (
	black      = color.RGBA{A: 255}
	labelRed   = color.RGBA{R: 255, A: 255}
	lightCoral = color.RGBA{R: 240, G: 128, B: 128, A: 255}
	needleBlue = color.RGBA{B: 255, A: 255}
)

const (
	dotRadius     = 3
	labelFontPx   = 12
	labelOffset   = 6
	trailAlpha    = 0.85
	markerSize    = 12
	compassInset  = 50
	compassRadius = 22
	scaleMargin   = 20
	scaleBarPx    = 100
	scaleFontPx   = 14

	// metersPerDegree is the length of one degree of arc on the equator.
	metersPerDegree = 111320
)

// Draw repaints the whole surface: circuit, trail and marker in the
// (possibly rotated) map frame, then compass and scale bar on top.
func (s *Session) Draw() {
	if s.state != active {
		return
	}
	w, h := s.surface.DisplaySize()
	cv := s.cv

	cv.ClearRect(0, 0, w, h)

	cv.Save()
	if s.rotating() {
		cv.Translate(w/2, h/2)
		cv.Rotate(common.DegToRad(-s.current.heading))
		cv.Translate(-w/2, -h/2)
	}
	s.drawCircuit(w, h)
	s.drawTrail(w, h)
	s.drawMarker(w, h)
	cv.Restore()

	s.drawCompass(w)
	s.drawScaleBar(w, h)
}

func (s *Session) rotating() bool {
	return s.opts.RotateToHeading && s.current != nil
}

func (s *Session) toScreen(p common.Vec2, w, h float64) common.Vec2 {
	return s.vp.WorldToScreen(p, w, h)
}

func (s *Session) drawCircuit(w, h float64) {
	cv := s.cv
	pts := make([]common.Vec2, len(s.circuit.Points))
	for i, p := range s.circuit.Points {
		pts[i] = s.toScreen(s.proj.Project(p), w, h)
	}

	if len(pts) >= 2 {
		cv.SetLineWidth(s.opts.LineWidth)
		cv.BeginPath()
		cv.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			cv.LineTo(p.X, p.Y)
		}
		cv.Stroke()
	}

	cv.Save()
	cv.SetFontSize(labelFontPx)
	for i, p := range pts {
		cv.BeginPath()
		cv.Arc(p.X, p.Y, dotRadius, 0, 2*math.Pi)
		cv.Fill()

		old := cv.Style().FillColor
		cv.SetFillColor(labelRed)
		cv.FillText(fmt.Sprintf("%d", i), p.X+labelOffset, p.Y-labelOffset)
		cv.SetFillColor(old)
	}
	cv.Restore()
}

func (s *Session) drawTrail(w, h float64) {
	pts := s.trail.Points()
	if len(pts) < 2 {
		return
	}
	cv := s.cv
	cv.Save()
	cv.SetAlpha(trailAlpha)
	cv.SetLineWidth(math.Max(2, s.opts.LineWidth-1))
	cv.SetStrokeColor(lightCoral)
	cv.BeginPath()
	for i, p := range pts {
		sp := s.toScreen(p, w, h)
		if i == 0 {
			cv.MoveTo(sp.X, sp.Y)
			continue
		}
		cv.LineTo(sp.X, sp.Y)
	}
	cv.Stroke()
	cv.Restore()
}

// drawMarker draws the position triangle at a constant screen size. In
// follow mode it is pinned to the surface center.
func (s *Session) drawMarker(w, h float64) {
	if s.current == nil {
		return
	}
	pos := s.toScreen(s.proj.Project(s.current.pos), w, h)
	if s.opts.Follow {
		pos = common.Vec2{X: w / 2, Y: h / 2}
	}

	cv := s.cv
	cv.Save()
	cv.Translate(pos.X, pos.Y)
	if s.rotating() {
		cv.Rotate(common.DegToRad(s.current.heading))
	}
	cv.BeginPath()
	cv.MoveTo(0, -markerSize)
	cv.LineTo(markerSize*0.6, markerSize)
	cv.LineTo(-markerSize*0.6, markerSize)
	cv.ClosePath()
	cv.Fill()
	cv.Restore()
}

func (s *Session) drawCompass(w float64) {
	if !s.rotating() {
		return
	}
	cv := s.cv
	cv.Save()
	cv.Translate(w-compassInset, compassInset)
	cv.SetLineWidth(1)
	cv.SetStrokeColor(black)
	cv.BeginPath()
	cv.Arc(0, 0, compassRadius, 0, 2*math.Pi)
	cv.Stroke()

	cv.Save()
	cv.Rotate(common.DegToRad(s.current.heading))
	cv.BeginPath()
	cv.MoveTo(0, -18)
	cv.LineTo(6, 6)
	cv.LineTo(-6, 6)
	cv.ClosePath()
	cv.SetFillColor(needleBlue)
	cv.Fill()
	cv.Restore()

	cv.SetFontSize(labelFontPx)
	cv.SetTextAlign(canvas.AlignCenter)
	cv.FillText("N", 0, -26)
	cv.Restore()
}

func (s *Session) drawScaleBar(w, h float64) {
	x0 := w - scaleMargin - scaleBarPx
	y0 := h - scaleMargin

	cv := s.cv
	cv.Save()
	cv.SetStrokeColor(black)
	cv.SetLineWidth(2)
	cv.BeginPath()
	cv.MoveTo(x0, y0)
	cv.LineTo(x0+scaleBarPx, y0)
	cv.Stroke()

	cv.SetFontSize(scaleFontPx)
	cv.SetTextAlign(canvas.AlignRight)
	cv.SetTextBaseline(canvas.BaselineBottom)
	cv.SetFillColor(black)
	cv.FillText(fmt.Sprintf("%d m", scaleBarMeters(s.vp.Scale)), x0+scaleBarPx, y0-6)
	cv.Restore()
}

// scaleBarMeters is the ground length of the scale bar at the given view
// scale. One planar unit is taken as one degree of longitude on the
// reference parallel, so the value is exact only along the x axis.
func scaleBarMeters(scale float64) int64 {
	return int64(math.Round(scaleBarPx / scale * metersPerDegree))
}
