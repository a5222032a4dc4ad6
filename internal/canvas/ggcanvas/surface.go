package ggcanvas

import (
	"fmt"
	"math"

	"circuit-tracker/internal/canvas"
)

// Surface is a headless drawing surface of a fixed displayed size. Resize
// and Click emulate the host events a window would deliver.
type Surface struct {
	backend  *Backend
	ctx      *canvas.Context
	w, h     float64
	ratio    float64
	onResize func()
	onClick  func(x, y float64)
}

// NewSurface creates a surface displayed at w x h units with the given
// device pixel ratio (values <= 0 mean 1).
func NewSurface(w, h int, ratio float64) (*Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", w, h)
	}
	if ratio <= 0 {
		ratio = 1
	}
	b, err := New(int(math.Round(float64(w)*ratio)), int(math.Round(float64(h)*ratio)))
	if err != nil {
		return nil, err
	}
	return &Surface{
		backend: b,
		ctx:     canvas.New(b),
		w:       float64(w),
		h:       float64(h),
		ratio:   ratio,
	}, nil
}

// Backend exposes the rasterizer, e.g. for PNG output.
func (s *Surface) Backend() *Backend { return s.backend }

func (s *Surface) Canvas() *canvas.Context { return s.ctx }

func (s *Surface) DisplaySize() (float64, float64) { return s.w, s.h }

func (s *Surface) PixelRatio() float64 { return s.ratio }

func (s *Surface) SetBackingSize(w, h int) { s.backend.Resize(w, h) }

func (s *Surface) OnResize(fn func()) func() {
	s.onResize = fn
	return func() { s.onResize = nil }
}

func (s *Surface) OnClick(fn func(x, y float64)) func() {
	s.onClick = fn
	return func() { s.onClick = nil }
}

// Resize changes the displayed size and notifies the resize listener.
func (s *Surface) Resize(w, h int, ratio float64) {
	s.w, s.h = float64(w), float64(h)
	if ratio > 0 {
		s.ratio = ratio
	}
	if s.onResize != nil {
		s.onResize()
	}
}

// Click delivers a click at displayed coordinates (x, y).
func (s *Surface) Click(x, y float64) {
	if s.onClick != nil {
		s.onClick(x, y)
	}
}

// Listening reports how many listeners are attached.
func (s *Surface) Listening() (resize, click int) {
	if s.onResize != nil {
		resize = 1
	}
	if s.onClick != nil {
		click = 1
	}
	return resize, click
}
