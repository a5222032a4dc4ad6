// Package ggcanvas rasterizes canvas primitives in software with gogpu/gg
// and provides a headless drawing surface that can be written out as PNG.
package ggcanvas

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"circuit-tracker/internal/canvas"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Backend draws into a gg.Context. Paths arrive already in device pixels,
// so the gg transform stays at identity outside of rotated text.
type Backend struct {
	dc         *gg.Context
	source     *text.FontSource
	faces      map[float64]text.Face
	outlines   *text.OutlineExtractor
	Background color.Color
}

// New allocates a w x h pixel buffer.
func New(w, h int) (*Backend, error) {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &Backend{
		dc:         gg.NewContext(max(w, 1), max(h, 1)),
		source:     src,
		faces:      make(map[float64]text.Face),
		outlines:   text.NewOutlineExtractor(),
		Background: color.White,
	}, nil
}

func (b *Backend) Size() (int, int) {
	return b.dc.Width(), b.dc.Height()
}

func (b *Backend) Resize(w, h int) {
	// Resize only fails on non-positive sizes, which max() rules out.
	_ = b.dc.Resize(max(w, 1), max(h, 1))
}

func (b *Backend) Clear(x0, y0, x1, y1 float64) {
	w, h := b.Size()
	if x0 <= 0 && y0 <= 0 && x1 >= float64(w) && y1 >= float64(h) {
		b.dc.ClearWithColor(gg.FromColor(b.Background))
		return
	}
	b.dc.ClearPath()
	b.dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	b.dc.SetColor(b.Background)
	_ = b.dc.Fill()
}

func (b *Backend) Stroke(paths []canvas.Subpath, width float64, st canvas.Style) {
	b.trace(paths)
	b.dc.SetLineWidth(width)
	b.dc.SetLineJoin(gg.LineJoinRound)
	b.dc.SetLineCap(gg.LineCapRound)
	b.dc.SetColor(canvas.WithAlpha(st.StrokeColor, st.Alpha))
	_ = b.dc.Stroke()
}

func (b *Backend) Fill(paths []canvas.Subpath, st canvas.Style) {
	b.trace(paths)
	b.dc.SetColor(canvas.WithAlpha(st.FillColor, st.Alpha))
	_ = b.dc.Fill()
}

// Text draws s anchored at user-space (x, y) under m. Axis-aligned
// transforms go through gg's glyph rasterizer. Rotated ones fill the glyph
// outlines through the gg transform so labels turn with the map.
func (b *Backend) Text(s string, x, y float64, m gg.Matrix, st canvas.Style) {
	b.dc.SetColor(canvas.WithAlpha(st.FillColor, st.Alpha))
	if m.B == 0 && m.D == 0 {
		face := b.face(st.FontSize * canvas.ScaleFactor(m))
		dx, dy := anchor(face, s, st)
		p := m.TransformPoint(gg.Pt(x, y))
		b.dc.SetFont(face)
		b.dc.DrawString(s, p.X+dx, p.Y+dy)
		return
	}

	face := b.face(st.FontSize)
	dx, dy := anchor(face, s, st)

	b.dc.ClearPath()
	b.dc.SetTransform(m)
	for g := range face.Glyphs(s) {
		o, err := b.outlines.ExtractOutline(b.source.Parsed(), g.GID, st.FontSize)
		if err != nil || o == nil {
			continue
		}
		b.traceGlyph(o, x+dx+g.X, y+dy+g.Y)
	}
	b.dc.Identity()
	_ = b.dc.Fill()
}

// anchor returns the offset from the anchor to gg's alphabetic baseline
// origin. Baselines other than alphabetic are approximated from the line
// height.
func anchor(face text.Face, s string, st canvas.Style) (dx, dy float64) {
	w, h := text.Measure(s, face)
	switch st.Align {
	case canvas.AlignCenter:
		dx = -w / 2
	case canvas.AlignRight:
		dx = -w
	}
	switch st.Baseline {
	case canvas.BaselineTop:
		dy = h * 0.8
	case canvas.BaselineMiddle:
		dy = h * 0.3
	case canvas.BaselineBottom:
		dy = -h * 0.2
	}
	return dx, dy
}

// traceGlyph appends one glyph outline, offset to (ox, oy), to the path.
// Outline coordinates are y-down pixels at the extraction size.
func (b *Backend) traceGlyph(o *text.GlyphOutline, ox, oy float64) {
	started := false
	for _, seg := range o.Segments {
		var px, py [3]float64
		for i, p := range seg.Points {
			px[i], py[i] = ox+float64(p.X), oy+float64(p.Y)
		}
		switch seg.Op {
		case text.OutlineOpMoveTo:
			if started {
				b.dc.ClosePath()
			}
			b.dc.MoveTo(px[0], py[0])
			started = true
		case text.OutlineOpLineTo:
			b.dc.LineTo(px[0], py[0])
		case text.OutlineOpQuadTo:
			b.dc.QuadraticTo(px[0], py[0], px[1], py[1])
		case text.OutlineOpCubicTo:
			b.dc.CubicTo(px[0], py[0], px[1], py[1], px[2], py[2])
		}
	}
	if started {
		b.dc.ClosePath()
	}
}

func (b *Backend) face(size float64) text.Face {
	if f, ok := b.faces[size]; ok {
		return f
	}
	f := b.source.Face(size)
	b.faces[size] = f
	return f
}

func (b *Backend) trace(paths []canvas.Subpath) {
	b.dc.ClearPath()
	for _, sp := range paths {
		for i, pt := range sp.Points {
			if i == 0 {
				b.dc.MoveTo(pt.X, pt.Y)
			} else {
				b.dc.LineTo(pt.X, pt.Y)
			}
		}
		if sp.Closed {
			b.dc.ClosePath()
		}
	}
}

// Image returns the rendered pixels.
func (b *Backend) Image() image.Image {
	return b.dc.Image()
}

// EncodePNG writes the rendered pixels as PNG.
func (b *Backend) EncodePNG(w io.Writer) error {
	return b.dc.EncodePNG(w)
}

// Close releases the gg context.
func (b *Backend) Close() error {
	return b.dc.Close()
}
