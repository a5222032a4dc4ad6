// Package ebitencanvas rasterizes canvas primitives onto an ebiten image.
package ebitencanvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"circuit-tracker/internal/canvas"

	"github.com/gogpu/gg"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Backend draws into an offscreen ebiten image that the window host blits
// to the screen every frame.
type Backend struct {
	img        *ebiten.Image
	source     *text.GoTextFaceSource
	Background color.Color
}

// New allocates a w x h backing image.
func New(w, h int) (*Backend, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &Backend{
		img:        ebiten.NewImage(max(w, 1), max(h, 1)),
		source:     src,
		Background: color.White,
	}, nil
}

// Image returns the backing image.
func (b *Backend) Image() *ebiten.Image {
	return b.img
}

func (b *Backend) Size() (int, int) {
	s := b.img.Bounds().Size()
	return s.X, s.Y
}

func (b *Backend) Resize(w, h int) {
	if cw, ch := b.Size(); cw == w && ch == h {
		return
	}
	b.img.Deallocate()
	b.img = ebiten.NewImage(max(w, 1), max(h, 1))
}

func (b *Backend) Clear(x0, y0, x1, y1 float64) {
	r := image.Rect(int(x0), int(y0), int(x1+0.5), int(y1+0.5)).Intersect(b.img.Bounds())
	if r.Empty() {
		return
	}
	sub, ok := b.img.SubImage(r).(*ebiten.Image)
	if !ok {
		return
	}
	sub.Fill(b.Background)
}

func (b *Backend) Stroke(paths []canvas.Subpath, width float64, st canvas.Style) {
	p := toPath(paths)
	vector.StrokePath(b.img, p, &vector.StrokeOptions{
		Width:    float32(width),
		LineJoin: vector.LineJoinRound,
		LineCap:  vector.LineCapRound,
	}, drawOptions(st.StrokeColor, st.Alpha))
}

func (b *Backend) Fill(paths []canvas.Subpath, st canvas.Style) {
	vector.FillPath(b.img, toPath(paths), nil, drawOptions(st.FillColor, st.Alpha))
}

func (b *Backend) Text(s string, x, y float64, m gg.Matrix, st canvas.Style) {
	face := &text.GoTextFace{Source: b.source, Size: st.FontSize}

	op := &text.DrawOptions{}
	switch st.Align {
	case canvas.AlignCenter:
		op.PrimaryAlign = text.AlignCenter
	case canvas.AlignRight:
		op.PrimaryAlign = text.AlignEnd
	default:
		op.PrimaryAlign = text.AlignStart
	}

	dy := 0.0
	switch st.Baseline {
	case canvas.BaselineTop:
		op.SecondaryAlign = text.AlignStart
	case canvas.BaselineMiddle:
		op.SecondaryAlign = text.AlignCenter
	case canvas.BaselineBottom:
		op.SecondaryAlign = text.AlignEnd
	default:
		op.SecondaryAlign = text.AlignStart
		dy = -face.Metrics().HAscent
	}

	op.GeoM.Translate(x, y+dy)
	op.GeoM.Concat(geoM(m))
	op.ColorScale.ScaleWithColor(st.FillColor)
	op.ColorScale.ScaleAlpha(float32(st.Alpha))
	op.Filter = ebiten.FilterLinear
	text.Draw(b.img, s, face, op)
}

func toPath(paths []canvas.Subpath) *vector.Path {
	var p vector.Path
	for _, sp := range paths {
		for i, pt := range sp.Points {
			if i == 0 {
				p.MoveTo(float32(pt.X), float32(pt.Y))
			} else {
				p.LineTo(float32(pt.X), float32(pt.Y))
			}
		}
		if sp.Closed {
			p.Close()
		}
	}
	return &p
}

func drawOptions(col color.RGBA, alpha float64) *vector.DrawPathOptions {
	var cs ebiten.ColorScale
	cs.ScaleWithColor(col)
	cs.ScaleAlpha(float32(alpha))
	return &vector.DrawPathOptions{
		AntiAlias:  true,
		ColorScale: cs,
	}
}

// geoM converts a gg transform; both are row-major 2x3 matrices.
func geoM(m gg.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m.A)
	g.SetElement(0, 1, m.B)
	g.SetElement(0, 2, m.C)
	g.SetElement(1, 0, m.D)
	g.SetElement(1, 1, m.E)
	g.SetElement(1, 2, m.F)
	return g
}
