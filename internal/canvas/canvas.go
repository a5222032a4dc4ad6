// Package canvas implements a small immediate-mode 2D drawing context in the
// style of the HTML canvas: a transform stack, a style stack, path
// construction and text. Geometry is transformed to device pixels here and
// handed to a Backend, which only has to rasterize polylines, polygons and
// text.
package canvas

import (
	"image/color"
	"math"

	"circuit-tracker/internal/common"

	"github.com/gogpu/gg"
)

// TextAlign is the horizontal anchor of FillText.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// Baseline is the vertical anchor of FillText.
type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineTop
	BaselineMiddle
	BaselineBottom
)

// Style is the drawing state saved and restored with the transform.
type Style struct {
	StrokeColor color.RGBA
	FillColor   color.RGBA
	LineWidth   float64
	Alpha       float64
	FontSize    float64
	Align       TextAlign
	Baseline    Baseline
}

// DefaultStyle mirrors the HTML canvas defaults.
func DefaultStyle() Style {
	return Style{
		StrokeColor: color.RGBA{0, 0, 0, 255},
		FillColor:   color.RGBA{0, 0, 0, 255},
		LineWidth:   1,
		Alpha:       1,
		FontSize:    10,
		Align:       AlignLeft,
		Baseline:    BaselineAlphabetic,
	}
}

// Subpath is a polyline in device pixels.
type Subpath struct {
	Points []common.Vec2
	Closed bool
}

// Backend rasterizes device-space primitives.
type Backend interface {
	// Size returns the backing buffer size in device pixels.
	Size() (w, h int)
	// Resize reallocates the backing buffer. Contents are discarded.
	Resize(w, h int)
	// Clear resets the device rectangle [x0,x1) x [y0,y1) to the background.
	Clear(x0, y0, x1, y1 float64)
	// Stroke draws the subpaths with a device-space line width.
	Stroke(paths []Subpath, width float64, st Style)
	// Fill fills the subpaths with the non-zero rule.
	Fill(paths []Subpath, st Style)
	// Text draws s anchored at user-space (x, y) under transform m.
	Text(s string, x, y float64, m gg.Matrix, st Style)
}

type state struct {
	m  gg.Matrix
	st Style
}

// Context is the drawing context handed to renderers. It is not safe for
// concurrent use.
type Context struct {
	b     Backend
	m     gg.Matrix
	st    Style
	stack []state

	path []Subpath
	cur  *Subpath
}

// New wraps a backend in a fresh context with identity transform.
func New(b Backend) *Context {
	return &Context{b: b, m: gg.Identity(), st: DefaultStyle()}
}

// Backend returns the underlying rasterizer.
func (c *Context) Backend() Backend {
	return c.b
}

// Save pushes the transform and style.
func (c *Context) Save() {
	c.stack = append(c.stack, state{m: c.m, st: c.st})
}

// Restore pops the last saved transform and style. Unbalanced calls are ignored.
func (c *Context) Restore() {
	if len(c.stack) == 0 {
		return
	}
	s := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.m, c.st = s.m, s.st
}

// Depth returns the number of saved states.
func (c *Context) Depth() int {
	return len(c.stack)
}

// SetTransform replaces the current transform. Arguments follow the HTML
// canvas order: x' = a*x + cc*y + e, y' = b*x + d*y + f.
func (c *Context) SetTransform(a, b, cc, d, e, f float64) {
	c.m = gg.Matrix{A: a, B: cc, C: e, D: b, E: d, F: f}
}

// Transform returns the current transform.
func (c *Context) Transform() gg.Matrix {
	return c.m
}

// Translate appends a translation to the current transform.
func (c *Context) Translate(x, y float64) {
	c.m = c.m.Multiply(gg.Translate(x, y))
}

// Rotate appends a rotation in radians (clockwise on a y-down surface).
func (c *Context) Rotate(angle float64) {
	c.m = c.m.Multiply(gg.Rotate(angle))
}

func (c *Context) apply(x, y float64) common.Vec2 {
	p := c.m.TransformPoint(gg.Pt(x, y))
	return common.Vec2{X: p.X, Y: p.Y}
}

// ScaleFactor is the mean linear scale of m, used for line widths, radii
// and font sizes.
func ScaleFactor(m gg.Matrix) float64 {
	return math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
}

// ClearRect clears a user-space rectangle. Under rotation the device
// bounding box of the rectangle is cleared.
func (c *Context) ClearRect(x, y, w, h float64) {
	corners := [4]common.Vec2{
		c.apply(x, y),
		c.apply(x+w, y),
		c.apply(x, y+h),
		c.apply(x+w, y+h),
	}
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for _, p := range corners {
		x0, y0 = math.Min(x0, p.X), math.Min(y0, p.Y)
		x1, y1 = math.Max(x1, p.X), math.Max(y1, p.Y)
	}
	c.b.Clear(x0, y0, x1, y1)
}

// BeginPath discards the current path.
func (c *Context) BeginPath() {
	c.path = c.path[:0]
	c.cur = nil
}

// MoveTo starts a new subpath at (x, y).
func (c *Context) MoveTo(x, y float64) {
	c.path = append(c.path, Subpath{Points: []common.Vec2{c.apply(x, y)}})
	c.cur = &c.path[len(c.path)-1]
}

// LineTo extends the current subpath, starting one if there is none.
func (c *Context) LineTo(x, y float64) {
	if c.cur == nil || c.cur.Closed {
		c.MoveTo(x, y)
		return
	}
	c.cur.Points = append(c.cur.Points, c.apply(x, y))
}

// Arc adds a circular arc from start to end radians (clockwise on screen),
// connected to the current subpath if there is one.
func (c *Context) Arc(x, y, r, start, end float64) {
	sweep := end - start
	if sweep < 0 {
		sweep = math.Mod(sweep, 2*math.Pi) + 2*math.Pi
	}
	if sweep > 2*math.Pi {
		sweep = 2 * math.Pi
	}

	devR := r * ScaleFactor(c.m)
	n := int(math.Ceil(sweep * math.Max(devR, 1) / 2))
	n = max(8, min(n, 128))

	for i := 0; i <= n; i++ {
		a := start + sweep*float64(i)/float64(n)
		px, py := x+r*math.Cos(a), y+r*math.Sin(a)
		if i == 0 && c.cur == nil {
			c.MoveTo(px, py)
			continue
		}
		c.LineTo(px, py)
	}
}

// ClosePath closes the current subpath.
func (c *Context) ClosePath() {
	if c.cur != nil {
		c.cur.Closed = true
	}
}

// Stroke outlines the current path with the current stroke style.
func (c *Context) Stroke() {
	if len(c.path) == 0 {
		return
	}
	c.b.Stroke(c.snapshot(), c.st.LineWidth*ScaleFactor(c.m), c.st)
}

// Fill fills the current path with the current fill style.
func (c *Context) Fill() {
	if len(c.path) == 0 {
		return
	}
	c.b.Fill(c.snapshot(), c.st)
}

func (c *Context) snapshot() []Subpath {
	out := make([]Subpath, len(c.path))
	for i, sp := range c.path {
		pts := make([]common.Vec2, len(sp.Points))
		copy(pts, sp.Points)
		out[i] = Subpath{Points: pts, Closed: sp.Closed}
	}
	return out
}

// FillText draws s at (x, y) with the current font, alignment and fill color.
func (c *Context) FillText(s string, x, y float64) {
	c.b.Text(s, x, y, c.m, c.st)
}

// Style returns the current style.
func (c *Context) Style() Style {
	return c.st
}

func (c *Context) SetLineWidth(w float64) { c.st.LineWidth = w }
func (c *Context) SetAlpha(a float64) { c.st.Alpha = math.Max(0, math.Min(a, 1)) }
func (c *Context) SetFontSize(px float64) { c.st.FontSize = px }
func (c *Context) SetTextAlign(a TextAlign) { c.st.Align = a }
func (c *Context) SetTextBaseline(b Baseline) { c.st.Baseline = b }
func (c *Context) SetStrokeColor(col color.Color) { c.st.StrokeColor = toRGBA(col) }
func (c *Context) SetFillColor(col color.Color) { c.st.FillColor = toRGBA(col) }

func toRGBA(col color.Color) color.RGBA {
	if rgba, ok := col.(color.RGBA); ok {
		return rgba
	}
	r, g, b, a := col.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

// WithAlpha returns col with its alpha channel multiplied by a, straight
// (non-premultiplied) components kept.
func WithAlpha(col color.RGBA, a float64) color.NRGBA {
	return color.NRGBA{R: col.R, G: col.G, B: col.B, A: uint8(math.Round(float64(col.A) * a))}
}
