package canvas

import (
	"fmt"

	"github.com/gogpu/gg"
)

// OpKind identifies a recorded backend call.
type OpKind int

const (
	OpClear OpKind = iota
	OpStroke
	OpFill
	OpText
)

func (k OpKind) String() string {
	switch k {
	case OpClear:
		return "clear"
	case OpStroke:
		return "stroke"
	case OpFill:
		return "fill"
	case OpText:
		return "text"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one recorded backend call.
type Op struct {
	Kind   OpKind
	Paths  []Subpath
	Width  float64
	Style  Style
	Text   string
	X, Y   float64
	Matrix gg.Matrix
	Rect   [4]float64
}

// Recorder is a Backend that keeps every call instead of rasterizing. It is
// used to inspect draw order and geometry.
type Recorder struct {
	W, H int
	Ops  []Op
}

// NewRecorder returns a recorder with a w x h device buffer.
func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) Resize(w, h int) {
	r.W, r.H = w, h
}

func (r *Recorder) Clear(x0, y0, x1, y1 float64) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Rect: [4]float64{x0, y0, x1, y1}})
}

func (r *Recorder) Stroke(paths []Subpath, width float64, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpStroke, Paths: paths, Width: width, Style: st})
}

func (r *Recorder) Fill(paths []Subpath, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, Paths: paths, Style: st})
}

func (r *Recorder) Text(s string, x, y float64, m gg.Matrix, st Style) {
	r.Ops = append(r.Ops, Op{Kind: OpText, Text: s, X: x, Y: y, Matrix: m, Style: st})
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

// Filter returns the recorded calls of the given kind, in order.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns the strings drawn, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Filter(OpText) {
		out = append(out, op.Text)
	}
	return out
}
