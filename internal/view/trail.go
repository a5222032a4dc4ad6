package view

import "circuit-tracker/internal/common"

// DefaultTrailMax is the trail capacity used when none is configured.
const DefaultTrailMax = 500

// Trail is a fixed-capacity ring of recently visited planar points. When
// follow is on, every append also recenters the attached viewport.
type Trail struct {
	data   []common.Vec2
	pos    int
	full   bool
	follow bool
	vp     *Viewport
}

// NewTrail creates a trail holding at most capacity points. A capacity
// below 1 falls back to DefaultTrailMax. vp may be nil.
func NewTrail(capacity int, vp *Viewport) *Trail {
	if capacity < 1 {
		capacity = DefaultTrailMax
	}
	return &Trail{
		data: make([]common.Vec2, capacity),
		vp:   vp,
	}
}

// SetFollow turns viewport recentring on append on or off.
func (t *Trail) SetFollow(follow bool) {
	t.follow = follow
}

// Follow reports whether appends recenter the viewport.
func (t *Trail) Follow() bool {
	return t.follow
}

// Append adds p, evicting the oldest point once the trail is full.
func (t *Trail) Append(p common.Vec2) {
	t.data[t.pos] = p
	t.pos++
	if t.pos >= len(t.data) {
		t.pos = 0
		t.full = true
	}

	if t.follow && t.vp != nil {
		t.vp.RecenterTo(p)
	}
}

// Len returns the number of buffered points.
func (t *Trail) Len() int {
	if t.full {
		return len(t.data)
	}
	return t.pos
}

// Points returns the buffered points, oldest first.
func (t *Trail) Points() []common.Vec2 {
	n := t.Len()
	out := make([]common.Vec2, n)
	if t.full {
		copy(out, t.data[t.pos:])
		copy(out[len(t.data)-t.pos:], t.data[:t.pos])
	} else {
		copy(out, t.data[:t.pos])
	}
	return out
}

// Clear drops all points.
func (t *Trail) Clear() {
	clear(t.data)
	t.pos = 0
	t.full = false
}
