package view

import (
	"testing"

	"circuit-tracker/internal/common"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func box(minX, minY, maxX, maxY float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}

func TestViewport_Fit(t *testing.T) {
	tests := []struct {
		name       string
		b          orb.Bound
		w, h, pad  float64
		wantScale  float64
		wantCenter common.Vec2
	}{
		{
			name:       "Width limited",
			b:          box(0, 0, 10, 2),
			w:          300,
			h:          300,
			pad:        50,
			wantScale:  20,
			wantCenter: common.Vec2{X: 5, Y: 1},
		},
		{
			name:       "Height limited",
			b:          box(-1, -4, 1, 4),
			w:          800,
			h:          480,
			pad:        40,
			wantScale:  50,
			wantCenter: common.Vec2{X: 0, Y: 0},
		},
		{
			name:       "Single point uses floor extent",
			b:          box(3, 3, 3, 3),
			w:          100,
			h:          100,
			pad:        0,
			wantScale:  100 / fitFloor,
			wantCenter: common.Vec2{X: 3, Y: 3},
		},
		{
			name:       "Padding larger than surface floors scale",
			b:          box(0, 0, 1, 1),
			w:          50,
			h:          50,
			pad:        40,
			wantScale:  fitFloor,
			wantCenter: common.Vec2{X: 0.5, Y: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport()
			v.Fit(tt.b, tt.w, tt.h, tt.pad)
			assert.InDelta(t, tt.wantScale, v.Scale, tt.wantScale*1e-9)
			assert.Equal(t, tt.wantCenter, v.Center)
		})
	}
}

func TestViewport_FitIsIdempotent(t *testing.T) {
	b := box(0.1, 0.2, 0.35, 0.9)
	v := NewViewport()
	v.Fit(b, 640, 480, 40)
	first := *v

	v.Zoom(3)
	v.RecenterTo(common.Vec2{X: 9, Y: 9})
	v.Fit(b, 640, 480, 40)
	assert.Equal(t, first, *v)
}

func TestViewport_WorldToScreen(t *testing.T) {
	v := &Viewport{Center: common.Vec2{X: 5, Y: 5}, Scale: 10}

	assert.Equal(t, common.Vec2{X: 50, Y: 40}, v.WorldToScreen(common.Vec2{X: 5, Y: 5}, 100, 80))
	assert.Equal(t, common.Vec2{X: 60, Y: 20}, v.WorldToScreen(common.Vec2{X: 6, Y: 3}, 100, 80))

	back := v.ScreenToWorld(common.Vec2{X: 60, Y: 20}, 100, 80)
	assert.InDelta(t, 6, back.X, 1e-12)
	assert.InDelta(t, 3, back.Y, 1e-12)
}

func TestViewport_ZoomMonotonic(t *testing.T) {
	v := &Viewport{Scale: 1}
	prev := v.Scale
	for i := 0; i < 200; i++ {
		v.Zoom(1.2)
		if prev < MaxScale {
			assert.Greater(t, v.Scale, prev)
		}
		assert.LessOrEqual(t, v.Scale, MaxScale)
		prev = v.Scale
	}
	assert.Equal(t, MaxScale, v.Scale)

	for i := 0; i < 400; i++ {
		v.Zoom(0.8)
		if prev > MinScale {
			assert.Less(t, v.Scale, prev)
		}
		assert.GreaterOrEqual(t, v.Scale, MinScale)
		prev = v.Scale
	}
	assert.Equal(t, MinScale, v.Scale)
}

func TestViewport_ZoomCompounds(t *testing.T) {
	v := &Viewport{Scale: 10}
	v.Zoom(2)
	v.Zoom(2)
	assert.Equal(t, 40.0, v.Scale)
	v.Zoom(0.5)
	assert.Equal(t, 20.0, v.Scale)
}
