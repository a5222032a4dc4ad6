package scene

import (
	"math"
	"testing"

	"circuit-tracker/internal/canvas"
	"circuit-tracker/internal/common"
	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/track"
	"circuit-tracker/internal/view"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSurface records drawing and lets tests fire host events.
type fakeSurface struct {
	rec     *canvas.Recorder
	cv      *canvas.Context
	w, h    float64
	ratio   float64
	resize  map[int]func()
	click   map[int]func(x, y float64)
	nextID  int
	noCtx   bool
	backing [2]int
}

func newFakeSurface(w, h, ratio float64) *fakeSurface {
	rec := canvas.NewRecorder(int(w), int(h))
	return &fakeSurface{
		rec:    rec,
		cv:     canvas.New(rec),
		w:      w,
		h:      h,
		ratio:  ratio,
		resize: map[int]func(){},
		click:  map[int]func(x, y float64){},
	}
}

func (f *fakeSurface) Canvas() *canvas.Context {
	if f.noCtx {
		return nil
	}
	return f.cv
}

func (f *fakeSurface) DisplaySize() (float64, float64) { return f.w, f.h }

func (f *fakeSurface) PixelRatio() float64 { return f.ratio }

func (f *fakeSurface) SetBackingSize(w, h int) {
	f.backing = [2]int{w, h}
	f.rec.Resize(w, h)
}

func (f *fakeSurface) OnResize(fn func()) func() {
	id := f.nextID
	f.nextID++
	f.resize[id] = fn
	return func() { delete(f.resize, id) }
}

func (f *fakeSurface) OnClick(fn func(x, y float64)) func() {
	id := f.nextID
	f.nextID++
	f.click[id] = fn
	return func() { delete(f.click, id) }
}

func (f *fakeSurface) fireResize(w, h float64) {
	f.w, f.h = w, h
	for _, fn := range f.resize {
		fn()
	}
}

func (f *fakeSurface) fireClick(x, y float64) {
	for _, fn := range f.click {
		fn(x, y)
	}
}

func (f *fakeSurface) kinds() []canvas.OpKind {
	out := make([]canvas.OpKind, len(f.rec.Ops))
	for i, op := range f.rec.Ops {
		out[i] = op.Kind
	}
	return out
}

func lineCircuit() track.Circuit {
	return track.Circuit{Name: "line", Points: []geo.Point{
		{Lat: 10, Lon: 10},
		{Lat: 10.01, Lon: 10.01},
	}}
}

func newTestSession(t *testing.T, surf *fakeSurface, opts Options) *Session {
	t.Helper()
	s, err := NewSession(Surfaces{"map": surf}, lineCircuit(), opts)
	require.NoError(t, err)
	return s
}

func TestNewSession_Errors(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)

	_, err := NewSession(Surfaces{"map": surf}, lineCircuit(), DefaultOptions("missing"))
	assert.ErrorIs(t, err, ErrNoCanvas)

	_, err = NewSession(Surfaces{"map": surf}, lineCircuit(), DefaultOptions(""))
	assert.ErrorIs(t, err, ErrNoCanvas)

	_, err = NewSession(Surfaces{"map": surf}, track.Circuit{}, DefaultOptions("map"))
	assert.ErrorIs(t, err, track.ErrEmptyCircuit)

	surf.noCtx = true
	_, err = NewSession(Surfaces{"map": surf}, lineCircuit(), DefaultOptions("map"))
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestSession_BackingSizeFollowsPixelRatio(t *testing.T) {
	surf := newFakeSurface(300, 200, 2)
	newTestSession(t, surf, DefaultOptions("map"))

	assert.Equal(t, [2]int{600, 400}, surf.backing)
	assert.Equal(t, gg.Scale(2, 2), surf.cv.Transform())

	clears := surf.rec.Filter(canvas.OpClear)
	require.NotEmpty(t, clears)
	assert.Equal(t, [4]float64{0, 0, 600, 400}, clears[0].Rect)

	surf.ratio = 1.5
	surf.fireResize(401, 100)
	assert.Equal(t, [2]int{602, 150}, surf.backing)
}

func TestSession_ResizeRefits(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	surf.fireResize(600, 400)

	want := view.NewViewport()
	want.Fit(s.Projector().Bounds(), 600, 400, DefaultPaddingPx)
	assert.Equal(t, *want, s.Viewport())
}

func TestSession_ListenerCount(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	assert.Len(t, surf.resize, 1)
	assert.Len(t, surf.click, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Reset(lineCircuit(), DefaultOptions("map")))
	}
	assert.Len(t, surf.resize, 1)
	assert.Len(t, surf.click, 1)

	s.Destroy()
	assert.Empty(t, surf.resize)
	assert.Empty(t, surf.click)
	assert.False(t, s.Active())

	assert.ErrorIs(t, s.Reset(lineCircuit(), DefaultOptions("map")), ErrDestroyed)
	assert.ErrorIs(t, s.UpdateLive(geo.Sample{Lat: 10, Lon: 10}), ErrDestroyed)
	s.Destroy()
}

func TestSession_ResetMovesListenersToNewSurface(t *testing.T) {
	a := newFakeSurface(300, 200, 1)
	b := newFakeSurface(300, 200, 1)
	s, err := NewSession(Surfaces{"a": a, "b": b}, lineCircuit(), DefaultOptions("a"))
	require.NoError(t, err)

	require.NoError(t, s.Reset(lineCircuit(), DefaultOptions("b")))
	assert.Empty(t, a.resize)
	assert.Empty(t, a.click)
	assert.Len(t, b.resize, 1)
	assert.Len(t, b.click, 1)
}

func TestSession_ResetFailureKeepsState(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10, Lon: 10}))

	err := s.Reset(track.Circuit{}, DefaultOptions("map"))
	require.ErrorIs(t, err, track.ErrEmptyCircuit)
	assert.Equal(t, "line", s.Circuit().Name)
	assert.Len(t, s.Trail(), 1)
}

func TestSession_ResetIsolation(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	fresh := s.Viewport()

	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.002, Lon: 10.003, Heading: geo.Heading(45)}))
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.004, Lon: 10.006}))
	s.Zoom(3)

	require.NoError(t, s.Reset(lineCircuit(), DefaultOptions("map")))
	assert.Empty(t, s.Trail())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, fresh, s.Viewport())

	// no heading carried over from before the reset
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.001, Lon: 10.001}))
	cur, ok := s.Current()
	require.True(t, ok)
	require.NotNil(t, cur.Heading)
	assert.Zero(t, *cur.Heading)
}

func TestSession_HeadingFallback(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))

	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10, Lon: 10}))
	cur, _ := s.Current()
	require.NotNil(t, cur.Heading)
	assert.Zero(t, *cur.Heading, "north until a heading is reported")

	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10, Lon: 10, Heading: geo.Heading(90)}))
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.001, Lon: 10}))
	cur, _ = s.Current()
	require.NotNil(t, cur.Heading)
	assert.Equal(t, 90.0, *cur.Heading)
	assert.Equal(t, 10.001, cur.Lat)
}

func TestSession_InvalidSample(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))

	assert.ErrorIs(t, s.UpdateLive(geo.Sample{Lat: math.NaN(), Lon: 10}), ErrInvalidSample)
	assert.ErrorIs(t, s.UpdateLive(geo.Sample{Lat: 10, Lon: math.Inf(1)}), ErrInvalidSample)
	assert.Empty(t, s.Trail())
}

func TestSession_FollowRecenters(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))

	sample := geo.Sample{Lat: 10.002, Lon: 10.007}
	require.NoError(t, s.UpdateLive(sample))
	assert.Equal(t, s.Projector().Project(sample.Point()), s.Viewport().Center)

	s.SetFollow(false)
	assert.False(t, s.Follow())
	center := s.Viewport().Center
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.009, Lon: 10.001}))
	assert.Equal(t, center, s.Viewport().Center)
}

func TestSession_ClickZoomsBySide(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	scale := s.Viewport().Scale

	surf.fireClick(200, 10)
	assert.InDelta(t, scale*1.2, s.Viewport().Scale, scale*1e-9)

	surf.fireClick(150, 10)
	assert.InDelta(t, scale*1.2*0.8, s.Viewport().Scale, scale*1e-9)

	surf.fireClick(10, 190)
	assert.InDelta(t, scale*1.2*0.8*0.8, s.Viewport().Scale, scale*1e-9)
}

func TestSession_RecenterTo(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	surf.rec.Reset()

	s.RecenterTo(10.005, 10.002)
	assert.Equal(t, s.Projector().ToXY(10.005, 10.002), s.Viewport().Center)
	assert.NotEmpty(t, surf.rec.Filter(canvas.OpClear), "recenter redraws")
}

func TestSession_Locate(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))

	mid, ok := s.Locate(150, 100)
	require.True(t, ok)
	assert.InDelta(t, 10.005, mid.Lat, 1e-9)
	assert.InDelta(t, 10.005, mid.Lon, 1e-9)

	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.002, Lon: 10.002, Heading: geo.Heading(90)}))
	corner := geo.Point{Lat: 10.01, Lon: 10.01}
	vp := s.Viewport()
	q := vp.WorldToScreen(s.Projector().Project(corner), 300, 200)
	c := common.Vec2{X: 150, Y: 100}
	onScreen := q.Sub(c).Rotate(common.DegToRad(-90)).Add(c)

	got, ok := s.Locate(onScreen.X, onScreen.Y)
	require.True(t, ok)
	assert.InDelta(t, corner.Lat, got.Lat, 1e-9)
	assert.InDelta(t, corner.Lon, got.Lon, 1e-9)

	s.Destroy()
	_, ok = s.Locate(150, 100)
	assert.False(t, ok)
}

func TestDraw_OrderWithoutLiveData(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	newTestSession(t, surf, DefaultOptions("map"))

	assert.Equal(t, []canvas.OpKind{
		canvas.OpClear,
		canvas.OpStroke, // circuit
		canvas.OpFill, canvas.OpText,
		canvas.OpFill, canvas.OpText,
		canvas.OpStroke, canvas.OpText, // scale bar
	}, surf.kinds())
	assert.Equal(t, []string{"0", "1"}, surf.rec.Texts()[:2])
}

func TestDraw_OrderWithLiveData(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.002, Lon: 10.002, Heading: geo.Heading(30)}))
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.003, Lon: 10.004}))

	surf.rec.Reset()
	s.Draw()
	assert.Equal(t, []canvas.OpKind{
		canvas.OpClear,
		canvas.OpStroke,
		canvas.OpFill, canvas.OpText,
		canvas.OpFill, canvas.OpText,
		canvas.OpStroke, // trail
		canvas.OpFill,   // marker
		canvas.OpStroke, // compass ring
		canvas.OpFill,   // needle
		canvas.OpText,   // N
		canvas.OpStroke, canvas.OpText,
	}, surf.kinds())
	assert.Equal(t, 0, surf.cv.Depth())

	ops := surf.rec.Ops
	assert.Equal(t, 3.0, ops[1].Width)
	assert.Equal(t, black, ops[2].Style.FillColor)
	assert.Equal(t, labelRed, ops[3].Style.FillColor)

	trail := ops[6]
	assert.Equal(t, 2.0, trail.Width)
	assert.Equal(t, trailAlpha, trail.Style.Alpha)
	assert.Equal(t, lightCoral, trail.Style.StrokeColor)
	assert.Equal(t, needleBlue, ops[9].Style.FillColor)
	assert.Equal(t, "N", ops[10].Text)
	assert.Equal(t, canvas.AlignCenter, ops[10].Style.Align)

	bar := ops[12]
	assert.Equal(t, canvas.AlignRight, bar.Style.Align)
	assert.Equal(t, canvas.BaselineBottom, bar.Style.Baseline)
	assert.Equal(t, 280.0, bar.X)
	assert.Equal(t, 174.0, bar.Y)
}

func TestDraw_NoCompassWithoutRotation(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	opts := DefaultOptions("map")
	opts.RotateToHeading = false
	s := newTestSession(t, surf, opts)
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.002, Lon: 10.002, Heading: geo.Heading(30)}))

	assert.NotContains(t, surf.rec.Texts(), "N")
}

func TestDraw_CompassAtNorthWithoutReportedHeading(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))

	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.002, Lon: 10.002}))
	assert.Contains(t, surf.rec.Texts(), "N")

	fills := surf.rec.Filter(canvas.OpFill)
	needle := fills[len(fills)-1].Paths[0]
	assertNear(t, common.Vec2{X: 300 - compassInset, Y: compassInset - 18}, needle.Points[0])
	marker := fills[len(fills)-2].Paths[0]
	assertNear(t, common.Vec2{X: 150, Y: 100 - markerSize}, marker.Points[0])
}

func TestDraw_MarkerPinnedAndCounterRotated(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	require.NoError(t, s.UpdateLive(geo.Sample{Lat: 10.002, Lon: 10.002, Heading: geo.Heading(90)}))

	fills := surf.rec.Filter(canvas.OpFill)
	// two waypoint dots, the marker, the needle
	require.Len(t, fills, 4)
	marker := fills[2].Paths[0]
	require.Len(t, marker.Points, 3)
	assert.True(t, marker.Closed)

	// scene rotation and marker rotation cancel: apex points up from center
	apex := marker.Points[0]
	assert.InDelta(t, 150, apex.X, 1e-9)
	assert.InDelta(t, 88, apex.Y, 1e-9)
}

func TestDraw_MarkerAtProjectedPositionWithoutFollow(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	opts := DefaultOptions("map")
	opts.Follow = false
	opts.RotateToHeading = false
	s := newTestSession(t, surf, opts)

	sample := geo.Sample{Lat: 10.002, Lon: 10.002}
	require.NoError(t, s.UpdateLive(sample))
	vp := s.Viewport()
	want := vp.WorldToScreen(s.Projector().Project(sample.Point()), 300, 200)

	fills := surf.rec.Filter(canvas.OpFill)
	marker := fills[len(fills)-1].Paths[0]
	assertNear(t, common.Vec2{X: want.X, Y: want.Y - markerSize}, marker.Points[0])
}

func TestSession_DestroyClears(t *testing.T) {
	surf := newFakeSurface(300, 200, 1)
	s := newTestSession(t, surf, DefaultOptions("map"))
	surf.rec.Reset()

	s.Destroy()
	assert.Equal(t, []canvas.OpKind{canvas.OpClear}, surf.kinds())

	surf.rec.Reset()
	s.Draw()
	s.Zoom(2)
	surf.fireClick(10, 10)
	assert.Empty(t, surf.rec.Ops)
}

func TestScaleBarMeters(t *testing.T) {
	assert.Equal(t, int64(5566000), scaleBarMeters(2.0))
	assert.Equal(t, int64(11132000), scaleBarMeters(1))
	assert.Equal(t, int64(11132), scaleBarMeters(1000))
}

func TestOptions_Normalized(t *testing.T) {
	o := Options{CanvasID: "x", PaddingPx: -1, LineWidth: 0, TrailMax: -5}.normalized()
	assert.Equal(t, float64(DefaultPaddingPx), o.PaddingPx)
	assert.Equal(t, float64(DefaultLineWidth), o.LineWidth)
	assert.Equal(t, 500, o.TrailMax)

	o = Options{PaddingPx: 0, LineWidth: 1, TrailMax: 7}.normalized()
	assert.Equal(t, 0.0, o.PaddingPx)
	assert.Equal(t, 1.0, o.LineWidth)
	assert.Equal(t, 7, o.TrailMax)
}

func assertNear(t *testing.T, want, got common.Vec2) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}
