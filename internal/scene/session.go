// Package scene binds a circuit, a viewport and a trail to one drawing
// surface and redraws the live map whenever a new position arrives.
//
// A Session is single-threaded: every method must be called from the
// goroutine that owns the surface (the UI loop).
package scene

import (
	"errors"
	"fmt"
	"log/slog"

	"circuit-tracker/internal/canvas"
	"circuit-tracker/internal/common"
	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/track"
	"circuit-tracker/internal/view"
)

var (
	// ErrNoCanvas is returned when the configured surface id is missing or unknown.
	ErrNoCanvas = errors.New("drawing surface not found")
	// ErrNoContext is returned when the surface cannot provide a 2D context.
	ErrNoContext = errors.New("drawing surface has no 2D context")
	// ErrDestroyed is returned by operations on a destroyed session.
	ErrDestroyed = errors.New("session destroyed")
	// ErrInvalidSample is returned for samples with non-finite coordinates.
	ErrInvalidSample = errors.New("sample position is not finite")
)

type lifecycle int

const (
	uninitialized lifecycle = iota
	active
	destroyed
)

func (l lifecycle) String() string {
	switch l {
	case uninitialized:
		return "uninitialized"
	case active:
		return "active"
	case destroyed:
		return "destroyed"
	}
	return fmt.Sprintf("lifecycle(%d)", int(l))
}

// live is the current position with its resolved heading.
type live struct {
	pos     geo.Point
	heading float64
}

// Session renders one circuit and one moving marker on one surface.
type Session struct {
	display Display
	log     *slog.Logger

	state   lifecycle
	surface Surface
	cv      *canvas.Context
	detach  []func()

	opts    Options
	circuit track.Circuit
	proj    *track.Projector
	vp      *view.Viewport
	trail   *view.Trail

	current *live
	// heading is the last reported heading in degrees, 0 until a sample
	// carries one.
	heading float64
}

// SessionOption customizes a session.
type SessionOption func(*Session)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession binds circuit to the surface named by opts.CanvasID, fits the
// view and draws once.
func NewSession(display Display, circuit track.Circuit, opts Options, options ...SessionOption) (*Session, error) {
	s := &Session{display: display, log: slog.Default()}
	for _, o := range options {
		o(s)
	}
	if err := s.init(circuit, opts); err != nil {
		return nil, err
	}
	s.log.Info("map session started",
		"canvas", s.opts.CanvasID,
		"circuit", s.circuit.Name,
		"points", len(s.circuit.Points))
	return s, nil
}

// Reset replaces the whole session state (projection, view, trail, current
// sample, heading) as if the session had been rebuilt for circuit. On error
// the previous state is kept.
func (s *Session) Reset(circuit track.Circuit, opts Options) error {
	if s.state == destroyed {
		return ErrDestroyed
	}
	if err := s.init(circuit, opts); err != nil {
		return err
	}
	s.log.Debug("map session reset", "circuit", s.circuit.Name, "points", len(s.circuit.Points))
	return nil
}

func (s *Session) init(circuit track.Circuit, opts Options) error {
	opts = opts.normalized()
	circuit = circuit.Clone()

	proj, err := track.NewProjector(circuit.Points)
	if err != nil {
		return fmt.Errorf("failed to build projection: %w", err)
	}

	surface, err := s.resolve(opts.CanvasID)
	if err != nil {
		return err
	}

	vp := view.NewViewport()
	trail := view.NewTrail(opts.TrailMax, vp)
	trail.SetFollow(opts.Follow)

	if surface != s.surface {
		s.detachListeners()
		s.surface = surface
		s.cv = surface.Canvas()
	}

	s.opts = opts
	s.circuit = circuit
	s.proj = proj
	s.vp = vp
	s.trail = trail
	s.current = nil
	s.heading = 0
	s.state = active

	s.fixDPI()
	s.fitView()
	s.attachListeners()
	s.Draw()
	return nil
}

func (s *Session) resolve(id string) (Surface, error) {
	if id == "" || s.display == nil {
		return nil, fmt.Errorf("canvas id %q: %w", id, ErrNoCanvas)
	}
	surface, ok := s.display.Surface(id)
	if !ok || surface == nil {
		return nil, fmt.Errorf("canvas id %q: %w", id, ErrNoCanvas)
	}
	if surface.Canvas() == nil {
		return nil, fmt.Errorf("canvas id %q: %w", id, ErrNoContext)
	}
	return surface, nil
}

// Destroy clears the surface, detaches the listeners and drops all state.
// Calling it again is a no-op.
func (s *Session) Destroy() {
	if s.state != active {
		return
	}
	s.detachListeners()
	if s.cv != nil {
		w, h := s.surface.DisplaySize()
		s.cv.ClearRect(0, 0, w, h)
	}

	s.cv = nil
	s.surface = nil
	s.proj = nil
	s.vp = nil
	s.trail = nil
	s.circuit = track.Circuit{}
	s.current = nil
	s.heading = 0
	s.state = destroyed
	s.log.Info("map session destroyed", "canvas", s.opts.CanvasID)
}

// UpdateLive records a new position: it becomes the current sample, its
// projection is appended to the trail and the scene is redrawn. A nil
// heading keeps the last known one, which starts at north.
func (s *Session) UpdateLive(sample geo.Sample) error {
	if s.state != active {
		return ErrDestroyed
	}
	if !sample.Point().Valid() {
		return ErrInvalidSample
	}

	if sample.Heading != nil {
		s.heading = *sample.Heading
	}
	s.current = &live{pos: sample.Point(), heading: s.heading}
	s.trail.Append(s.proj.ToXY(sample.Lat, sample.Lon))
	s.Draw()
	return nil
}

// SetFollow switches follow mode.
func (s *Session) SetFollow(follow bool) {
	if s.state != active {
		return
	}
	s.opts.Follow = follow
	s.trail.SetFollow(follow)
}

// Follow reports whether follow mode is on.
func (s *Session) Follow() bool {
	return s.opts.Follow
}

// Zoom scales the view by factor and redraws.
func (s *Session) Zoom(factor float64) {
	if s.state != active {
		return
	}
	s.vp.Zoom(factor)
	s.log.Debug("zoom", "factor", factor, "scale", s.vp.Scale)
	s.Draw()
}

// RecenterTo centers the view on (lat, lon) and redraws.
func (s *Session) RecenterTo(lat, lon float64) {
	if s.state != active {
		return
	}
	s.vp.RecenterTo(s.proj.ToXY(lat, lon))
	s.Draw()
}

// Locate maps a display position back to geographic coordinates, undoing
// the heading rotation, the view and the projection.
func (s *Session) Locate(x, y float64) (geo.Point, bool) {
	if s.state != active {
		return geo.Point{}, false
	}
	w, h := s.surface.DisplaySize()
	p := common.Vec2{X: x, Y: y}
	if s.rotating() {
		c := common.Vec2{X: w / 2, Y: h / 2}
		p = p.Sub(c).Rotate(common.DegToRad(s.current.heading)).Add(c)
	}
	return s.proj.ToLatLon(s.vp.ScreenToWorld(p, w, h)), true
}

// Active reports whether the session can still be used.
func (s *Session) Active() bool {
	return s.state == active
}

// Options returns the effective options.
func (s *Session) Options() Options {
	return s.opts
}

// Circuit returns the circuit being drawn.
func (s *Session) Circuit() track.Circuit {
	return s.circuit
}

// Projector returns the projection of the current circuit.
func (s *Session) Projector() *track.Projector {
	return s.proj
}

// Viewport returns a copy of the view state.
func (s *Session) Viewport() view.Viewport {
	if s.vp == nil {
		return view.Viewport{}
	}
	return *s.vp
}

// Trail returns the buffered trail, oldest first.
func (s *Session) Trail() []common.Vec2 {
	if s.trail == nil {
		return nil
	}
	return s.trail.Points()
}

// Current returns the current sample with its resolved heading.
func (s *Session) Current() (geo.Sample, bool) {
	if s.current == nil {
		return geo.Sample{}, false
	}
	return geo.Sample{
		Lat:     s.current.pos.Lat,
		Lon:     s.current.pos.Lon,
		Heading: geo.Heading(s.current.heading),
	}, true
}
