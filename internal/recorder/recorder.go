// Package recorder accumulates location fixes and exports them as a GPX
// 1.1 track.
package recorder

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/track"

	"github.com/tkrajina/gpxgo/gpx"
)

// Defaults.
const (
	DefaultMinInterval = time.Second
	DefaultTrackName   = "Rota"
	DefaultCreator     = "circuit-tracker"
)

// Options configure a Recorder.
type Options struct {
	// MinInterval drops fixes that arrive sooner than this after the
	// last recorded one.
	MinInterval time.Duration
	TrackName   string
	Creator     string
}

func (o Options) normalized() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.TrackName == "" {
		o.TrackName = DefaultTrackName
	}
	if o.Creator == "" {
		o.Creator = DefaultCreator
	}
	return o
}

// Recorder is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	opts  Options
	fixes []geo.Fix
	dist  float64
	now   func() time.Time
}

// New creates an empty recorder.
func New(opts Options) *Recorder {
	return &Recorder{opts: opts.normalized(), now: time.Now}
}

// Add records f unless it is invalid or closer than MinInterval to the
// previous fix. Fixes without a time are stamped on arrival.
func (r *Recorder) Add(f geo.Fix) bool {
	if !f.Valid() {
		return false
	}
	if f.Time.IsZero() {
		f.Time = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.fixes); n > 0 {
		last := r.fixes[n-1]
		if f.Time.Sub(last.Time) < r.opts.MinInterval {
			return false
		}
		r.dist += geo.Distance(last.Point, f.Point)
	}
	r.fixes = append(r.fixes, f)
	return true
}

// Len returns the number of recorded fixes.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fixes)
}

// Fixes returns a copy of the recorded fixes.
func (r *Recorder) Fixes() []geo.Fix {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]geo.Fix, len(r.fixes))
	copy(out, r.fixes)
	return out
}

// Distance returns the path length in meters.
func (r *Recorder) Distance() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dist
}

// Duration returns the time between the first and last fix.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fixes) < 2 {
		return 0
	}
	return r.fixes[len(r.fixes)-1].Time.Sub(r.fixes[0].Time)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = nil
	r.dist = 0
}

// GPX builds a document with one track and one segment. GPX 1.1 has no
// speed or course elements, so speed, course and accuracy are written as
// point extensions.
func (r *Recorder) GPX() *gpx.GPX {
	r.mu.Lock()
	defer r.mu.Unlock()

	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(r.fixes))}
	for _, f := range r.fixes {
		p := gpx.GPXPoint{
			Point:     gpx.Point{Latitude: f.Lat, Longitude: f.Lon},
			Timestamp:  f.Time.UTC(),
			Extensions: track.FixExtensions(f),
		}
		if f.Elevation != nil {
			p.Elevation = *gpx.NewNullableFloat64(*f.Elevation)
		}
		seg.Points = append(seg.Points, p)
	}

	return &gpx.GPX{
		Version: "1.1",
		Creator: r.opts.Creator,
		Tracks: []gpx.GPXTrack{{
			Name:     r.opts.TrackName,
			Segments: []gpx.GPXTrackSegment{seg},
		}},
	}
}

// WriteTo writes the GPX document.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	data, err := r.GPX().ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return 0, fmt.Errorf("failed to encode gpx: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Save writes the GPX document to path.
func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
