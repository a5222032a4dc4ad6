package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/track"

	"github.com/tkrajina/gpxgo/gpx"
)

// ReplayOptions control the pacing of a replay.
type ReplayOptions struct {
	// Interval separates fixes that carry no usable timestamps.
	Interval time.Duration
	// Speedup divides recorded time gaps; 1 is real time.
	Speedup float64
	// Loop restarts from the first fix after the last one.
	Loop bool
}

func (o ReplayOptions) normalized() ReplayOptions {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Speedup <= 0 {
		o.Speedup = 1
	}
	return o
}

// Replay plays back a recorded track.
type Replay struct {
	fixes []geo.Fix
	opts  ReplayOptions
	log   *slog.Logger
}

// NewReplay replays fixes in order.
func NewReplay(fixes []geo.Fix, opts ReplayOptions, log *slog.Logger) *Replay {
	if log == nil {
		log = slog.Default()
	}
	return &Replay{fixes: fixes, opts: opts.normalized(), log: log}
}

// LoadReplay reads every track point of a GPX file.
func LoadReplay(path string, opts ReplayOptions, log *slog.Logger) (*Replay, error) {
	doc, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gpx %s: %w", path, err)
	}
	return NewReplay(FixesFromGPX(doc), opts, log), nil
}

// FixesFromGPX flattens all track segments into fixes. Speed, course and
// accuracy come from point extensions when present. Otherwise heading is
// the bearing to the next point (the last point keeps the previous one)
// and speed is derived from consecutive timestamps.
func FixesFromGPX(doc *gpx.GPX) []geo.Fix {
	var pts []gpx.GPXPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			pts = append(pts, seg.Points...)
		}
	}

	fixes := make([]geo.Fix, len(pts))
	for i, p := range pts {
		f := geo.Fix{
			Point: geo.Point{Lat: p.Latitude, Lon: p.Longitude},
			Time:  p.Timestamp,
		}
		if p.Elevation.NotNull() {
			f.Elevation = ptr(p.Elevation.Value())
		}
		track.ApplyExtensions(&f, p.Extensions)
		fixes[i] = f
	}

	for i := range fixes {
		switch {
		case fixes[i].Heading != nil:
		case i+1 < len(fixes):
			fixes[i].Heading = ptr(geo.Bearing(fixes[i].Point, fixes[i+1].Point))
		case i > 0:
			fixes[i].Heading = fixes[i-1].Heading
		}
		if i > 0 && fixes[i].Speed == nil {
			prev := fixes[i-1]
			dt := fixes[i].Time.Sub(prev.Time).Seconds()
			if !prev.Time.IsZero() && !fixes[i].Time.IsZero() && dt > 0 {
				fixes[i].Speed = ptr(geo.Distance(prev.Point, fixes[i].Point) / dt)
			}
		}
	}
	return fixes
}

// Fixes returns the fixes in replay order.
func (r *Replay) Fixes() []geo.Fix {
	return r.fixes
}

// Run emits the fixes paced by their recorded time gaps divided by the
// speedup. On every loop timestamps are shifted past the previous lap so
// they keep increasing.
func (r *Replay) Run(ctx context.Context, out chan<- geo.Fix) error {
	if len(r.fixes) == 0 {
		return ErrNoFixes
	}
	r.log.Info("replay started", "fixes", len(r.fixes), "speedup", r.opts.Speedup, "loop", r.opts.Loop)

	var offset time.Duration
	lapSpan := r.fixes[len(r.fixes)-1].Time.Sub(r.fixes[0].Time) + r.opts.Interval
	for lap := 0; ; lap++ {
		for i, f := range r.fixes {
			if lap > 0 || i > 0 {
				if err := sleep(ctx, r.delay(i)); err != nil {
					return err
				}
			}
			if !f.Time.IsZero() {
				f.Time = f.Time.Add(offset)
			} else {
				f.Time = time.Now()
			}
			if err := emit(ctx, out, f); err != nil {
				return err
			}
		}
		if !r.opts.Loop {
			r.log.Info("replay finished", "fixes", len(r.fixes))
			return nil
		}
		offset += lapSpan
		r.log.Debug("replay looping", "lap", lap+1)
	}
}

// delay is the wait before emitting fix i.
func (r *Replay) delay(i int) time.Duration {
	if i == 0 {
		return r.opts.Interval
	}
	prev, cur := r.fixes[i-1].Time, r.fixes[i].Time
	if prev.IsZero() || cur.IsZero() || !cur.After(prev) {
		return r.opts.Interval
	}
	return time.Duration(float64(cur.Sub(prev)) / r.opts.Speedup)
}

func ptr(v float64) *float64 {
	return &v
}
