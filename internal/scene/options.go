package scene

import "circuit-tracker/internal/view"

// Options configure a session. Start from DefaultOptions: the zero value
// turns follow and rotation off.
type Options struct {
	CanvasID        string  `yaml:"canvas_id"`
	Follow          bool    `yaml:"follow"`
	RotateToHeading bool    `yaml:"rotate_to_heading"`
	PaddingPx       float64 `yaml:"padding_px"`
	LineWidth       float64 `yaml:"line_width"`
	TrailMax        int     `yaml:"trail_max"`
}

// Defaults.
const (
	DefaultPaddingPx = 40
	DefaultLineWidth = 3
)

// DefaultOptions returns the documented defaults for the given surface.
func DefaultOptions(canvasID string) Options {
	return Options{
		CanvasID:        canvasID,
		Follow:          true,
		RotateToHeading: true,
		PaddingPx:       DefaultPaddingPx,
		LineWidth:       DefaultLineWidth,
		TrailMax:        view.DefaultTrailMax,
	}
}

// normalized replaces values that cannot be drawn with their defaults.
func (o Options) normalized() Options {
	if o.PaddingPx < 0 {
		o.PaddingPx = DefaultPaddingPx
	}
	if o.LineWidth <= 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.TrailMax <= 0 {
		o.TrailMax = view.DefaultTrailMax
	}
	return o
}
