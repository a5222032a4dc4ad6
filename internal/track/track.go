package track

import (
	"errors"
	"fmt"

	"circuit-tracker/internal/geo"
)

var (
	// ErrEmptyCircuit is returned when a circuit has no points.
	ErrEmptyCircuit = errors.New("circuit has no points")
	// ErrInvalidPoint is returned when a circuit point is NaN or infinite.
	ErrInvalidPoint = errors.New("circuit point is not finite")
)

// Circuit is the fixed reference route drawn behind the live track.
// Points are ordered waypoints and must not be modified once the circuit
// has been handed to a renderer.
type Circuit struct {
	Name   string
	Points []geo.Point
}

// Validate checks the circuit preconditions: at least one point, all finite.
func (c Circuit) Validate() error {
	if len(c.Points) == 0 {
		return ErrEmptyCircuit
	}
	for i, p := range c.Points {
		if !p.Valid() {
			return fmt.Errorf("point %d: %w", i, ErrInvalidPoint)
		}
	}
	return nil
}

// Clone returns a deep copy, so callers can keep editing their slice.
func (c Circuit) Clone() Circuit {
	pts := make([]geo.Point, len(c.Points))
	copy(pts, c.Points)
	return Circuit{Name: c.Name, Points: pts}
}

// Length returns the polyline length in meters.
func (c Circuit) Length() float64 {
	total := 0.0
	for i := 1; i < len(c.Points); i++ {
		total += geo.Distance(c.Points[i-1], c.Points[i])
	}
	return total
}
