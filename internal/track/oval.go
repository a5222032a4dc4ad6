package track

import (
	"fmt"
	"io"
	"math"

	"circuit-tracker/internal/geo"

	"github.com/tkrajina/gpxgo/gpx"
)

// Oval returns an elliptical circuit of n waypoints around center, with
// semi-axes radiusX (east-west) and radiusY (north-south) in meters. The
// first waypoint is due south of center and the circuit runs
// counter-clockwise on the map.
func Oval(name string, center geo.Point, radiusX, radiusY float64, n int) (Circuit, error) {
	if n < 3 {
		return Circuit{}, fmt.Errorf("oval needs at least 3 waypoints, got %d", n)
	}
	if radiusX <= 0 || radiusY <= 0 {
		return Circuit{}, fmt.Errorf("invalid oval radii %gx%g", radiusX, radiusY)
	}

	pts := make([]geo.Point, n)
	for i := range pts {
		// Ellipse equation: (x/a)^2 + (y/b)^2 = 1
		theta := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		east := radiusX * math.Cos(theta)
		north := radiusY * math.Sin(theta)
		bearing := math.Atan2(east, north) * 180 / math.Pi
		pts[i] = geo.Destination(center, math.Hypot(east, north), bearing)
	}
	return Circuit{Name: name, Points: pts}, nil
}

// WriteGPX writes the circuit as a GPX 1.1 route, readable by ParseGPX.
func WriteGPX(w io.Writer, c Circuit) error {
	rte := gpx.GPXRoute{Name: c.Name}
	for _, p := range c.Points {
		rte.Points = append(rte.Points, gpx.GPXPoint{Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lon}})
	}
	doc := &gpx.GPX{
		Version: "1.1",
		Creator: "circuit-tracker",
		Name:    c.Name,
		Routes:  []gpx.GPXRoute{rte},
	}
	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("failed to encode gpx: %w", err)
	}
	_, err = w.Write(data)
	return err
}
