package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"circuit-tracker/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"
)

// ErrUnknownFormat is returned for files that are neither GPX nor JSON.
var ErrUnknownFormat = errors.New("unknown circuit file format")

// LoadCircuit reads a circuit from a .gpx, .geojson or .json file.
func LoadCircuit(path string) (Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Circuit{}, fmt.Errorf("failed to read circuit file: %w", err)
	}

	var c Circuit
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		c, err = ParseGPX(data)
	case ".geojson", ".json":
		c, err = ParseJSON(data)
	default:
		return Circuit{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return Circuit{}, fmt.Errorf("%s: %w", path, err)
	}

	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, c.Validate()
}

// ParseGPX takes the first track with points; failing that the first
// route, failing that all waypoints in document order.
func ParseGPX(data []byte) (Circuit, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return Circuit{}, fmt.Errorf("failed to parse gpx: %w", err)
	}

	for _, trk := range doc.Tracks {
		var pts []geo.Point
		for _, seg := range trk.Segments {
			pts = appendGPXPoints(pts, seg.Points)
		}
		if len(pts) > 0 {
			return Circuit{Name: firstNonEmpty(trk.Name, doc.Name), Points: pts}, nil
		}
	}
	for _, rte := range doc.Routes {
		if len(rte.Points) > 0 {
			return Circuit{Name: firstNonEmpty(rte.Name, doc.Name), Points: appendGPXPoints(nil, rte.Points)}, nil
		}
	}
	if len(doc.Waypoints) > 0 {
		return Circuit{Name: doc.Name, Points: appendGPXPoints(nil, doc.Waypoints)}, nil
	}
	return Circuit{}, ErrEmptyCircuit
}

func appendGPXPoints(dst []geo.Point, src []gpx.GPXPoint) []geo.Point {
	for _, p := range src {
		dst = append(dst, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
	}
	return dst
}

// waypointFile is the plain list format used by the web client:
// {"nome": "...", "pontos": [{"lat": .., "lon": ..}, ...]}.
type waypointFile struct {
	Name   string `json:"nome"`
	Points []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"pontos"`
}

// ParseJSON accepts the plain waypoint list format or GeoJSON (a
// FeatureCollection, a single Feature or a bare geometry).
func ParseJSON(data []byte) (Circuit, error) {
	var wf waypointFile
	if err := json.Unmarshal(data, &wf); err == nil && len(wf.Points) > 0 {
		c := Circuit{Name: wf.Name, Points: make([]geo.Point, len(wf.Points))}
		for i, p := range wf.Points {
			c.Points[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
		}
		return c, nil
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		c := Circuit{}
		for _, f := range fc.Features {
			if c.Name == "" {
				c.Name = f.Properties.MustString("name", "")
			}
			c.Points = appendGeometry(c.Points, f.Geometry)
		}
		if len(c.Points) > 0 {
			return c, nil
		}
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		c := Circuit{Name: f.Properties.MustString("name", ""), Points: appendGeometry(nil, f.Geometry)}
		if len(c.Points) > 0 {
			return c, nil
		}
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return Circuit{}, fmt.Errorf("failed to parse geojson: %w", err)
	}
	pts := appendGeometry(nil, g.Geometry())
	if len(pts) == 0 {
		return Circuit{}, ErrEmptyCircuit
	}
	return Circuit{Points: pts}, nil
}

// appendGeometry flattens line-like geometries to their vertices. Polygons
// contribute their outer ring.
func appendGeometry(dst []geo.Point, g orb.Geometry) []geo.Point {
	switch g := g.(type) {
	case orb.Point:
		dst = append(dst, geo.FromOrb(g))
	case orb.MultiPoint:
		for _, p := range g {
			dst = append(dst, geo.FromOrb(p))
		}
	case orb.LineString:
		for _, p := range g {
			dst = append(dst, geo.FromOrb(p))
		}
	case orb.MultiLineString:
		for _, ls := range g {
			dst = appendGeometry(dst, ls)
		}
	case orb.Ring:
		for _, p := range g {
			dst = append(dst, geo.FromOrb(p))
		}
	case orb.Polygon:
		if len(g) > 0 {
			dst = appendGeometry(dst, g[0])
		}
	}
	return dst
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
