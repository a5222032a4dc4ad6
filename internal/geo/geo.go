// Package geo holds the geographic value types shared by the renderer and
// its location sources, plus a few great-circle helpers.
package geo

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point represents a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Orb converts the point to an orb.Point (lon, lat order).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Valid reports whether both coordinates are finite numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// FromOrb converts an orb.Point back to a Point.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lon: p.Lon()}
}

// Sample is the latest reported position of the tracked object.
// A nil Heading means the source did not report one.
type Sample struct {
	Lat     float64
	Lon     float64
	Heading *float64
}

// Point returns the sample position.
func (s Sample) Point() Point {
	return Point{Lat: s.Lat, Lon: s.Lon}
}

// Heading returns a pointer to deg, for building samples inline.
func Heading(deg float64) *float64 {
	return &deg
}

// Fix is a full location record as delivered by a location source.
type Fix struct {
	Point
	Time      time.Time
	Speed     *float64 // m/s
	Heading   *float64 // degrees true
	Accuracy  *float64 // meters
	Elevation *float64 // meters
}

// Sample narrows the fix to what the renderer consumes.
func (f Fix) Sample() Sample {
	return Sample{Lat: f.Lat, Lon: f.Lon, Heading: f.Heading}
}

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return orbgeo.DistanceHaversine(p1.Orb(), p2.Orb())
}

// Bearing calculates the initial bearing from p1 to p2 in degrees [0, 360).
func Bearing(p1, p2 Point) float64 {
	return math.Mod(orbgeo.Bearing(p1.Orb(), p2.Orb())+360.0, 360.0)
}

// Destination returns the point reached from start after distMeters along
// bearing (degrees).
func Destination(start Point, distMeters, bearing float64) Point {
	return FromOrb(orbgeo.PointAtBearingAndDistance(start.Orb(), bearing, distMeters))
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

var cardinals = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Cardinal names the 8-point compass direction closest to bearing.
func Cardinal(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	return cardinals[int(math.Round(b/45))%8]
}

// Bounds is a geographic rectangle.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether p lies inside the rectangle (edges included).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// BoundsAround returns the rectangle spanning radiusKm in every direction
// from (lat, lon), widening the longitude span with latitude.
func BoundsAround(lat, lon, radiusKm float64) Bounds {
	const R = 6371.0 // Earth radius in km
	dLat := (radiusKm / R) * (180 / math.Pi)
	dLon := dLat / math.Cos(lat*math.Pi/180)

	return Bounds{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}
