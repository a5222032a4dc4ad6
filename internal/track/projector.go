package track

import (
	"math"

	"circuit-tracker/internal/common"
	"circuit-tracker/internal/geo"

	"github.com/paulmach/orb"
)

// Ref is the anchor of a projection. CosLat0 converts planar x units back
// to degrees of latitude-equivalent arc.
type Ref struct {
	MinLat  float64
	MinLon  float64
	CosLat0 float64
}

// Projector maps geographic coordinates onto a local plane anchored to a
// circuit. It is an equirectangular approximation: x is longitude scaled by
// the cosine of the circuit's mid latitude, y is latitude flipped so that it
// grows southwards like screen coordinates. Planar units are roughly
// degrees and are only meaningful for points near the circuit.
type Projector struct {
	minLat, maxLat float64
	minLon, maxLon float64
	cosLat0        float64
	bounds         orb.Bound
}

// NewProjector builds the projection for the given circuit points.
func NewProjector(points []geo.Point) (*Projector, error) {
	if err := (Circuit{Points: points}).Validate(); err != nil {
		return nil, err
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Orb()
	}
	ll := mp.Bound()

	p := &Projector{
		minLat: ll.Min.Lat(),
		maxLat: ll.Max.Lat(),
		minLon: ll.Min.Lon(),
		maxLon: ll.Max.Lon(),
	}
	lat0 := (p.minLat + p.maxLat) / 2
	p.cosLat0 = math.Cos(common.DegToRad(lat0))

	xy := make(orb.MultiPoint, len(points))
	for i, pt := range points {
		v := p.ToXY(pt.Lat, pt.Lon)
		xy[i] = orb.Point{v.X, v.Y}
	}
	p.bounds = xy.Bound()

	return p, nil
}

// ToXY projects (lat, lon) into planar coordinates.
func (p *Projector) ToXY(lat, lon float64) common.Vec2 {
	return common.Vec2{
		X: (lon - p.minLon) * p.cosLat0,
		Y: p.maxLat - lat,
	}
}

// ToLatLon is the inverse of ToXY.
func (p *Projector) ToLatLon(v common.Vec2) geo.Point {
	return geo.Point{
		Lat: p.maxLat - v.Y,
		Lon: v.X/p.cosLat0 + p.minLon,
	}
}

// Project is ToXY for a geo.Point.
func (p *Projector) Project(pt geo.Point) common.Vec2 {
	return p.ToXY(pt.Lat, pt.Lon)
}

// Bounds returns the planar bounding box of the circuit. Min holds
// (minX, minY) and Max holds (maxX, maxY).
func (p *Projector) Bounds() orb.Bound {
	return p.bounds
}

// Ref returns the projection anchor.
func (p *Projector) Ref() Ref {
	return Ref{MinLat: p.minLat, MinLon: p.minLon, CosLat0: p.cosLat0}
}
