// Package maplist reads the catalogue of map backgrounds: named images
// with the geographic rectangle they cover.
package maplist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"circuit-tracker/internal/geo"
)

// ErrNotFound is returned when no map matches.
var ErrNotFound = errors.New("map not found")

// Local map identity, used when no catalogued map covers the position.
const (
	LocalID   = "mapaLocal"
	LocalName = "Mapa Local"
	LocalFile = "semmapa.png"
)

// Map is one background image and its coverage.
type Map struct {
	ID     string  `json:"id"`
	Name   string  `json:"nome"`
	File   string  `json:"arquivo"`
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Bounds returns the covered rectangle.
func (m Map) Bounds() geo.Bounds {
	return geo.Bounds{MinLat: m.MinLat, MaxLat: m.MaxLat, MinLon: m.MinLon, MaxLon: m.MaxLon}
}

func (m Map) validate() error {
	if m.ID == "" {
		return errors.New("missing id")
	}
	if m.MinLat > m.MaxLat || m.MinLon > m.MaxLon {
		return fmt.Errorf("map %q: inverted bounds", m.ID)
	}
	return nil
}

// List is an ordered catalogue.
type List []Map

// Load decodes a JSON array of maps.
func Load(r io.Reader) (List, error) {
	var l List
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode map list: %w", err)
	}
	seen := make(map[string]bool, len(l))
	for i, m := range l {
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("map %d: %w", i, err)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate map id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return l, nil
}

// LoadFile reads the catalogue at path.
func LoadFile(path string) (List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// ByID returns the map with the given id.
func (l List) ByID(id string) (Map, error) {
	for _, m := range l {
		if m.ID == id {
			return m, nil
		}
	}
	return Map{}, fmt.Errorf("%q: %w", id, ErrNotFound)
}

// Covering returns the first map whose rectangle contains p.
func (l List) Covering(p geo.Point) (Map, error) {
	for _, m := range l {
		if m.Bounds().Contains(p) {
			return m, nil
		}
	}
	return Map{}, fmt.Errorf("no map covers %.5f,%.5f: %w", p.Lat, p.Lon, ErrNotFound)
}

// Local builds a generic map spanning radiusKm around (lat, lon).
func Local(lat, lon, radiusKm float64) Map {
	b := geo.BoundsAround(lat, lon, radiusKm)
	return Map{
		ID:     LocalID,
		Name:   LocalName,
		File:   LocalFile,
		MinLat: b.MinLat,
		MaxLat: b.MaxLat,
		MinLon: b.MinLon,
		MaxLon: b.MaxLon,
	}
}

// Resolve returns the catalogued map covering p, or a local map of
// radiusKm around it.
func (l List) Resolve(p geo.Point, radiusKm float64) Map {
	if m, err := l.Covering(p); err == nil {
		return m
	}
	return Local(p.Lat, p.Lon, radiusKm)
}
