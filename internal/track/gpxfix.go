package track

import (
	"strconv"
	"strings"

	"circuit-tracker/internal/geo"

	"github.com/tkrajina/gpxgo/gpx"
)

// Point extension elements for the fix fields GPX 1.1 has no element for.
const (
	ExtSpeed    = "speed"    // m/s
	ExtCourse   = "course"   // degrees true
	ExtAccuracy = "accuracy" // meters
)

// FixExtensions encodes the speed, course and accuracy of f as point
// extensions. Missing values are left out.
func FixExtensions(f geo.Fix) gpx.Extension {
	var ext gpx.Extension
	set := func(name string, v *float64) {
		if v != nil {
			ext.GetOrCreateNode(gpx.NoNamespace, name).Data = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	set(ExtSpeed, f.Speed)
	set(ExtCourse, f.Heading)
	set(ExtAccuracy, f.Accuracy)
	return ext
}

// ApplyExtensions fills the speed, course and accuracy of f from point
// extensions written by FixExtensions. Elements are matched by local name
// in any namespace; unparsable values are ignored.
func ApplyExtensions(f *geo.Fix, ext gpx.Extension) {
	get := func(name string) *float64 {
		n, ok := ext.GetNode(gpx.AnyNamespace, name)
		if !ok {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(n.Data), 64)
		if err != nil {
			return nil
		}
		return &v
	}
	if v := get(ExtSpeed); v != nil {
		f.Speed = v
	}
	if v := get(ExtCourse); v != nil {
		f.Heading = v
	}
	if v := get(ExtAccuracy); v != nil {
		f.Accuracy = v
	}
}
