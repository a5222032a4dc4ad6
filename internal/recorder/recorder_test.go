package recorder

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/source"
	"circuit-tracker/internal/track"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrajina/gpxgo/gpx"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func fixAt(lat, lon float64, offset time.Duration) geo.Fix {
	return geo.Fix{Point: geo.Point{Lat: lat, Lon: lon}, Time: t0.Add(offset)}
}

func ptr(v float64) *float64 { return &v }

func TestRecorder_MinInterval(t *testing.T) {
	r := New(Options{})

	assert.True(t, r.Add(fixAt(10, 10, 0)))
	assert.False(t, r.Add(fixAt(10, 10.001, 500*time.Millisecond)))
	assert.True(t, r.Add(fixAt(10, 10.001, time.Second)))
	assert.False(t, r.Add(fixAt(10, 10.002, 1500*time.Millisecond)))
	assert.True(t, r.Add(fixAt(10, 10.002, 3*time.Second)))
	assert.False(t, r.Add(geo.Fix{Point: geo.Point{Lat: math.NaN(), Lon: 1}, Time: t0.Add(time.Hour)}))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3*time.Second, r.Duration())

	want := geo.Distance(geo.Point{Lat: 10, Lon: 10}, geo.Point{Lat: 10, Lon: 10.002})
	assert.InDelta(t, want, r.Distance(), 0.01)

	r.Reset()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Distance())
}

func TestRecorder_StampsMissingTime(t *testing.T) {
	r := New(Options{MinInterval: time.Minute})
	r.now = func() time.Time { return t0 }

	require.True(t, r.Add(geo.Fix{Point: geo.Point{Lat: 1, Lon: 2}}))
	assert.Equal(t, t0, r.Fixes()[0].Time)
}

func TestRecorder_GPX(t *testing.T) {
	r := New(Options{})
	f := fixAt(10, 10, 0)
	f.Speed = ptr(3.5)
	f.Heading = geo.Heading(270)
	f.Accuracy = ptr(4)
	f.Elevation = ptr(120)
	require.True(t, r.Add(f))
	require.True(t, r.Add(fixAt(10.001, 10, 2*time.Second)))

	var buf bytes.Buffer
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `version="1.1"`)

	doc, err := gpx.ParseBytes(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, doc.Tracks, 1)
	assert.Equal(t, DefaultTrackName, doc.Tracks[0].Name)
	assert.Equal(t, DefaultCreator, doc.Creator)
	require.Len(t, doc.Tracks[0].Segments, 1)

	pts := doc.Tracks[0].Segments[0].Points
	require.Len(t, pts, 2)
	assert.Equal(t, 10.0, pts[0].Latitude)
	assert.Equal(t, 10.0, pts[0].Longitude)
	assert.True(t, pts[0].Timestamp.Equal(t0))
	assert.True(t, pts[1].Timestamp.Equal(t0.Add(2*time.Second)))
	require.True(t, pts[0].Elevation.NotNull())
	assert.Equal(t, 120.0, pts[0].Elevation.Value())
	assert.False(t, pts[1].Elevation.NotNull())
	assert.Contains(t, buf.String(), "<extensions>")
	speed, ok := pts[0].Extensions.GetNode(gpx.AnyNamespace, track.ExtSpeed)
	require.True(t, ok)
	assert.Equal(t, "3.5", strings.TrimSpace(speed.Data))
	assert.Empty(t, pts[1].Extensions.Nodes)
}

func TestRecorder_ReplayKeepsSpeedCourseAccuracy(t *testing.T) {
	r := New(Options{})
	a := fixAt(10, 10, 0)
	a.Speed, a.Heading, a.Accuracy = ptr(3.5), geo.Heading(270), ptr(4)
	b := fixAt(10.001, 10, 2*time.Second)
	b.Speed, b.Heading = ptr(7), geo.Heading(15)
	require.True(t, r.Add(a))
	require.True(t, r.Add(b))

	var buf bytes.Buffer
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	doc, err := gpx.ParseBytes(buf.Bytes())
	require.NoError(t, err)

	fixes := source.FixesFromGPX(doc)
	require.Len(t, fixes, 2)
	for i, want := range []geo.Fix{a, b} {
		require.NotNil(t, fixes[i].Speed, "fix %d", i)
		require.NotNil(t, fixes[i].Heading, "fix %d", i)
		assert.Equal(t, *want.Speed, *fixes[i].Speed, "fix %d", i)
		assert.Equal(t, *want.Heading, *fixes[i].Heading, "recorded course wins over bearing, fix %d", i)
	}
	require.NotNil(t, fixes[0].Accuracy)
	assert.Equal(t, 4.0, *fixes[0].Accuracy)
	assert.Nil(t, fixes[1].Accuracy)
}

func TestRecorder_Save(t *testing.T) {
	r := New(Options{TrackName: "Treino", Creator: "test"})
	require.True(t, r.Add(fixAt(1, 2, 0)))

	path := filepath.Join(t.TempDir(), "out.gpx")
	require.NoError(t, r.Save(path))

	doc, err := gpx.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Treino", doc.Tracks[0].Name)
	assert.Equal(t, "test", doc.Creator)

	assert.Error(t, r.Save(filepath.Join(t.TempDir(), "missing", "out.gpx")))
}
