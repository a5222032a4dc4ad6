// Command snapshot renders a circuit, optionally with a replayed GPX
// track on top, to a PNG file without opening a window.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"circuit-tracker/internal/canvas/ggcanvas"
	"circuit-tracker/internal/logging"
	"circuit-tracker/internal/scene"
	"circuit-tracker/internal/source"
	"circuit-tracker/internal/track"

	"github.com/gogpu/gg"
)

type options struct {
	circuit, track, out string
	width, height       int
	ratio, zoom         float64
	follow, rotate      bool
}

func main() {
	var o options
	flag.StringVar(&o.circuit, "circuit", "", "circuit file (.gpx, .geojson, .json)")
	flag.StringVar(&o.track, "track", "", "optional GPX track to replay onto the map")
	flag.StringVar(&o.out, "out", "snapshot.png", "output PNG path")
	flag.IntVar(&o.width, "width", 800, "displayed width")
	flag.IntVar(&o.height, "height", 600, "displayed height")
	flag.Float64Var(&o.ratio, "ratio", 1, "device pixel ratio")
	flag.BoolVar(&o.follow, "follow", false, "center the view on the last position")
	flag.BoolVar(&o.rotate, "rotate", false, "rotate the map to the last heading")
	flag.Float64Var(&o.zoom, "zoom", 1, "zoom factor applied after fitting")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(*level)}))
	gg.SetLogger(log)

	if err := run(o, log); err != nil {
		log.Error("snapshot failed", "error", err)
		os.Exit(1)
	}
}

func run(o options, log *slog.Logger) error {
	if o.circuit == "" {
		return fmt.Errorf("-circuit is required")
	}
	circuit, err := track.LoadCircuit(o.circuit)
	if err != nil {
		return err
	}

	surf, err := ggcanvas.NewSurface(o.width, o.height, o.ratio)
	if err != nil {
		return err
	}
	defer surf.Backend().Close()

	opts := scene.DefaultOptions("snapshot")
	opts.Follow = o.follow
	opts.RotateToHeading = o.rotate
	session, err := scene.NewSession(scene.Surfaces{opts.CanvasID: surf}, circuit, opts, scene.WithLogger(log))
	if err != nil {
		return err
	}
	defer session.Destroy()

	if o.track != "" {
		replay, err := source.LoadReplay(o.track, source.ReplayOptions{}, log)
		if err != nil {
			return err
		}
		for _, fix := range replay.Fixes() {
			if err := session.UpdateLive(fix.Sample()); err != nil {
				log.Warn("skipping fix", "error", err)
			}
		}
		log.Info("track replayed", "fixes", len(replay.Fixes()))
	}
	if o.zoom != 1 {
		session.Zoom(o.zoom)
	}

	f, err := os.Create(o.out)
	if err != nil {
		return err
	}
	if err := surf.Backend().EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info("snapshot written", "path", o.out, "circuit", circuit.Name, "scale", session.Viewport().Scale)
	return nil
}
