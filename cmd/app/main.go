// Command app is the live circuit viewer: it draws the configured circuit
// in a window and moves a marker along the positions of a location source.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"circuit-tracker/internal/config"
	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/logging"
	"circuit-tracker/internal/maplist"
	"circuit-tracker/internal/recorder"
	"circuit-tracker/internal/scene"
	"circuit-tracker/internal/source"
	"circuit-tracker/internal/track"
	"circuit-tracker/internal/window"

	"github.com/hajimehoshi/ebiten/v2"
)

// Zoom step for the keyboard shortcuts, matching a click.
const keyZoom = 1.2

func main() {
	configPath := flag.String("config", "configs/tracker.yaml", "path to the configuration file")
	circuitPath := flag.String("circuit", "", "circuit file, overrides circuit.path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *circuitPath != "" {
		cfg.Circuit.Path = *circuitPath
	}

	log, cleanup, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := run(cfg, log); err != nil {
		log.Error("tracker stopped", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	circuit, err := track.LoadCircuit(cfg.Circuit.Path)
	if err != nil {
		return err
	}
	log.Info("circuit loaded", "name", circuit.Name, "points", len(circuit.Points), "length_m", int(circuit.Length()))

	win, err := window.New(window.Config{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		CanvasID:  cfg.Render.CanvasID,
		Resizable: cfg.Window.Resizable,
		ShowHUD:   cfg.Window.ShowHUD,
	}, log)
	if err != nil {
		return err
	}

	session, err := scene.NewSession(win, circuit, cfg.Render, scene.WithLogger(log))
	if err != nil {
		return err
	}
	defer session.Destroy()

	maps := loadMaps(cfg.Maps.Catalogue, log)
	tracker := &tracker{
		session: session,
		win:     win,
		circuit: circuit,
		maps:    maps,
		radius:  cfg.Maps.LocalRadiusKm,
		log:     log,
	}
	if id := cfg.Maps.Pinned; id != "" {
		if m, err := maps.ByID(id); err != nil {
			log.Warn("pinned map not in catalogue", "id", id, "error", err)
		} else {
			tracker.bgMap, tracker.pinned = m, true
			log.Info("map background pinned", "id", m.ID, "name", m.Name)
		}
	}
	if cfg.Recorder.Enabled {
		tracker.rec = recorder.New(cfg.Recorder.Options())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if src, err := newSource(cfg.Source, circuit, log); err != nil {
		return err
	} else if src != nil {
		fixes := source.Start(ctx, src, 16, func(err error) {
			if err != nil {
				log.Error("location source failed", "error", err)
			}
		})
		win.Feed(fixes, tracker.handle)
	}

	win.Bind(ebiten.KeyF, func() error {
		session.SetFollow(!session.Follow())
		log.Info("follow toggled", "follow", session.Follow())
		return nil
	})
	win.Bind(ebiten.KeyEqual, func() error { session.Zoom(keyZoom); return nil })
	win.Bind(ebiten.KeyMinus, func() error { session.Zoom(1 / keyZoom); return nil })
	win.Bind(ebiten.KeyR, func() error {
		return session.Reset(circuit, session.Options())
	})
	win.Bind(ebiten.KeyEscape, func() error { return ebiten.Termination })
	win.SetHUD(tracker.hud)

	err = win.Run()
	cancel()

	if tracker.rec != nil && tracker.rec.Len() > 0 {
		if serr := tracker.rec.Save(cfg.Recorder.Output); serr != nil {
			log.Error("failed to save track", "error", serr)
		} else {
			log.Info("track saved", "path", cfg.Recorder.Output, "fixes", tracker.rec.Len(), "distance_m", int(tracker.rec.Distance()))
		}
	}
	return err
}

func newSource(cfg config.SourceConfig, circuit track.Circuit, log *slog.Logger) (source.Source, error) {
	switch cfg.Kind {
	case config.SourceSimulator:
		return source.NewSimulator(circuit.Points, cfg.SimOptions(), log), nil
	case config.SourceReplay:
		return source.LoadReplay(cfg.GPXPath, cfg.ReplayOptions(), log)
	}
	return nil, nil
}

func loadMaps(path string, log *slog.Logger) maplist.List {
	if path == "" {
		return nil
	}
	maps, err := maplist.LoadFile(path)
	if err != nil {
		log.Warn("map catalogue not loaded", "path", path, "error", err)
		return nil
	}
	log.Info("map catalogue loaded", "maps", len(maps))
	return maps
}

// tracker applies fixes on the UI goroutine and keeps what the HUD shows.
type tracker struct {
	session *scene.Session
	win     *window.Window
	circuit track.Circuit
	rec     *recorder.Recorder
	maps    maplist.List
	radius  float64
	log     *slog.Logger

	last    geo.Fix
	hasLast bool
	bgMap   maplist.Map
	pinned  bool
	count   int
}

func (t *tracker) handle(fix geo.Fix) {
	if err := t.session.UpdateLive(fix.Sample()); err != nil {
		t.log.Warn("fix rejected", "error", err)
		return
	}
	if t.rec != nil {
		t.rec.Add(fix)
	}
	if !t.pinned && (!t.hasLast || !t.bgMap.Bounds().Contains(fix.Point)) {
		t.bgMap = t.maps.Resolve(fix.Point, t.radius)
		t.log.Debug("map background", "id", t.bgMap.ID, "name", t.bgMap.Name)
	}
	t.last, t.hasLast = fix, true
	t.count++
}

func (t *tracker) hud() string {
	msg := "CIRCUIT TRACKER\n"
	msg += "---------------\n"
	msg += fmt.Sprintf("Circuit: %s\n", t.circuit.Name)
	if t.hasLast {
		msg += fmt.Sprintf("Pos:     %.5f, %.5f\n", t.last.Lat, t.last.Lon)
		if t.last.Speed != nil {
			msg += fmt.Sprintf("Speed:   %.1f km/h\n", *t.last.Speed*3.6)
		}
		if t.last.Heading != nil {
			msg += fmt.Sprintf("Heading: %.0f %s\n", *t.last.Heading, geo.Cardinal(*t.last.Heading))
		}
		if len(t.circuit.Points) > 0 {
			msg += fmt.Sprintf("Start:   %.0f m\n", geo.Distance(t.last.Point, t.circuit.Points[0]))
		}
		msg += fmt.Sprintf("Map:     %s\n", t.bgMap.Name)
	}
	if x, y, ok := t.win.LastClick(); ok {
		if p, ok := t.session.Locate(x, y); ok {
			msg += fmt.Sprintf("Click:   %.5f, %.5f\n", p.Lat, p.Lon)
		}
	}
	msg += fmt.Sprintf("Fixes:   %d\n", t.count)
	if t.rec != nil {
		msg += fmt.Sprintf("Rec:     %d pts, %.0f m\n", t.rec.Len(), t.rec.Distance())
	}
	msg += fmt.Sprintf("Scale:   %.1f px/unit\n", t.session.Viewport().Scale)
	msg += "\nF follow  +/- zoom  R reset  Esc quit"
	return msg
}
