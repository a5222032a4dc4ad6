// Command gen-track writes a synthetic oval circuit as GPX, plus an
// optional recorded lap driven by the simulator for replay tests.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"circuit-tracker/internal/geo"
	"circuit-tracker/internal/recorder"
	"circuit-tracker/internal/source"
	"circuit-tracker/internal/track"
)

func main() {
	lat := flag.Float64("lat", -23.7036, "center latitude")
	lon := flag.Float64("lon", -46.6997, "center longitude")
	radiusX := flag.Float64("rx", 300, "east-west semi-axis in meters")
	radiusY := flag.Float64("ry", 200, "north-south semi-axis in meters")
	n := flag.Int("n", 24, "number of waypoints")
	name := flag.String("name", "Oval", "circuit name")
	out := flag.String("out", "assets/circuit.gpx", "circuit output path")
	lap := flag.String("lap", "", "if set, also write one simulated lap as a GPX track here")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	circuit, err := track.Oval(*name, geo.Point{Lat: *lat, Lon: *lon}, *radiusX, *radiusY, *n)
	if err != nil {
		log.Error("failed to build circuit", "error", err)
		os.Exit(1)
	}

	if err := writeCircuit(*out, circuit); err != nil {
		log.Error("failed to write circuit", "error", err)
		os.Exit(1)
	}
	log.Info("circuit written", "path", *out, "waypoints", len(circuit.Points), "length_m", int(circuit.Length()))

	if *lap == "" {
		return
	}
	if err := writeLap(*lap, circuit, log); err != nil {
		log.Error("failed to write lap", "error", err)
		os.Exit(1)
	}
}

// writeCircuit writes circuit as a GPX route, creating parent directories.
func writeCircuit(path string, circuit track.Circuit) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := track.WriteGPX(f, circuit); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeLap drives the simulator once around the circuit in one second
// steps and records every step.
func writeLap(path string, circuit track.Circuit, log *slog.Logger) error {
	sim := source.NewSimulator(circuit.Points, source.SimOptions{Accuracy: 5}, log)
	rec := recorder.New(recorder.Options{TrackName: circuit.Name + " lap"})

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3600 && sim.Vehicle().Laps == 0; i++ {
		fix := sim.Fix()
		fix.Time = start.Add(time.Duration(i) * time.Second)
		rec.Add(fix)
		sim.Step(1)
	}

	if err := rec.Save(path); err != nil {
		return err
	}
	log.Info("lap written", "path", path, "fixes", rec.Len(), "duration", rec.Duration())
	return nil
}
