// Package config loads the YAML configuration of the tracker.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"circuit-tracker/internal/logging"
	"circuit-tracker/internal/recorder"
	"circuit-tracker/internal/scene"
	"circuit-tracker/internal/source"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceNone      = "none"
	SourceSimulator = "simulator"
	SourceReplay    = "replay"
)

// Config is the root of the configuration file.
type Config struct {
	Log      logging.Config `yaml:"log"`
	Window   WindowConfig   `yaml:"window"`
	Render   scene.Options  `yaml:"render"`
	Circuit  CircuitConfig  `yaml:"circuit"`
	Source   SourceConfig   `yaml:"source"`
	Recorder RecorderConfig `yaml:"recorder"`
	Maps     MapsConfig     `yaml:"maps"`
}

// WindowConfig sizes the desktop window.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	ShowHUD   bool   `yaml:"show_hud"`
}

// CircuitConfig points at the circuit file (.gpx, .geojson or .json).
type CircuitConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig selects where live positions come from.
type SourceConfig struct {
	Kind     string   `yaml:"kind"`
	GPXPath  string   `yaml:"gpx_path"`
	Interval Duration `yaml:"interval"`
	Speedup  float64  `yaml:"speedup"`
	Loop     bool     `yaml:"loop"`
	Accuracy float64  `yaml:"accuracy"`
	Laps     int      `yaml:"laps"`
}

// RecorderConfig controls GPX recording of the live positions.
type RecorderConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Output      string   `yaml:"output"`
	MinInterval Duration `yaml:"min_interval"`
	TrackName   string   `yaml:"track_name"`
}

// MapsConfig points at the map background catalogue.
type MapsConfig struct {
	Catalogue     string  `yaml:"catalogue"`
	LocalRadiusKm float64 `yaml:"local_radius_km"`
	// Pinned selects one catalogue map by id instead of following the
	// position.
	Pinned string `yaml:"pinned,omitempty"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Log: logging.DefaultConfig(),
		Window: WindowConfig{
			Title:     "Circuit Tracker",
			Width:     1200,
			Height:    800,
			Resizable: true,
			ShowHUD:   true,
		},
		Render:  scene.DefaultOptions("map"),
		Circuit: CircuitConfig{Path: filepath.Join("circuits", "circuit.gpx")},
		Source: SourceConfig{
			Kind:     SourceSimulator,
			Interval: Duration(time.Second),
			Speedup:  1,
			Loop:     true,
			Accuracy: 5,
		},
		Recorder: RecorderConfig{
			Enabled:     false,
			Output:      filepath.Join("tracks", "track.gpx"),
			MinInterval: Duration(recorder.DefaultMinInterval),
			TrackName:   recorder.DefaultTrackName,
		},
		Maps: MapsConfig{
			Catalogue:     "mapas.json",
			LocalRadiusKm: 20,
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file is created with the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.CanvasID == "" {
		return errors.New("render.canvas_id must not be empty")
	}
	switch c.Source.Kind {
	case SourceNone, SourceSimulator:
	case SourceReplay:
		if c.Source.GPXPath == "" {
			return errors.New("source.gpx_path is required for replay")
		}
	default:
		return fmt.Errorf("unknown source kind %q (options: none, simulator, replay)", c.Source.Kind)
	}
	return nil
}

// Save writes the configuration to path, creating its directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Circuit Tracker configuration
# Durations: ns, us, ms, s, m, h
# source.kind: none, simulator, replay

`)
	data = append(header, data...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ReplayOptions converts the source section for a GPX replay.
func (s SourceConfig) ReplayOptions() source.ReplayOptions {
	return source.ReplayOptions{
		Interval: time.Duration(s.Interval),
		Speedup:  s.Speedup,
		Loop:     s.Loop,
	}
}

// SimOptions converts the source section for the simulator.
func (s SourceConfig) SimOptions() source.SimOptions {
	return source.SimOptions{
		Interval: time.Duration(s.Interval),
		Accuracy: s.Accuracy,
		Laps:     s.Laps,
	}
}

// Options converts the recorder section.
func (r RecorderConfig) Options() recorder.Options {
	return recorder.Options{
		MinInterval: time.Duration(r.MinInterval),
		TrackName:   r.TrackName,
	}
}
