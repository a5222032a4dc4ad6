package source

import (
	"context"
	"log/slog"
	"math"
	"time"

	"circuit-tracker/internal/geo"
)

// Vehicle dynamics, in SI units.
const (
	MaxSpeed     = 25.0 // m/s
	Acceleration = 3.0  // m/s^2
	Braking      = 6.0  // m/s^2
	Friction     = 0.5  // m/s^2 rolling resistance
	TurnRate     = 60.0 // degrees per second at full lock

	// ArriveRadius is how close the vehicle must get to a waypoint
	// before it steers toward the next one.
	ArriveRadius = 20.0 // meters

	// sharpTurn is the heading error above which the vehicle brakes.
	sharpTurn = 60.0
)

// Vehicle is a point-mass car that steers itself around a list of
// waypoints.
type Vehicle struct {
	Position geo.Point
	Heading  float64 // degrees true
	Speed    float64 // m/s

	Target int // index of the waypoint being driven to
	Laps   int
}

// SimOptions configure the simulator.
type SimOptions struct {
	Interval time.Duration
	// Accuracy is reported on every fix, in meters.
	Accuracy float64
	// Laps stops the run after that many laps; 0 drives forever.
	Laps int
}

// Simulator drives a Vehicle around a waypoint loop.
type Simulator struct {
	route []geo.Point
	car   *Vehicle
	opts  SimOptions
	now   func() time.Time
	log   *slog.Logger
}

// NewSimulator places the vehicle on the first waypoint facing the second.
func NewSimulator(route []geo.Point, opts SimOptions, log *slog.Logger) *Simulator {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Simulator{route: route, opts: opts, now: time.Now, log: log}
	if len(route) > 0 {
		s.car = &Vehicle{Position: route[0], Target: 1 % len(route)}
		if len(route) > 1 {
			s.car.Heading = geo.Bearing(route[0], route[1])
		}
	}
	return s
}

// Vehicle returns the simulated vehicle.
func (s *Simulator) Vehicle() *Vehicle {
	return s.car
}

// Step advances the simulation by dt seconds.
func (s *Simulator) Step(dt float64) {
	c := s.car
	if c == nil || len(s.route) < 2 || dt <= 0 {
		return
	}

	target := s.route[c.Target]
	if geo.Distance(c.Position, target) < ArriveRadius {
		c.Target++
		if c.Target == len(s.route) {
			c.Target = 0
		}
		if c.Target == 1 {
			c.Laps++
			s.log.Debug("simulated lap completed", "laps", c.Laps)
		}
		target = s.route[c.Target]
	}

	// 1. Controls: full lock proportional to heading error, brake for
	// sharp corners.
	errDeg := geo.NormalizeAngle(geo.Bearing(c.Position, target) - c.Heading)
	steering := math.Max(-1, math.Min(1, errDeg/(TurnRate*dt)))
	throttle, brake := 1.0, 0.0
	if math.Abs(errDeg) > sharpTurn {
		throttle, brake = 0, 1
	}

	// 2. Speed with drag.
	c.Speed += (throttle*Acceleration - brake*Braking - Friction) * dt
	c.Speed = math.Max(0, math.Min(c.Speed, MaxSpeed))

	// 3. Steering only while rolling.
	if c.Speed > 0.1 {
		c.Heading = math.Mod(c.Heading+steering*TurnRate*dt+360, 360)
	}

	// 4. Move.
	c.Position = geo.Destination(c.Position, c.Speed*dt, c.Heading)
}

// Fix reports the vehicle state.
func (s *Simulator) Fix() geo.Fix {
	c := s.car
	f := geo.Fix{
		Point:   c.Position,
		Time:    s.now(),
		Speed:   ptr(c.Speed),
		Heading: ptr(c.Heading),
	}
	if s.opts.Accuracy > 0 {
		f.Accuracy = ptr(s.opts.Accuracy)
	}
	return f
}

// Run emits one fix per interval, stepping the simulation by the same
// amount of time.
func (s *Simulator) Run(ctx context.Context, out chan<- geo.Fix) error {
	if s.car == nil {
		return ErrNoFixes
	}
	s.log.Info("simulator started", "waypoints", len(s.route), "interval", s.opts.Interval)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	if err := emit(ctx, out, s.Fix()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		s.Step(s.opts.Interval.Seconds())
		if err := emit(ctx, out, s.Fix()); err != nil {
			return err
		}
		if s.opts.Laps > 0 && s.car.Laps >= s.opts.Laps {
			s.log.Info("simulator finished", "laps", s.car.Laps)
			return nil
		}
	}
}
