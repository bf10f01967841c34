// nav/controller.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/wx"
)

var ErrInvalidVehicleConfig = errors.New("Invalid vehicle configuration")

// Control law gains.
const (
	PositionGain = 2.0 // 1/s; position error to desired velocity
	VelocityGain = 5.0 // 1/s; velocity error to commanded acceleration

	// WindForcing scales the direct wind force, which is applied in
	// addition to aerodynamic drag.
	WindForcing = 0.1
)

// DefaultDt is the controller's nominal timestep.
const DefaultDt = 1. / 60

type FlightState int

const (
	Seeking FlightState = iota
	Arrived
)

func (s FlightState) String() string {
	switch s {
	case Seeking:
		return "seeking"
	case Arrived:
		return "arrived"
	default:
		return fmt.Sprintf("FlightState(%d)", int(s))
	}
}

func (s FlightState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// VehicleConfig holds a vehicle's performance limits and the constants of
// its drag model.
type VehicleConfig struct {
	MaxSpeed          float64 `yaml:"max_speed"`          // m/s
	MaxAccel          float64 `yaml:"max_accel"`          // m/s^2
	PositionTolerance float64 `yaml:"position_tolerance"` // m
	Mass              float64 `yaml:"mass"`               // kg
	DragCoefficient   float64 `yaml:"drag_coefficient"`
	CrossSectionArea  float64 `yaml:"cross_section_area"` // m^2
	AirDensity        float64 `yaml:"air_density"`        // kg/m^3
}

func DefaultVehicleConfig() VehicleConfig {
	return VehicleConfig{
		MaxSpeed:          5,
		MaxAccel:          2,
		PositionTolerance: 0.5,
		Mass:              1.5,
		DragCoefficient:   0.3,
		CrossSectionArea:  0.1,
		AirDensity:        1.225,
	}
}

func (c VehicleConfig) Validate() error {
	for _, f := range []struct {
		name     string
		v        float64
		positive bool
	}{
		{"max speed", c.MaxSpeed, true},
		{"max accel", c.MaxAccel, true},
		{"position tolerance", c.PositionTolerance, true},
		{"mass", c.Mass, true},
		{"drag coefficient", c.DragCoefficient, false},
		{"cross section area", c.CrossSectionArea, false},
		{"air density", c.AirDensity, false},
	} {
		if !math.IsFinite(f.v) || f.v < 0 || (f.positive && f.v == 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidVehicleConfig, f.name, f.v)
		}
	}
	return nil
}

// ControlResult reports the outcome of one controller step.
type ControlResult struct {
	State    FlightState
	Position math.Vec3
	Velocity math.Vec3
	Distance float64 // to the target, before integration

	Wind         math.Vec3 // sampled at the pre-step position
	WindForce    math.Vec3 // drag plus direct forcing, N
	ControlAccel math.Vec3 // commanded by the control law, before limiting
	Accel        math.Vec3 // applied
}

func (r ControlResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("state", r.State.String()),
		slog.Any("position", r.Position),
		slog.Any("velocity", r.Velocity),
		slog.Float64("distance", r.Distance),
		slog.Any("wind", r.Wind),
		slog.Any("wind_force", r.WindForce),
		slog.Any("accel", r.Accel),
	)
}

// ControllerSnapshot holds the controller state that Teleport, SetTarget,
// and Step modify.
type ControllerSnapshot struct {
	Position math.Vec3
	Velocity math.Vec3
	Target   math.Vec3
	State    FlightState
	Time     float64
}

// DroneController flies a point-mass multirotor toward a target position
// through the wind. Position and velocity change only in Step and
// Teleport.
type DroneController struct {
	Name   string
	Config VehicleConfig

	position math.Vec3
	velocity math.Vec3
	target   math.Vec3
	state    FlightState
	time     float64

	poseSynced bool // SyncPose ran ahead of the next Step

	sampler wx.WindSampler
	host    Host

	lg *log.Logger
}

// NewDroneController returns a controller at rest at start whose target
// is its starting position. A nil host is replaced with NullHost.
func NewDroneController(name string, cfg VehicleConfig, start math.Vec3, sampler wx.WindSampler,
	host Host, lg *log.Logger) (*DroneController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if host == nil {
		host = NullHost{}
	}
	return &DroneController{
		Name:     name,
		Config:   cfg,
		position: start,
		target:   start,
		state:    Seeking,
		sampler:  sampler,
		host:     host,
		lg:       lg.With(slog.String("vehicle", name)),
	}, nil
}

func (c *DroneController) Position() math.Vec3 { return c.position }
func (c *DroneController) Velocity() math.Vec3 { return c.velocity }
func (c *DroneController) Target() math.Vec3   { return c.target }
func (c *DroneController) State() FlightState  { return c.state }
func (c *DroneController) Host() Host          { return c.host }
func (c *DroneController) Time() float64       { return c.time }
func (c *DroneController) Distance() float64   { return math.Distance3(c.target, c.position) }

// SetSampler changes where the controller gets its wind from.
func (c *DroneController) SetSampler(s wx.WindSampler) {
	c.sampler = s
}

// SetTarget sets the position to fly to. An arrived vehicle resumes
// seeking if the new target is beyond the position tolerance.
func (c *DroneController) SetTarget(t math.Vec3) {
	c.target = t
	if c.state == Arrived && c.Distance() > c.Config.PositionTolerance {
		c.state = Seeking
		NavLog(c.Name, c.time, NavLogState, "arrived -> seeking, target %s", t)
	}
}

// Teleport moves the vehicle to pos and stops it. Arrival is re-evaluated
// on the next Step.
func (c *DroneController) Teleport(pos math.Vec3) {
	c.position = pos
	c.velocity = math.Vec3{}
	c.state = Seeking
	c.lg.Info("teleported", slog.Any("position", pos))
}

func (c *DroneController) TakeSnapshot() ControllerSnapshot {
	return ControllerSnapshot{
		Position: c.position,
		Velocity: c.velocity,
		Target:   c.target,
		State:    c.state,
		Time:     c.time,
	}
}

func (c *DroneController) RestoreSnapshot(s ControllerSnapshot) {
	c.position = s.Position
	c.velocity = s.Velocity
	c.target = s.Target
	c.state = s.State
	c.time = s.Time
}

// SyncPose takes the vehicle's position from the host, if it provides
// one. Step calls it unless it has already been called since the previous
// Step.
func (c *DroneController) SyncPose() {
	c.poseSynced = true

	pos, err := c.host.VehiclePose()
	if err != nil {
		if !errors.Is(err, ErrNoPoseSource) {
			c.lg.Warn("unable to get vehicle pose from host", slog.Any("error", err))
		}
		return
	}
	if !math.IsFinite(pos[0]) || !math.IsFinite(pos[1]) || !math.IsFinite(pos[2]) {
		c.lg.Warn("ignoring non-finite host pose", slog.Any("pose", pos))
		return
	}
	if pos != c.position {
		NavLog(c.Name, c.time, NavLogHost, "host pose %s, integrated %s", pos, c.position)
	}
	c.position = pos
}

// Step advances the vehicle by dt. While seeking, it samples the wind at
// the current position, computes a bounded acceleration from the control
// law plus wind forcing, and integrates with explicit Euler. The vehicle
// stops dead once it is within the position tolerance of the target.
func (c *DroneController) Step(dt float64) ControlResult {
	if !c.poseSynced {
		c.SyncPose()
	}
	c.poseSynced = false
	c.time += dt

	if c.state == Arrived {
		c.velocity = math.Vec3{}
		return c.result()
	}

	posErr := math.Sub3(c.target, c.position)
	distance := math.Length3(posErr)
	if distance <= c.Config.PositionTolerance {
		c.state = Arrived
		c.velocity = math.Vec3{}
		NavLog(c.Name, c.time, NavLogState, "seeking -> arrived at %s", c.position)
		c.lg.Debug("arrived", slog.Any("position", c.position), slog.Any("target", c.target))
		r := c.result()
		r.Distance = distance
		return r
	}

	cfg := &c.Config
	desiredVel := math.ClampLength3(math.Scale3(posErr, PositionGain), cfg.MaxSpeed)
	controlAccel := math.Scale3(math.Sub3(desiredVel, c.velocity), VelocityGain)

	var wind math.Vec3
	if c.sampler != nil {
		wind = c.sampler.WindAt(c.position)
	}
	relVel := math.Sub3(c.velocity, wind)
	drag := math.Scale3(relVel, -0.5*cfg.AirDensity*cfg.DragCoefficient*cfg.CrossSectionArea*math.Length3(relVel))
	direct := math.Scale3(wind, cfg.Mass*WindForcing)
	windForce := math.Add3(drag, direct)

	accel := math.ClampLength3(math.Add3(controlAccel, math.Scale3(windForce, 1/cfg.Mass)), cfg.MaxAccel)

	c.velocity = math.Add3(c.velocity, math.Scale3(accel, dt))
	c.position = math.Add3(c.position, math.Scale3(c.velocity, dt))

	if NavLogEnabled(NavLogControl) {
		NavLog(c.Name, c.time, NavLogControl, "dist %.2f cmd %s accel %s", distance, controlAccel, accel)
	}
	if NavLogEnabled(NavLogWind) {
		NavLog(c.Name, c.time, NavLogWind, "wind %s force %s", wind, windForce)
	}

	return ControlResult{
		State:        c.state,
		Position:     c.position,
		Velocity:     c.velocity,
		Distance:     distance,
		Wind:         wind,
		WindForce:    windForce,
		ControlAccel: controlAccel,
		Accel:        accel,
	}
}

func (c *DroneController) result() ControlResult {
	return ControlResult{
		State:    c.state,
		Position: c.position,
		Velocity: c.velocity,
		Distance: c.Distance(),
	}
}
