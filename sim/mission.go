// sim/mission.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/nav"
	"github.com/zephyrsim/zephyr/wx"
)

const (
	DefaultMaxTicks       = 60 * 60 * 10 // ten minutes at the default rate
	DefaultStatusInterval = 60
)

type MissionOptions struct {
	Dt             float64 // controller timestep; 0 selects nav.DefaultDt
	MaxTicks       int     // 0 selects DefaultMaxTicks
	StatusInterval int     // ticks between status records; 0 selects DefaultStatusInterval

	Recorder *Recorder    // optional
	Events   *EventStream // optional
}

func (o MissionOptions) withDefaults() MissionOptions {
	if o.Dt <= 0 {
		o.Dt = nav.DefaultDt
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = DefaultStatusInterval
	}
	return o
}

// MissionResult summarizes a mission, complete or not.
type MissionResult struct {
	Vehicle          string
	Completed        bool
	WaypointsReached int
	Waypoints        int
	Ticks            int
	Time             float64
	FinalPosition    math.Vec3
	PathLength       float64
	MaxSpeed         float64
	MaxWind          float64
}

func (r MissionResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("vehicle", r.Vehicle),
		slog.Bool("completed", r.Completed),
		slog.Int("waypoints_reached", r.WaypointsReached),
		slog.Int("waypoints", r.Waypoints),
		slog.Int("ticks", r.Ticks),
		slog.Float64("time", r.Time),
		slog.Any("final_position", r.FinalPosition),
		slog.Float64("path_length", r.PathLength),
		slog.Float64("max_speed", r.MaxSpeed),
		slog.Float64("max_wind", r.MaxWind),
	)
}

// Mission flies a vehicle through an ordered list of waypoints, one
// controller step per tick.
type Mission struct {
	ctrl      *nav.DroneController
	field     *wx.WindField
	waypoints []math.Vec3
	opts      MissionOptions

	index  int
	tick   int
	result MissionResult

	lg *log.Logger
}

// NewMission returns a mission for ctrl through waypoints. The controller
// should sample field (directly or through a wx.TickCache).
func NewMission(ctrl *nav.DroneController, field *wx.WindField, waypoints []math.Vec3, opts MissionOptions,
	lg *log.Logger) (*Mission, error) {
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("%s: %w", ctrl.Name, ErrNoWaypoints)
	}

	m := &Mission{
		ctrl:      ctrl,
		field:     field,
		waypoints: slices.Clone(waypoints),
		opts:      opts.withDefaults(),
		result: MissionResult{
			Vehicle:   ctrl.Name,
			Waypoints: len(waypoints),
		},
		lg: lg.With(slog.String("vehicle", ctrl.Name)),
	}
	ctrl.SetTarget(m.waypoints[0])
	return m, nil
}

func (m *Mission) Controller() *nav.DroneController { return m.ctrl }

// Done reports whether every waypoint has been reached.
func (m *Mission) Done() bool {
	return m.index >= len(m.waypoints)
}

// Waypoint returns the index of the waypoint currently being flown to.
func (m *Mission) Waypoint() int {
	return m.index
}

func (m *Mission) Ticks() int {
	return m.tick
}

func (m *Mission) Result() MissionResult {
	r := m.result
	r.Completed = m.Done()
	r.WaypointsReached = m.index
	r.Ticks = m.tick
	r.Time = float64(m.tick) * m.opts.Dt
	r.FinalPosition = m.ctrl.Position()
	return r
}

// Step advances the mission by one tick: the controller steps, the wind
// field is updated, and the host is told the new pose. It returns true
// once all waypoints have been reached.
func (m *Mission) Step() bool {
	return m.step(true)
}

func (m *Mission) step(updateField bool) bool {
	if m.Done() {
		return true
	}

	prev := m.ctrl.Position()
	r := m.ctrl.Step(m.opts.Dt)
	if updateField {
		m.field.Update()
	}

	if err := m.ctrl.Host().SetVehiclePose(r.Position); err != nil {
		m.lg.Warn("unable to set vehicle pose", slog.Any("error", err))
	}

	m.tick++
	m.result.PathLength += math.Distance3(prev, r.Position)
	m.result.MaxSpeed = max(m.result.MaxSpeed, math.Length3(r.Velocity))
	m.result.MaxWind = max(m.result.MaxWind, math.Length3(r.Wind))

	if m.opts.Recorder != nil {
		if err := m.opts.Recorder.Record(m.frame(r)); err != nil {
			m.lg.Error("unable to record frame", slog.Any("error", err))
		}
	}

	if m.tick%m.opts.StatusInterval == 0 {
		m.lg.Info("status", slog.Int("tick", m.tick), slog.Int("waypoint", m.index), slog.Any("control", r))
		m.post(StatusEvent, fmt.Sprintf("dist %.2f wind %s", r.Distance, r.Wind))
	}

	if r.State == nav.Arrived {
		m.lg.Info("waypoint reached", slog.Int("waypoint", m.index), slog.Any("position", r.Position),
			slog.Int("tick", m.tick))
		m.post(WaypointReachedEvent, "")

		m.index++
		if m.Done() {
			m.lg.Info("mission complete", slog.Any("result", m.Result()))
			m.post(MissionCompleteEvent, "")
			return true
		}
		m.ctrl.SetTarget(m.waypoints[m.index])
	}
	return false
}

func (m *Mission) post(t EventType, msg string) {
	m.opts.Events.Post(Event{
		Type:     t,
		Vehicle:  m.ctrl.Name,
		Waypoint: m.index,
		Position: m.ctrl.Position(),
		Time:     float64(m.tick) * m.opts.Dt,
		Message:  msg,
	})
}

func (m *Mission) frame(r nav.ControlResult) Frame {
	return Frame{
		Tick:     m.tick,
		Time:     float64(m.tick) * m.opts.Dt,
		Vehicle:  m.ctrl.Name,
		Waypoint: m.index,
		Arrived:  r.State == nav.Arrived,
		Position: r.Position,
		Velocity: r.Velocity,
		Wind:     r.Wind,
		Accel:    r.Accel,
		Distance: r.Distance,
	}
}

func (m *Mission) timedOut() bool {
	return !m.Done() && m.tick >= m.opts.MaxTicks
}

func (m *Mission) timeoutError() error {
	return fmt.Errorf("%s: %d ticks: %w", m.ctrl.Name, m.tick, ErrMissionTimeout)
}

// Run steps the mission until all waypoints have been reached, ctx is
// canceled, or MaxTicks ticks have passed.
func (m *Mission) Run(ctx context.Context) (MissionResult, error) {
	watcher := newZoneWatcher(m.field, m.opts.Events, m.opts.Dt)

	for !m.Done() {
		select {
		case <-ctx.Done():
			return m.Result(), ctx.Err()
		default:
		}

		if m.timedOut() {
			m.lg.Warn("mission timed out", slog.Any("result", m.Result()))
			m.post(MissionTimeoutEvent, "")
			return m.Result(), m.timeoutError()
		}

		m.Step()
		watcher.observe(m.tick)
	}
	return m.Result(), nil
}

// zoneWatcher posts events when a zone's gust front or microburst starts.
type zoneWatcher struct {
	field  *wx.WindField
	events *EventStream
	dt     float64
	active map[string][2]bool
}

func newZoneWatcher(field *wx.WindField, events *EventStream, dt float64) *zoneWatcher {
	return &zoneWatcher{field: field, events: events, dt: dt, active: make(map[string][2]bool)}
}

func (w *zoneWatcher) observe(tick int) {
	if w.events == nil {
		return
	}
	for z := range w.field.Zones() {
		now := [2]bool{z.GustFrontActive(), z.MicroburstActive()}
		prev := w.active[z.Name]
		for i, t := range []EventType{GustFrontEvent, MicroburstEvent} {
			if now[i] && !prev[i] {
				w.events.Post(Event{Type: t, Zone: z.Name, Time: float64(tick) * w.dt})
			}
		}
		w.active[z.Name] = now
	}
}
