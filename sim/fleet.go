// sim/fleet.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/nav"
	"github.com/zephyrsim/zephyr/wx"
)

// Fleet flies several vehicles through one wind field. Each tick, every
// active vehicle takes its pose from its host and the wind at it is
// sampled, in the order the vehicles were added, through a wx.TickCache:
// the first vehicle's query advances the field and the rest read the same
// field state without advancing it. Then every controller steps, reading
// the cached samples, and the field is updated once. Zone clocks therefore
// track the field clock. Gust fronts and microbursts are triggered by the
// first active vehicle's position.
type Fleet struct {
	field    *wx.WindField
	cache    *wx.TickCache
	missions []*Mission
	tick     int

	lg *log.Logger
}

func NewFleet(field *wx.WindField, lg *log.Logger) *Fleet {
	return &Fleet{
		field: field,
		cache: wx.NewTickCache(field, 1),
		lg:    lg,
	}
}

// Add creates a vehicle and its mission. A nil host is replaced with
// nav.NullHost.
func (f *Fleet) Add(name string, cfg nav.VehicleConfig, start math.Vec3, waypoints []math.Vec3, host nav.Host,
	opts MissionOptions) (*Mission, error) {
	ctrl, err := nav.NewDroneController(name, cfg, start, f.cache, host, f.lg)
	if err != nil {
		return nil, err
	}
	m, err := NewMission(ctrl, f.field, waypoints, opts, f.lg)
	if err != nil {
		return nil, err
	}

	f.missions = append(f.missions, m)
	f.cache = wx.NewTickCache(f.field, len(f.missions))
	for _, m := range f.missions {
		m.ctrl.SetSampler(f.cache)
	}
	return m, nil
}

func (f *Fleet) Missions() []*Mission {
	return f.missions
}

func (f *Fleet) Done() bool {
	for _, m := range f.missions {
		if !m.Done() {
			return false
		}
	}
	return true
}

// Step advances every unfinished mission by one tick and the field by
// one update. It returns true once all missions are done.
func (f *Fleet) Step() bool {
	if f.Done() {
		return true
	}
	f.stepExcept(nil)
	return f.Done()
}

// Run steps the fleet until every mission is done, ctx is canceled, or a
// mission exceeds its MaxTicks; a timed-out mission stops but the others
// continue. The returned error joins all timeouts.
func (f *Fleet) Run(ctx context.Context) ([]MissionResult, error) {
	var opts MissionOptions
	if len(f.missions) > 0 {
		opts = f.missions[0].opts
	}
	watcher := newZoneWatcher(f.field, opts.Events, opts.Dt)

	var errs []error
	timedOut := make(map[*Mission]bool)
	for !f.Done() {
		select {
		case <-ctx.Done():
			return f.results(), ctx.Err()
		default:
		}

		for _, m := range f.missions {
			if !timedOut[m] && m.timedOut() {
				timedOut[m] = true
				m.lg.Warn("mission timed out", slog.Any("result", m.Result()))
				m.post(MissionTimeoutEvent, "")
				errs = append(errs, m.timeoutError())
			}
		}
		if len(timedOut) > 0 && f.onlyTimedOutRemain(timedOut) {
			break
		}

		f.stepExcept(timedOut)
		watcher.observe(f.tick)
	}

	f.lg.Info("fleet finished", slog.Int("ticks", f.tick), slog.Int("vehicles", len(f.missions)))
	return f.results(), errors.Join(errs...)
}

func (f *Fleet) onlyTimedOutRemain(timedOut map[*Mission]bool) bool {
	for _, m := range f.missions {
		if !m.Done() && !timedOut[m] {
			return false
		}
	}
	return true
}

func (f *Fleet) stepExcept(skip map[*Mission]bool) {
	f.cache.Reset()

	for _, m := range f.missions {
		if !m.Done() && !skip[m] {
			m.ctrl.SyncPose()
			f.cache.WindAt(m.ctrl.Position())
		}
	}
	for _, m := range f.missions {
		if !skip[m] {
			m.step(false)
		}
	}
	f.field.Update()
	f.tick++
}

func (f *Fleet) results() []MissionResult {
	var r []MissionResult
	for _, m := range f.missions {
		r = append(r, m.Result())
	}
	return r
}
