// wx/field.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/iancoleman/orderedmap"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/util"
)

const DefaultFixedDt = 0.016 // seconds

// WindSampler is anything that can report the wind at a point.
// *WindField and *TickCache both implement it.
type WindSampler interface {
	WindAt(pos math.Vec3) math.Vec3
}

// TickSampler is a WindSampler that can also report the wind for the
// current tick without advancing it.
type TickSampler interface {
	WindSampler
	SampleAt(pos math.Vec3) math.Vec3
}

// ZoneObserver is notified of each zone's parameters once per
// WindField.Update.
type ZoneObserver interface {
	ZoneUpdated(name string, params ZoneParams)
}

// WindField is a named collection of wind zones whose contributions are
// summed. Zones are evaluated in the order they were added so that
// results are reproducible.
//
// Zone state advances when the field is queried with WindAt, not in
// Update: each WindAt call advances every zone by FixedDt. A field should
// therefore be queried with WindAt exactly once per tick; further
// positions in the same tick are read with SampleAt. TickCache does this
// for several consumers.
type WindField struct {
	FixedDt float64

	zones       *orderedmap.OrderedMap // name -> *WindZone
	seed        uint64
	globalClock float64
	observer    ZoneObserver

	lg *log.Logger
}

// NewWindField returns an empty field. Zone turbulence generators are
// derived from seed and the zone name. A non-positive fixedDt selects
// DefaultFixedDt.
func NewWindField(fixedDt float64, seed uint64, lg *log.Logger) *WindField {
	return &WindField{
		FixedDt: util.Select(fixedDt > 0, fixedDt, DefaultFixedDt),
		zones:   orderedmap.New(),
		seed:    seed,
		lg:      lg,
	}
}

// SetObserver registers o to be notified on each Update; nil removes the
// current observer.
func (f *WindField) SetObserver(o ZoneObserver) {
	f.observer = o
}

func (f *WindField) zoneSeed(name string) uint64 {
	return f.seed ^ util.HashString64(name)
}

// AddZone creates a zone with default parameters and adds it to the
// field.
func (f *WindField) AddZone(name string, center math.Vec3, radius float64) (*WindZone, error) {
	if _, ok := f.zones.Get(name); ok {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateZone)
	}

	z, err := NewWindZone(name, center, radius, f.zoneSeed(name), f.lg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	f.zones.Set(name, z)

	f.lg.Info("added wind zone", slog.String("name", name), slog.Any("center", center),
		slog.Float64("radius", radius))
	return z, nil
}

// Zone returns the named zone.
func (f *WindField) Zone(name string) (*WindZone, error) {
	if z, ok := f.zones.Get(name); ok {
		return z.(*WindZone), nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrZoneNotFound)
}

// ZoneNames returns the names of all zones in the order they were added.
func (f *WindField) ZoneNames() []string {
	return slices.Clone(f.zones.Keys())
}

// Zones iterates over the zones in the order they were added.
func (f *WindField) Zones() iter.Seq[*WindZone] {
	return func(yield func(*WindZone) bool) {
		for _, name := range f.zones.Keys() {
			z, _ := f.zones.Get(name)
			if !yield(z.(*WindZone)) {
				return
			}
		}
	}
}

// WindAt returns the total wind at pos. Every zone is advanced by
// FixedDt, whether or not pos is inside it.
func (f *WindField) WindAt(pos math.Vec3) math.Vec3 {
	var w math.Vec3
	for z := range f.Zones() {
		w = math.Add3(w, z.Evaluate(pos, f.FixedDt))
	}
	return w
}

// SampleAt returns the total wind at pos for the state left by the last
// WindAt, without advancing any zone.
func (f *WindField) SampleAt(pos math.Vec3) math.Vec3 {
	var w math.Vec3
	for z := range f.Zones() {
		w = math.Add3(w, z.Sample(pos))
	}
	return w
}

// Update advances the field's clock by FixedDt and reports each zone to
// the observer, if there is one. It does not advance zone state.
func (f *WindField) Update() {
	f.globalClock += f.FixedDt

	if f.observer != nil {
		for z := range f.Zones() {
			f.observer.ZoneUpdated(z.Name, z.Params())
		}
	}
}

// Time returns the total time the field has been advanced by Update.
func (f *WindField) Time() float64 {
	return f.globalClock
}

// ApplyPreset applies p to every zone. Application stops at the first
// zone that rejects it.
func (f *WindField) ApplyPreset(p Preset) error {
	for z := range f.Zones() {
		if err := p.Apply(z); err != nil {
			return fmt.Errorf("%s: preset %q: %w", z.Name, p.Name, err)
		}
	}
	f.lg.Info("applied wind preset", slog.String("preset", p.Name))
	return nil
}
