// wx/params.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"fmt"

	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/util"
)

// GustParams describes the recurring gust pulse added to a zone's mean
// wind.
type GustParams struct {
	Frequency float64 `yaml:"frequency"` // Hz; 0 disables gusts
	Amplitude float64 `yaml:"amplitude"` // m/s at peak strength
	Duration  float64 `yaml:"duration"`  // seconds, including the rise
}

// EventParams describes a proximity-triggered, single-shot transient:
// either a gust front or a microburst.
type EventParams struct {
	Enabled  bool      `yaml:"enabled"`
	Center   math.Vec3 `yaml:"center"`
	Radius   float64   `yaml:"radius"`   // trigger distance, m
	Strength float64   `yaml:"strength"` // m/s
	Duration float64   `yaml:"duration"` // seconds
}

// TornadoParams describes a stationary vortex. With MaxTangentialSpeed
// zero it reduces to a plain thermal updraft.
type TornadoParams struct {
	Enabled            bool      `yaml:"enabled"`
	Center             math.Vec3 `yaml:"center"`
	Radius             float64   `yaml:"radius"`               // core radius, m
	MaxTangentialSpeed float64   `yaml:"max_tangential_speed"` // m/s at the core radius
	MaxUpdraft         float64   `yaml:"max_updraft"`          // m/s at the center
}

// ZoneParams holds all of the tunable parameters of a WindZone. It is
// validated as a whole when set, so a zone never holds a partially-applied
// configuration.
type ZoneParams struct {
	MeanSpeed     float64   `yaml:"mean_speed"`     // m/s at the reference height
	MeanDirection math.Vec3 `yaml:"mean_direction"` // normalized on set

	TurbulenceIntensity   float64 `yaml:"turbulence_intensity"`    // [0,1]
	TurbulenceLengthScale float64 `yaml:"turbulence_length_scale"` // m

	Gust       GustParams    `yaml:"gust"`
	GustFront  EventParams   `yaml:"gust_front"`
	Microburst EventParams   `yaml:"microburst"`
	Tornado    TornadoParams `yaml:"tornado"`
}

// DefaultZoneParams returns the parameters a newly-created zone starts
// with.
func DefaultZoneParams() ZoneParams {
	return ZoneParams{
		MeanSpeed:             5,
		MeanDirection:         math.Vec3{1, 0, 0},
		TurbulenceIntensity:   0.1,
		TurbulenceLengthScale: 50,
		Gust: GustParams{
			Frequency: 0.5,
			Amplitude: 2,
			Duration:  2,
		},
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func nonNegative(name string, v float64) error {
	if !math.IsFinite(v) || v < 0 {
		return invalid("%s %v must be >= 0", name, v)
	}
	return nil
}

func positive(name string, v float64) error {
	if !math.IsFinite(v) || v <= 0 {
		return invalid("%s %v must be > 0", name, v)
	}
	return nil
}

// normalizeDirection returns d scaled to unit length, or an error if it
// has no length.
func normalizeDirection(d math.Vec3) (math.Vec3, error) {
	l := math.Length3(d)
	if !math.IsFinite(l) || l == 0 {
		return d, invalid("wind direction %v must have non-zero length", d)
	}
	return math.Scale3(d, 1/l), nil
}

func (g GustParams) Validate() error {
	if err := nonNegative("gust frequency", g.Frequency); err != nil {
		return err
	}
	if err := nonNegative("gust amplitude", g.Amplitude); err != nil {
		return err
	}
	return nonNegative("gust duration", g.Duration)
}

// Validate checks the event's geometry whether or not it is enabled; a
// disabled event may leave its radius and duration zero.
func (e EventParams) Validate(what string) error {
	check := util.Select(e.Enabled, positive, nonNegative)
	if err := check(what+" radius", e.Radius); err != nil {
		return err
	}
	if err := nonNegative(what+" strength", e.Strength); err != nil {
		return err
	}
	return check(what+" duration", e.Duration)
}

func (t TornadoParams) Validate() error {
	check := util.Select(t.Enabled, positive, nonNegative)
	if err := check("tornado radius", t.Radius); err != nil {
		return err
	}
	if err := nonNegative("tornado tangential speed", t.MaxTangentialSpeed); err != nil {
		return err
	}
	return nonNegative("tornado updraft", t.MaxUpdraft)
}

// normalized validates p and returns it with its direction normalized.
func (p ZoneParams) normalized() (ZoneParams, error) {
	if err := nonNegative("mean speed", p.MeanSpeed); err != nil {
		return p, err
	}
	dir, err := normalizeDirection(p.MeanDirection)
	if err != nil {
		return p, err
	}
	p.MeanDirection = dir

	if !math.IsFinite(p.TurbulenceIntensity) || p.TurbulenceIntensity < 0 || p.TurbulenceIntensity > 1 {
		return p, invalid("turbulence intensity %v must be in [0,1]", p.TurbulenceIntensity)
	}
	if err := positive("turbulence length scale", p.TurbulenceLengthScale); err != nil {
		return p, err
	}
	if err := p.Gust.Validate(); err != nil {
		return p, err
	}
	if err := p.GustFront.Validate("gust front"); err != nil {
		return p, err
	}
	if err := p.Microburst.Validate("microburst"); err != nil {
		return p, err
	}
	return p, p.Tornado.Validate()
}

// Validate returns an error wrapping ErrInvalidConfiguration if any of the
// parameters is out of range.
func (p ZoneParams) Validate() error {
	_, err := p.normalized()
	return err
}
