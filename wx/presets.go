// wx/presets.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"fmt"
	"maps"
	"slices"

	"github.com/brunoga/deep"

	"github.com/zephyrsim/zephyr/math"
)

// Preset is a named set of wind conditions that can be applied to zones.
// MeanDirection and Updraft are optional; when nil the corresponding zone
// parameters are left as they are.
type Preset struct {
	Name                string         `yaml:"name"`
	MeanSpeed           float64        `yaml:"mean_speed"`
	TurbulenceIntensity float64        `yaml:"turbulence_intensity"`
	Gust                GustParams     `yaml:"gust"`
	MeanDirection       *math.Vec3     `yaml:"mean_direction,omitempty"`
	Updraft             *TornadoParams `yaml:"updraft,omitempty"`
}

var defaultPresets = map[string]Preset{
	"calm": {
		Name:                "calm",
		MeanSpeed:           2,
		TurbulenceIntensity: 0.05,
		Gust:                GustParams{Frequency: 0.1, Amplitude: 1, Duration: 1},
	},
	"moderate": {
		Name:                "moderate",
		MeanSpeed:           8,
		TurbulenceIntensity: 0.2,
		Gust:                GustParams{Frequency: 0.3, Amplitude: 3, Duration: 2},
	},
	"stormy": {
		Name:                "stormy",
		MeanSpeed:           15,
		TurbulenceIntensity: 0.6,
		Gust:                GustParams{Frequency: 0.8, Amplitude: 8, Duration: 3},
	},
	"turbulent": {
		Name:                "turbulent",
		MeanSpeed:           6,
		TurbulenceIntensity: 0.8,
		Gust:                GustParams{Frequency: 1.2, Amplitude: 5, Duration: 1.5},
	},
	"tuned": {
		Name:                "tuned",
		MeanSpeed:           10,
		TurbulenceIntensity: 0.5,
		Gust:                GustParams{Frequency: 0.3, Amplitude: 4, Duration: 1.5},
		MeanDirection:       &math.Vec3{1, 0, 0},
		// A thermal: a vortex with no swirl.
		Updraft: &TornadoParams{
			Enabled:    true,
			Center:     math.Vec3{5, 0, 5},
			Radius:     8,
			MaxUpdraft: 2.5,
		},
	},
}

// DefaultPresets returns a copy of the built-in presets, keyed by name.
func DefaultPresets() map[string]Preset {
	return deep.MustCopy(defaultPresets)
}

// PresetNames returns the names of the built-in presets, sorted.
func PresetNames() []string {
	return slices.Sorted(maps.Keys(defaultPresets))
}

// LookupPreset returns the named built-in preset.
func LookupPreset(name string) (Preset, error) {
	if p, ok := defaultPresets[name]; ok {
		return deep.MustCopy(p), nil
	}
	return Preset{}, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
}

// Apply sets the preset's conditions on z. Either all of them are applied
// or, if any is invalid, none are.
func (p Preset) Apply(z *WindZone) error {
	zp := z.Params()
	zp.MeanSpeed = p.MeanSpeed
	zp.TurbulenceIntensity = p.TurbulenceIntensity
	zp.Gust = p.Gust
	if p.MeanDirection != nil {
		zp.MeanDirection = *p.MeanDirection
	}
	if p.Updraft != nil {
		zp.Tornado = *p.Updraft
	}
	return z.SetParams(zp)
}
