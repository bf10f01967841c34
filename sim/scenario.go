// sim/scenario.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"os"

	"github.com/brunoga/deep"
	"gopkg.in/yaml.v3"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/nav"
	"github.com/zephyrsim/zephyr/util"
	"github.com/zephyrsim/zephyr/wx"
)

// Scenario describes a complete simulation run: the wind zones, the
// presets applied to them, and the vehicles with their waypoints.
type Scenario struct {
	Name     string        `yaml:"name"`
	Seed     uint64        `yaml:"seed"`
	FixedDt  float64       `yaml:"fixed_dt"` // wind field timestep
	Dt       float64       `yaml:"dt"`       // controller timestep
	MaxTicks int           `yaml:"max_ticks"`
	Presets  []string      `yaml:"presets"` // applied in order, after zone parameters
	Zones    []ZoneSpec    `yaml:"zones"`
	Vehicles []VehicleSpec `yaml:"vehicles"`
}

// ZoneSpec is a wind zone in a scenario file. Parameters that are not
// given take their wx.DefaultZoneParams values.
type ZoneSpec struct {
	Name          string    `yaml:"name"`
	Center        math.Vec3 `yaml:"center"`
	Radius        float64   `yaml:"radius"`
	wx.ZoneParams `yaml:",inline"`
}

func (z *ZoneSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain ZoneSpec
	p := plain{ZoneParams: wx.DefaultZoneParams()}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*z = ZoneSpec(p)
	return nil
}

// VehicleSpec is a vehicle in a scenario file. Performance and drag
// values that are not given take their nav.DefaultVehicleConfig values.
type VehicleSpec struct {
	Name              string      `yaml:"name"`
	Start             math.Vec3   `yaml:"start"`
	Waypoints         []math.Vec3 `yaml:"waypoints"`
	nav.VehicleConfig `yaml:",inline"`
}

func (v *VehicleSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain VehicleSpec
	p := plain{VehicleConfig: nav.DefaultVehicleConfig()}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = VehicleSpec(p)
	return nil
}

// DefaultScenario returns the two-zone, single-vehicle demonstration
// flight.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:     "default",
		FixedDt:  wx.DefaultFixedDt,
		Dt:       nav.DefaultDt,
		MaxTicks: DefaultMaxTicks,
		Presets:  []string{"moderate", "tuned"},
		Zones: []ZoneSpec{
			{Name: "WindZone1", Center: math.Vec3{20, 10, 0}, Radius: 10, ZoneParams: wx.DefaultZoneParams()},
			{Name: "WindZone2", Center: math.Vec3{-15, 15, 30}, Radius: 12, ZoneParams: wx.DefaultZoneParams()},
		},
		Vehicles: []VehicleSpec{{
			Name:  "drone",
			Start: math.Vec3{0, 5, 0},
			Waypoints: []math.Vec3{
				{0, 5, 0},
				{10, 8, 5},
				{20, 10, 10},
				{15, 15, 15},
				{5, 12, 8},
				{0, 5, 0},
			},
			VehicleConfig: nav.DefaultVehicleConfig(),
		}},
	}
}

// LoadScenario reads a YAML scenario file, fills in defaults, and
// validates it.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(b)
}

func ParseScenario(b []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if s.FixedDt == 0 {
		s.FixedDt = wx.DefaultFixedDt
	}
	if s.Dt == 0 {
		s.Dt = nav.DefaultDt
	}
	if s.MaxTicks == 0 {
		s.MaxTicks = DefaultMaxTicks
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the entire scenario and returns an error wrapping
// ErrInvalidScenario that lists every problem found.
func (s *Scenario) Validate() error {
	var e util.ErrorLogger

	if s.Name != "" {
		e.Push("Scenario " + s.Name)
		defer e.Pop()
	}

	if s.FixedDt <= 0 || !math.IsFinite(s.FixedDt) {
		e.ErrorString("fixed_dt %v must be positive", s.FixedDt)
	}
	if s.Dt <= 0 || !math.IsFinite(s.Dt) {
		e.ErrorString("dt %v must be positive", s.Dt)
	}
	if s.MaxTicks < 0 {
		e.ErrorString("max_ticks %d must not be negative", s.MaxTicks)
	}
	for _, name := range s.Presets {
		if _, err := wx.LookupPreset(name); err != nil {
			e.Error(err)
		}
	}

	zoneNames := make(map[string]bool)
	for i, z := range s.Zones {
		e.Push(fmt.Sprintf("zone %d %q", i, z.Name))
		if z.Name == "" {
			e.ErrorString("name is required")
		} else if zoneNames[z.Name] {
			e.Error(wx.ErrDuplicateZone)
		}
		zoneNames[z.Name] = true
		if z.Radius <= 0 || !math.IsFinite(z.Radius) {
			e.ErrorString("radius %v must be positive", z.Radius)
		}
		if err := z.ZoneParams.Validate(); err != nil {
			e.Error(err)
		}
		e.Pop()
	}

	if len(s.Vehicles) == 0 {
		e.ErrorString("no vehicles specified")
	}
	vehicleNames := make(map[string]bool)
	for i, v := range s.Vehicles {
		e.Push(fmt.Sprintf("vehicle %d %q", i, v.Name))
		if v.Name == "" {
			e.ErrorString("name is required")
		} else if vehicleNames[v.Name] {
			e.ErrorString("duplicate vehicle name")
		}
		vehicleNames[v.Name] = true
		if len(v.Waypoints) == 0 {
			e.Error(ErrNoWaypoints)
		}
		if err := v.VehicleConfig.Validate(); err != nil {
			e.Error(err)
		}
		e.Pop()
	}

	return e.Err(ErrInvalidScenario)
}

// Clone returns a deep copy of the scenario.
func (s *Scenario) Clone() *Scenario {
	return deep.MustCopy(s)
}

// Run holds the objects built from a scenario.
type Run struct {
	Scenario *Scenario
	Field    *wx.WindField
	Fleet    *Fleet
}

// Build creates the wind field and fleet described by the scenario. host,
// if non-nil, is used for every vehicle and observes the field's zones.
func (s *Scenario) Build(host nav.Host, opts MissionOptions, lg *log.Logger) (*Run, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	field := wx.NewWindField(s.FixedDt, s.Seed, lg)
	if host != nil {
		field.SetObserver(host)
	}

	for _, zs := range s.Zones {
		z, err := field.AddZone(zs.Name, zs.Center, zs.Radius)
		if err != nil {
			return nil, err
		}
		if err := z.SetParams(zs.ZoneParams); err != nil {
			return nil, fmt.Errorf("%s: %w", zs.Name, err)
		}
	}
	for _, name := range s.Presets {
		p, err := wx.LookupPreset(name)
		if err != nil {
			return nil, err
		}
		if err := field.ApplyPreset(p); err != nil {
			return nil, err
		}
	}

	opts.Dt = s.Dt
	opts.MaxTicks = s.MaxTicks

	fleet := NewFleet(field, lg)
	for _, v := range s.Vehicles {
		if _, err := fleet.Add(v.Name, v.VehicleConfig, v.Start, v.Waypoints, host, opts); err != nil {
			return nil, err
		}
	}

	return &Run{Scenario: s, Field: field, Fleet: fleet}, nil
}
