// wx/zone.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"log/slog"

	"github.com/zephyrsim/zephyr/log"
	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/rand"
)

// WindZone is a spherical region of space with its own wind parameters
// and transient event state. Its geometry is fixed at construction; its
// parameters may only be changed through the Set* methods.
//
// All transient state advances in Evaluate, so a zone must be evaluated
// at most once per simulation tick; Sample reads the wind at further
// positions for the same tick.
type WindZone struct {
	Name   string
	Center math.Vec3
	Radius float64

	params ZoneParams

	clock      float64
	dryden     DrydenFilter
	gust       GustEnvelope
	gustFront  TransientEvent
	microburst TransientEvent
	rand       *rand.Rand

	// Event contributions computed by the latest Evaluate.
	front, burst eventSample

	lg *log.Logger
}

// NewWindZone returns a zone with DefaultZoneParams whose turbulence is
// drawn from a generator seeded with seed.
func NewWindZone(name string, center math.Vec3, radius float64, seed uint64, lg *log.Logger) (*WindZone, error) {
	if err := positive("zone radius", radius); err != nil {
		return nil, err
	}
	return &WindZone{
		Name:   name,
		Center: center,
		Radius: radius,
		params: DefaultZoneParams(),
		rand:   rand.MakeSeeded(seed),
		lg:     lg.With(slog.String("zone", name)),
	}, nil
}

// Params returns a copy of the zone's current parameters.
func (z *WindZone) Params() ZoneParams {
	return z.params
}

// Clock returns the zone's local time: the sum of all dt values it has
// been evaluated with.
func (z *WindZone) Clock() float64 {
	return z.clock
}

// Reseed restarts the zone's turbulence generator.
func (z *WindZone) Reseed(seed uint64) {
	z.rand.Seed(seed)
}

// Contains reports whether pos is within the zone's radius.
func (z *WindZone) Contains(pos math.Vec3) bool {
	return math.Distance3(pos, z.Center) <= z.Radius
}

// SetParams validates p and, if it is valid, replaces all of the zone's
// parameters. Otherwise the zone is unchanged.
func (z *WindZone) SetParams(p ZoneParams) error {
	np, err := p.normalized()
	if err != nil {
		z.lg.Warn("rejected zone parameters", slog.Any("error", err))
		return err
	}

	if np.GustFront != z.params.GustFront {
		z.gustFront.Reset()
		z.front = eventSample{}
	}
	if np.Microburst != z.params.Microburst {
		z.microburst.Reset()
		z.burst = eventSample{}
	}
	z.params = np

	z.lg.Debug("zone parameters set", slog.Any("params", np))
	return nil
}

func (z *WindZone) update(f func(p *ZoneParams)) error {
	p := z.params
	f(&p)
	return z.SetParams(p)
}

func (z *WindZone) SetMeanSpeed(speed float64) error {
	return z.update(func(p *ZoneParams) { p.MeanSpeed = speed })
}

// SetMeanDirection sets the mean wind direction; dir is normalized. A
// zero-length dir is rejected and the previous direction is kept.
func (z *WindZone) SetMeanDirection(dir math.Vec3) error {
	return z.update(func(p *ZoneParams) { p.MeanDirection = dir })
}

func (z *WindZone) SetTurbulenceIntensity(intensity float64) error {
	return z.update(func(p *ZoneParams) { p.TurbulenceIntensity = intensity })
}

func (z *WindZone) SetTurbulenceLengthScale(l float64) error {
	return z.update(func(p *ZoneParams) { p.TurbulenceLengthScale = l })
}

func (z *WindZone) SetGusts(g GustParams) error {
	return z.update(func(p *ZoneParams) { p.Gust = g })
}

// SetGustFront configures the zone's gust front. Changing it rearms the
// event.
func (z *WindZone) SetGustFront(e EventParams) error {
	return z.update(func(p *ZoneParams) { p.GustFront = e })
}

// SetMicroburst configures the zone's microburst. Changing it rearms the
// event.
func (z *WindZone) SetMicroburst(e EventParams) error {
	return z.update(func(p *ZoneParams) { p.Microburst = e })
}

func (z *WindZone) SetTornado(t TornadoParams) error {
	return z.update(func(p *ZoneParams) { p.Tornado = t })
}

// Falloff returns the attenuation applied to the zone's wind at distance
// d from its center.
func (z *WindZone) Falloff(d float64) float64 {
	return max(0, 1-math.Sqr(d/z.Radius))
}

// Evaluate advances the zone's clock by dt and returns its wind at pos.
// The result is exactly zero if pos is outside the zone; in that case
// nothing but the clock advances.
func (z *WindZone) Evaluate(pos math.Vec3, dt float64) math.Vec3 {
	z.clock += dt
	z.front, z.burst = eventSample{}, eventSample{}

	d := math.Distance3(pos, z.Center)
	if d > z.Radius {
		return math.Vec3{}
	}

	p := &z.params
	sigma := p.TurbulenceIntensity * p.MeanSpeed
	z.dryden.Step(z.rand, sigma, DrydenTimeConstant(p.TurbulenceLengthScale, p.MeanSpeed), dt)

	if gf := p.GustFront; gf.Enabled {
		inside := math.Distance3(pos, gf.Center) < gf.Radius
		z.front.frac, z.front.on = z.gustFront.Step(inside, gf.Duration, dt)
	}
	if mb := p.Microburst; mb.Enabled {
		inside := math.Distance3(pos, mb.Center) < mb.Radius
		z.burst.frac, z.burst.on = z.microburst.Step(inside, mb.Duration, dt)
	}
	z.gust.Strength(z.clock, p.Gust)

	return z.wind(pos, d)
}

// Sample returns the zone's wind at pos for the state left by the most
// recent Evaluate, without advancing the clock, the turbulence filter,
// or any event. Events are triggered only by Evaluate's query position.
func (z *WindZone) Sample(pos math.Vec3) math.Vec3 {
	d := math.Distance3(pos, z.Center)
	if d > z.Radius {
		return math.Vec3{}
	}
	return z.wind(pos, d)
}

// wind sums the zone's terms at pos, which is at distance d from the
// center, and applies the falloff.
func (z *WindZone) wind(pos math.Vec3, d float64) math.Vec3 {
	p := &z.params
	sigma := p.TurbulenceIntensity * p.MeanSpeed

	w := LogWindProfile(p.MeanSpeed, p.MeanDirection, pos[math.Up])
	w = math.Add3(w, z.dryden.State)

	if z.front.on {
		w = math.Add3(w, GustFrontWind(p.GustFront, p.MeanDirection, z.front.frac))
	}
	if z.burst.on {
		w = math.Add3(w, MicroburstWind(p.Microburst, pos, z.burst.frac))
	}

	w = math.Add3(w, PeriodicTurbulence(z.clock, sigma))

	if p.Tornado.Enabled {
		w = math.Add3(w, TornadoWind(p.Tornado, pos))
	}

	if s := z.gust.Current(z.clock, p.Gust); s > 0 {
		w = math.Add3(w, math.Scale3(p.MeanDirection, p.Gust.Amplitude*s))
	}

	return math.Scale3(w, z.Falloff(d))
}

// GustActive reports whether a gust is currently in progress.
func (z *WindZone) GustActive() bool { return z.gust.Active }

// GustFrontActive reports whether the gust front is currently running.
func (z *WindZone) GustFrontActive() bool { return z.gustFront.Active }

// MicroburstActive reports whether the microburst is currently running.
func (z *WindZone) MicroburstActive() bool { return z.microburst.Active }

func (z *WindZone) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", z.Name),
		slog.Any("center", z.Center),
		slog.Float64("radius", z.Radius),
		slog.Float64("clock", z.clock),
		slog.Float64("mean_speed", z.params.MeanSpeed),
		slog.Bool("gust_active", z.gust.Active),
		slog.Bool("gust_front_active", z.gustFront.Active),
		slog.Bool("microburst_active", z.microburst.Active),
	)
}
