// wx/primitives.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	gomath "math"

	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/rand"
)

const (
	RoughnessLength  = 0.1  // z0, m
	ReferenceHeight  = 10.0 // height at which the mean speed is specified, m
	MinProfileHeight = 0.1  // heights below this are clamped

	// MinTurbulenceSpeed keeps the Dryden time constant finite in still air.
	MinTurbulenceSpeed = 0.1

	GustRiseTime = 0.2 // seconds
)

///////////////////////////////////////////////////////////////////////////
// Log wind profile

// LogWindProfile returns the mean wind at the given height, scaled from
// meanSpeed at ReferenceHeight using the neutral-stability logarithmic
// profile.
func LogWindProfile(meanSpeed float64, dir math.Vec3, height float64) math.Vec3 {
	h := max(height, MinProfileHeight)
	s := meanSpeed * gomath.Log(h/RoughnessLength) / gomath.Log(ReferenceHeight/RoughnessLength)
	return math.Scale3(dir, s)
}

///////////////////////////////////////////////////////////////////////////
// Dryden turbulence

// DrydenFilter is a three-axis first-order Gauss-Markov process, a
// discrete approximation of the Dryden turbulence spectrum. Its zero value
// is a filter at rest.
type DrydenFilter struct {
	State math.Vec3
}

// DrydenTimeConstant returns the correlation time for the given length
// scale and mean speed.
func DrydenTimeConstant(lengthScale, meanSpeed float64) float64 {
	return lengthScale / max(meanSpeed, MinTurbulenceSpeed)
}

// Step advances the filter by dt and returns the new state. Three normal
// deviates are always drawn from r, so the random stream stays aligned
// even when sigma is zero.
func (d *DrydenFilter) Step(r *rand.Rand, sigma, tau, dt float64) math.Vec3 {
	phi := gomath.Exp(-dt / max(tau, math.Epsilon))
	k := sigma * gomath.Sqrt(max(0, 1-phi*phi))
	for i := range d.State {
		d.State[i] = phi*d.State[i] + k*r.NormFloat64()
	}
	return d.State
}

///////////////////////////////////////////////////////////////////////////
// Periodic turbulence

type sinusoid struct {
	freq, weight float64
}

var periodicComponents = [3][3]sinusoid{
	{{2.1, 0.5}, {3.7, 0.3}, {5.3, 0.2}},
	{{1.9, 0.5}, {4.1, 0.3}, {6.7, 0.2}},
	{{2.7, 0.5}, {3.3, 0.3}, {4.9, 0.2}},
}

// PeriodicTurbulence returns the deterministic sum-of-sines turbulence at
// time t, scaled by scale.
func PeriodicTurbulence(t, scale float64) math.Vec3 {
	var v math.Vec3
	for axis, comps := range periodicComponents {
		for _, c := range comps {
			v[axis] += c.weight * gomath.Sin(c.freq*t)
		}
		v[axis] *= scale
	}
	return v
}

///////////////////////////////////////////////////////////////////////////
// Gusts

// GustEnvelope tracks the recurring gust pulse of a zone.
type GustEnvelope struct {
	Active          bool
	StartTime       float64
	LastTriggerTime float64
}

// gustShape is a linear rise over GustRiseTime followed by a linear decay
// to zero at duration.
func gustShape(age, duration float64) float64 {
	if age < GustRiseTime {
		return age / GustRiseTime
	}
	return max(0, 1-(age-GustRiseTime)/(duration-GustRiseTime))
}

// Strength returns the normalized gust strength in [0,1] at the given zone
// clock, triggering a new gust if one is due. A gust is never retriggered
// while one is active.
func (g *GustEnvelope) Strength(clock float64, p GustParams) float64 {
	if p.Amplitude <= 0 || p.Frequency <= 0 {
		g.Active = false
		return 0
	}

	if !g.Active && clock-g.LastTriggerTime > 1/p.Frequency {
		g.Active = true
		g.StartTime = clock
		g.LastTriggerTime = clock
	}
	if !g.Active {
		return 0
	}

	age := clock - g.StartTime
	if age >= p.Duration {
		g.Active = false
		return 0
	}
	return gustShape(age, p.Duration)
}

// Current returns the normalized gust strength at clock without
// triggering or ending a gust.
func (g *GustEnvelope) Current(clock float64, p GustParams) float64 {
	if !g.Active || p.Amplitude <= 0 || p.Frequency <= 0 {
		return 0
	}
	if age := clock - g.StartTime; age < p.Duration {
		return gustShape(age, p.Duration)
	}
	return 0
}

///////////////////////////////////////////////////////////////////////////
// Transient events

// TransientEvent tracks a single-shot event that starts when a query
// position comes within its trigger radius. Once it has run it stays
// disarmed until a query is seen outside the trigger radius.
type TransientEvent struct {
	Active   bool
	Elapsed  float64
	Disarmed bool
}

// Step advances the event. inside reports whether the current query
// position is within the trigger radius. If the event is running, Step
// returns the elapsed fraction of duration at the start of this step and
// true.
func (e *TransientEvent) Step(inside bool, duration, dt float64) (float64, bool) {
	if !inside {
		e.Disarmed = false
	}
	if !e.Active {
		if !inside || e.Disarmed {
			return 0, false
		}
		e.Active = true
		e.Disarmed = true
		e.Elapsed = 0
	}

	if duration <= 0 {
		e.Active = false
		return 0, false
	}

	frac := math.Clamp(e.Elapsed/duration, 0, 1)
	e.Elapsed += dt
	if e.Elapsed >= duration {
		e.Active = false
	}
	return frac, true
}

// Reset returns the event to its initial armed state.
func (e *TransientEvent) Reset() {
	*e = TransientEvent{}
}

// eventSample is a transient event's contribution for the current tick.
type eventSample struct {
	frac float64
	on   bool
}

// GustFrontWind returns the gust front contribution: a horizontal push
// along the mean wind direction that decays linearly over the event.
func GustFrontWind(p EventParams, dir math.Vec3, frac float64) math.Vec3 {
	h := math.Normalize3(math.Horizontal3(dir))
	return math.Scale3(h, p.Strength*(1-frac))
}

// MicroburstWind returns the microburst contribution at pos. The downdraft
// dominates early in the event and the radial outflow grows as it ages.
func MicroburstWind(p EventParams, pos math.Vec3, frac float64) math.Vec3 {
	rel := math.Horizontal3(math.Sub3(pos, p.Center))
	d := math.Length3(rel)

	down := -p.Strength * (1 - frac) * gomath.Exp(-d/p.Radius)
	w := math.Vertical3(down)
	if d > math.Epsilon {
		out := p.Strength * frac * min(d/p.Radius, 1)
		w = math.Add3(w, math.Scale3(rel, out/d))
	}
	return w
}

///////////////////////////////////////////////////////////////////////////
// Tornado

// TornadoTangentialSpeed returns the Rankine-style swirl speed at
// horizontal distance d from the vortex axis: solid-body rotation inside
// the core and exponential decay outside it.
func TornadoTangentialSpeed(p TornadoParams, d float64) float64 {
	if d < p.Radius {
		return p.MaxTangentialSpeed * d / p.Radius
	}
	return p.MaxTangentialSpeed * gomath.Exp(-(d-p.Radius)/p.Radius)
}

// TornadoUpdraft returns the vertical wind at horizontal distance d from
// the vortex axis.
func TornadoUpdraft(p TornadoParams, d float64) float64 {
	return p.MaxUpdraft * gomath.Exp(-d/(0.7*p.Radius))
}

// TornadoWind returns the vortex contribution at pos: a horizontal swirl
// about the vertical axis through Center plus an updraft.
func TornadoWind(p TornadoParams, pos math.Vec3) math.Vec3 {
	rel := math.Horizontal3(math.Sub3(pos, p.Center))
	d := math.Length3(rel)

	w := math.Vertical3(TornadoUpdraft(p, d))
	if d > math.Epsilon {
		s := TornadoTangentialSpeed(p, d) / d
		// rel rotated 90 degrees about the vertical axis
		w[0] = -rel[2] * s
		w[2] = rel[0] * s
	}
	return w
}
