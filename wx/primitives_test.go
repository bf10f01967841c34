// wx/primitives_test.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	gomath "math"
	"testing"

	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/rand"
)

func TestLogWindProfile(t *testing.T) {
	dir := math.Vec3{1, 0, 0}
	for _, tc := range []struct {
		h, want float64
	}{
		{h: ReferenceHeight, want: 5},
		{h: 0.1, want: 0},
		{h: 0, want: 0},
		{h: -3, want: 0},
		{h: 1, want: 2.5},
		{h: 100, want: 7.5},
	} {
		got := LogWindProfile(5, dir, tc.h)
		if gomath.Abs(got[0]-tc.want) > 1e-9 || got[1] != 0 || got[2] != 0 {
			t.Errorf("LogWindProfile(5, %v, %v) = %v, want [%v 0 0]", dir, tc.h, got, tc.want)
		}
	}
}

func TestDrydenReproducible(t *testing.T) {
	run := func(seed uint64) []math.Vec3 {
		var d DrydenFilter
		r := rand.MakeSeeded(seed)
		var out []math.Vec3
		for i := range 200 {
			dt := 0.016 + 0.001*float64(i%3)
			out = append(out, d.Step(r, 1.5, DrydenTimeConstant(50, 8), dt))
		}
		return out
	}

	a, b := run(1234), run(1234)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d: %v != %v with the same seed", i, a[i], b[i])
		}
	}

	c := run(4321)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Errorf("different seeds gave identical turbulence")
	}
}

func TestDrydenZeroSigma(t *testing.T) {
	var d DrydenFilter
	r := rand.MakeSeeded(7)
	for range 100 {
		if v := d.Step(r, 0, 5, 0.016); v != (math.Vec3{}) {
			t.Fatalf("Step with sigma 0 = %v, want zero", v)
		}
	}
}

func TestDrydenTimeConstant(t *testing.T) {
	if tau := DrydenTimeConstant(50, 10); tau != 5 {
		t.Errorf("DrydenTimeConstant(50, 10) = %v, want 5", tau)
	}
	if tau := DrydenTimeConstant(50, 0); tau != 500 {
		t.Errorf("DrydenTimeConstant(50, 0) = %v, want 500", tau)
	}
}

func TestPeriodicTurbulence(t *testing.T) {
	if v := PeriodicTurbulence(0, 3); v != (math.Vec3{}) {
		t.Errorf("PeriodicTurbulence(0, 3) = %v, want zero", v)
	}
	if v := PeriodicTurbulence(12.3, 0); v != (math.Vec3{}) {
		t.Errorf("PeriodicTurbulence(12.3, 0) = %v, want zero", v)
	}
	for i := range 500 {
		tm := float64(i) * 0.05
		v := PeriodicTurbulence(tm, 2)
		for axis := range v {
			if gomath.Abs(v[axis]) > 2+1e-9 {
				t.Fatalf("PeriodicTurbulence(%v, 2) = %v exceeds scale", tm, v)
			}
		}
	}
}

func TestGustEnvelope(t *testing.T) {
	p := GustParams{Frequency: 0.5, Amplitude: 2, Duration: 1}
	var g GustEnvelope
	const dt = 0.01

	var clock float64
	triggers := 0
	wasActive := false
	for range 2000 {
		clock += dt
		lastTrigger := g.LastTriggerTime
		active := g.Active

		s := g.Strength(clock, p)
		if s < 0 || s > 1 {
			t.Fatalf("strength %v at clock %v outside [0,1]", s, clock)
		}
		if active && g.LastTriggerTime != lastTrigger {
			t.Fatalf("gust retriggered while active at clock %v", clock)
		}
		if g.Active && !wasActive {
			triggers++
		}
		if age := clock - g.StartTime; g.StartTime > 0 && age >= p.Duration && s != 0 {
			t.Fatalf("strength %v at age %v, want 0", s, age)
		}
		wasActive = g.Active
	}

	// A gust every 2s + a little over 20s.
	if triggers < 9 || triggers > 10 {
		t.Errorf("got %d gusts in 20s, want 9 or 10", triggers)
	}
}

func TestGustEnvelopeShape(t *testing.T) {
	g := GustEnvelope{Active: true, StartTime: 10, LastTriggerTime: 10}
	p := GustParams{Frequency: 0.1, Amplitude: 1, Duration: 2.2}
	for _, tc := range []struct {
		clock, want float64
	}{
		{10, 0},
		{10.1, 0.5},
		{10.2, 1},
		{11.2, 0.5},
		{12.1, 0.05},
	} {
		if s := g.Strength(tc.clock, p); gomath.Abs(s-tc.want) > 1e-9 {
			t.Errorf("Strength(%v) = %v, want %v", tc.clock, s, tc.want)
		}
	}
	if s := g.Strength(12.3, p); s != 0 || g.Active {
		t.Errorf("Strength at end of gust = %v active %v, want 0 inactive", s, g.Active)
	}
}

func TestGustEnvelopeDisabled(t *testing.T) {
	for _, p := range []GustParams{
		{Frequency: 0, Amplitude: 3, Duration: 1},
		{Frequency: 1, Amplitude: 0, Duration: 1},
	} {
		var g GustEnvelope
		for i := range 1000 {
			if s := g.Strength(float64(i)*0.1, p); s != 0 || g.Active {
				t.Fatalf("gust with %+v triggered", p)
			}
		}
	}
}

func TestTransientEventSingleShot(t *testing.T) {
	var e TransientEvent
	const dt, dur = 0.1, 1.0

	if _, ok := e.Step(false, dur, dt); ok {
		t.Fatalf("event ran without a trigger")
	}

	// Triggered; runs for the full duration even after leaving.
	steps := 0
	for i := range 30 {
		inside := i < 3
		if _, ok := e.Step(inside, dur, dt); ok {
			steps++
		}
	}
	if steps < 10 || steps > 11 {
		t.Errorf("event ran for %d steps, want ~10", steps)
	}

	// Still inside after it finishes: no retrigger until the condition
	// goes false.
	var e2 TransientEvent
	for range 12 {
		e2.Step(true, dur, dt)
	}
	if e2.Active {
		t.Fatalf("event still active after its duration")
	}
	for range 50 {
		if _, ok := e2.Step(true, dur, dt); ok {
			t.Fatalf("event retriggered without leaving")
		}
	}
	e2.Step(false, dur, dt)
	if _, ok := e2.Step(true, dur, dt); !ok {
		t.Errorf("event did not rearm after leaving")
	}
}

func TestTransientEventFraction(t *testing.T) {
	var e TransientEvent
	prev := -1.0
	for {
		frac, ok := e.Step(true, 1, 0.25)
		if !ok {
			break
		}
		if frac <= prev || frac < 0 || frac >= 1 {
			t.Fatalf("fraction %v after %v", frac, prev)
		}
		prev = frac
	}
	if prev != 0.75 {
		t.Errorf("last fraction = %v, want 0.75", prev)
	}
}

func TestMicroburstWind(t *testing.T) {
	p := EventParams{Enabled: true, Center: math.Vec3{0, 0, 0}, Radius: 10, Strength: 6, Duration: 4}

	// At the start: all downdraft.
	w := MicroburstWind(p, math.Vec3{5, 20, 0}, 0)
	if w[0] != 0 || w[2] != 0 || w[1] >= 0 {
		t.Errorf("MicroburstWind at frac 0 = %v, want pure downdraft", w)
	}
	// Late: mostly outflow, pointing away from the center.
	w = MicroburstWind(p, math.Vec3{0, 20, -5}, 0.9)
	if w[2] >= 0 || gomath.Abs(w[2]) <= gomath.Abs(w[1]) {
		t.Errorf("MicroburstWind at frac 0.9 = %v, want outward outflow dominant", w)
	}
	// At the center there is no horizontal direction.
	w = MicroburstWind(p, math.Vec3{0, 3, 0}, 0.5)
	if w[0] != 0 || w[2] != 0 || !math.IsFinite(w[1]) {
		t.Errorf("MicroburstWind at center = %v", w)
	}
}

func TestGustFrontWind(t *testing.T) {
	p := EventParams{Enabled: true, Radius: 5, Strength: 4, Duration: 2}
	w := GustFrontWind(p, math.Vec3{0.6, 0.8, 0}, 0.5)
	if gomath.Abs(w[0]-2) > 1e-9 || w[1] != 0 || w[2] != 0 {
		t.Errorf("GustFrontWind = %v, want [2 0 0]", w)
	}
}

func TestTornadoContinuity(t *testing.T) {
	p := TornadoParams{Enabled: true, Radius: 8, MaxTangentialSpeed: 40, MaxUpdraft: 12}
	in := TornadoTangentialSpeed(p, p.Radius-1e-9)
	at := TornadoTangentialSpeed(p, p.Radius)
	if gomath.Abs(in-at) > 1e-6 || gomath.Abs(at-40) > 1e-9 {
		t.Errorf("tangential speed %v just inside, %v at radius, want both 40", in, at)
	}
	if s := TornadoTangentialSpeed(p, 0); s != 0 {
		t.Errorf("tangential speed at center = %v, want 0", s)
	}
	if s := TornadoTangentialSpeed(p, 16); gomath.Abs(s-40/gomath.E) > 1e-9 {
		t.Errorf("tangential speed at 2r = %v, want %v", s, 40/gomath.E)
	}
}

func TestTornadoWind(t *testing.T) {
	p := TornadoParams{Enabled: true, Center: math.Vec3{10, 0, 10}, Radius: 8, MaxTangentialSpeed: 40, MaxUpdraft: 12}

	w := TornadoWind(p, math.Vec3{10, 0, 10})
	if h := math.Length3(math.Horizontal3(w)); h > 1e-6 {
		t.Errorf("horizontal wind at center = %v, want ~0", h)
	}
	if w[math.Up] != 12 {
		t.Errorf("updraft at center = %v, want 12", w[math.Up])
	}

	// Swirl is perpendicular to the radial vector and independent of
	// height.
	pos := math.Vec3{14, 30, 10}
	w = TornadoWind(p, pos)
	rel := math.Horizontal3(math.Sub3(pos, p.Center))
	if d := math.Dot3(math.Horizontal3(w), rel); gomath.Abs(d) > 1e-9 {
		t.Errorf("swirl %v not perpendicular to %v", w, rel)
	}
	if s := math.Length3(math.Horizontal3(w)); gomath.Abs(s-20) > 1e-9 {
		t.Errorf("swirl speed at r/2 = %v, want 20", s)
	}
}
