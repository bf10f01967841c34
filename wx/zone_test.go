// wx/zone_test.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/rand"
)

func makeZone(t *testing.T, center math.Vec3, radius float64, seed uint64) *WindZone {
	t.Helper()
	z, err := NewWindZone("test", center, radius, seed, nil)
	if err != nil {
		t.Fatalf("NewWindZone: %v", err)
	}
	return z
}

func TestZoneOutsideIsZero(t *testing.T) {
	z := makeZone(t, math.Vec3{0, 10, 0}, 10, 1)
	if err := z.SetParams(ZoneParams{
		MeanSpeed:             15,
		MeanDirection:         math.Vec3{1, 0, 1},
		TurbulenceIntensity:   0.8,
		TurbulenceLengthScale: 30,
		Gust:                  GustParams{Frequency: 2, Amplitude: 8, Duration: 1},
		Tornado:               TornadoParams{Enabled: true, Center: math.Vec3{0, 0, 0}, Radius: 5, MaxTangentialSpeed: 30, MaxUpdraft: 10},
	}); err != nil {
		t.Fatal(err)
	}

	r := rand.MakeSeeded(99)
	for i := range 1000 {
		dir := math.Normalize3(math.Vec3{r.Float64() - 0.5, r.Float64() - 0.5, r.Float64() - 0.5})
		pos := math.Add3(z.Center, math.Scale3(dir, 10.001+50*r.Float64()))
		if w := z.Evaluate(pos, 0.016); w != (math.Vec3{}) {
			t.Fatalf("Evaluate(%v) = %v outside the zone", pos, w)
		}
		if want := float64(i+1) * 0.016; gomath.Abs(z.Clock()-want) > 1e-9 {
			t.Fatalf("clock = %v after %d evaluations, want %v", z.Clock(), i+1, want)
		}
	}
	if z.dryden.State != (math.Vec3{}) {
		t.Errorf("turbulence advanced by queries outside the zone: %v", z.dryden.State)
	}
}

func TestZoneFalloffContinuous(t *testing.T) {
	center := math.Vec3{0, 10, 0}
	const radius = 10.0

	for _, eps := range []float64{1e-2, 1e-4, 1e-6} {
		inner := makeZone(t, center, radius, 42)
		edge := makeZone(t, center, radius, 42)

		var maxRaw float64
		for range 300 {
			wi := inner.Evaluate(math.Vec3{radius - eps, 10, 0}, 0.016)
			we := edge.Evaluate(math.Vec3{radius, 10, 0}, 0.016)
			if math.Length3(we) != 0 {
				t.Fatalf("wind at the boundary = %v, want zero", we)
			}
			maxRaw = max(maxRaw, math.Length3(wi)/inner.Falloff(radius-eps))
			// The jump across the boundary is bounded by the falloff
			// slope, 2/radius, times eps.
			if diff := math.Length3(math.Sub3(wi, we)); diff > maxRaw*2*eps/radius*1.001 {
				t.Fatalf("eps %g: jump %g across the boundary exceeds %g", eps, diff, maxRaw*2*eps/radius)
			}
		}
	}
}

func TestZoneFalloff(t *testing.T) {
	z := makeZone(t, math.Vec3{}, 4, 1)
	for _, tc := range []struct {
		d, want float64
	}{
		{0, 1},
		{2, 0.75},
		{4, 0},
		{8, 0},
	} {
		if f := z.Falloff(tc.d); f != tc.want {
			t.Errorf("Falloff(%v) = %v, want %v", tc.d, f, tc.want)
		}
	}
}

func TestZoneReproducible(t *testing.T) {
	a := makeZone(t, math.Vec3{0, 10, 0}, 20, 7)
	b := makeZone(t, math.Vec3{0, 10, 0}, 20, 7)
	pos := math.Vec3{3, 8, -2}

	var first []math.Vec3
	for range 500 {
		wa, wb := a.Evaluate(pos, 1./60), b.Evaluate(pos, 1./60)
		if wa != wb {
			t.Fatalf("same seed diverged: %v vs %v", wa, wb)
		}
		first = append(first, wa)
	}

	c := makeZone(t, math.Vec3{0, 10, 0}, 20, 8)
	c.Reseed(7)
	for i := range first {
		if w := c.Evaluate(pos, 1./60); w != first[i] {
			t.Fatalf("reseeded zone diverged at step %d: %v vs %v", i, w, first[i])
		}
	}
}

func TestZoneTornadoCenter(t *testing.T) {
	center := math.Vec3{10, 0, 10}
	z := makeZone(t, center, 30, 3)

	p := z.Params()
	p.MeanSpeed = 0
	p.Gust.Amplitude = 0
	p.Tornado = TornadoParams{Enabled: true, Center: center, Radius: 8, MaxTangentialSpeed: 40, MaxUpdraft: 15}
	if err := z.SetParams(p); err != nil {
		t.Fatal(err)
	}

	for range 10 {
		w := z.Evaluate(center, 0.016)
		if h := math.Length3(math.Horizontal3(w)); h > 1e-6 {
			t.Errorf("horizontal wind at the vortex center = %v, want ~0", h)
		}
		if gomath.Abs(w[math.Up]-15) > 1e-9 {
			t.Errorf("updraft at the vortex center = %v, want 15", w[math.Up])
		}
	}

	// Strongest swirl is at the core radius.
	at := math.Length3(math.Horizontal3(z.Evaluate(math.Vec3{18, 0, 10}, 0.016)))
	want := 40 * z.Falloff(8)
	if gomath.Abs(at-want) > 1e-9 {
		t.Errorf("swirl at core radius = %v, want %v", at, want)
	}
}

func TestZoneSetters(t *testing.T) {
	z := makeZone(t, math.Vec3{}, 10, 1)
	orig := z.Params()

	for name, set := range map[string]func() error{
		"zero direction":      func() error { return z.SetMeanDirection(math.Vec3{}) },
		"negative speed":      func() error { return z.SetMeanSpeed(-1) },
		"NaN speed":           func() error { return z.SetMeanSpeed(gomath.NaN()) },
		"turbulence > 1":      func() error { return z.SetTurbulenceIntensity(1.5) },
		"zero length scale":   func() error { return z.SetTurbulenceLengthScale(0) },
		"negative gust":       func() error { return z.SetGusts(GustParams{Frequency: 1, Amplitude: -2, Duration: 1}) },
		"gust front radius":   func() error { return z.SetGustFront(EventParams{Enabled: true, Radius: -1, Strength: 1, Duration: 1}) },
		"microburst duration": func() error { return z.SetMicroburst(EventParams{Enabled: true, Radius: 3, Strength: 1}) },
		"tornado radius":      func() error { return z.SetTornado(TornadoParams{Enabled: true, MaxUpdraft: 3}) },
	} {
		if err := set(); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: got error %v, want ErrInvalidConfiguration", name, err)
		}
		if z.Params() != orig {
			t.Errorf("%s: zone changed after rejected update", name)
		}
	}

	if err := z.SetMeanDirection(math.Vec3{0, 0, 2}); err != nil {
		t.Fatal(err)
	}
	if d := z.Params().MeanDirection; d != (math.Vec3{0, 0, 1}) {
		t.Errorf("direction = %v, want [0 0 1]", d)
	}

	// Disabled events may be left zero but not negative.
	if err := z.SetTornado(TornadoParams{}); err != nil {
		t.Errorf("zero disabled tornado rejected: %v", err)
	}
	orig = z.Params()
	for name, set := range map[string]func() error{
		"disabled tornado radius":      func() error { return z.SetTornado(TornadoParams{Radius: -5}) },
		"disabled tornado updraft":     func() error { return z.SetTornado(TornadoParams{MaxUpdraft: gomath.NaN()}) },
		"disabled gust front radius":   func() error { return z.SetGustFront(EventParams{Radius: -1}) },
		"disabled microburst duration": func() error { return z.SetMicroburst(EventParams{Radius: 3, Duration: -2}) },
	} {
		if err := set(); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: got error %v, want ErrInvalidConfiguration", name, err)
		}
		if z.Params() != orig {
			t.Errorf("%s: zone changed after rejected update", name)
		}
	}
}

func TestNewWindZoneRadius(t *testing.T) {
	for _, r := range []float64{0, -3, gomath.Inf(1)} {
		if _, err := NewWindZone("bad", math.Vec3{}, r, 0, nil); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("NewWindZone radius %v: got %v, want ErrInvalidConfiguration", r, err)
		}
	}
}

func TestZoneGustFront(t *testing.T) {
	z := makeZone(t, math.Vec3{0, 10, 0}, 50, 1)
	p := z.Params()
	p.MeanSpeed = 0
	p.Gust.Amplitude = 0
	p.GustFront = EventParams{Enabled: true, Center: math.Vec3{0, 10, 0}, Radius: 5, Strength: 6, Duration: 0.5}
	if err := z.SetParams(p); err != nil {
		t.Fatal(err)
	}

	far := math.Vec3{20, 10, 0}
	if w := z.Evaluate(far, 0.1); w != (math.Vec3{}) {
		t.Errorf("wind away from the gust front = %v, want zero", w)
	}

	near := math.Vec3{1, 10, 0}
	w := z.Evaluate(near, 0.1)
	if !z.GustFrontActive() || w[0] <= 0 {
		t.Fatalf("gust front did not trigger: wind %v", w)
	}
	// It keeps running after we leave.
	if w := z.Evaluate(far, 0.1); w[0] <= 0 {
		t.Errorf("gust front stopped when leaving: wind %v", w)
	}
	for range 10 {
		z.Evaluate(far, 0.1)
	}
	if z.GustFrontActive() {
		t.Errorf("gust front still active after its duration")
	}

	// Changing the configuration rearms it.
	z.Evaluate(near, 0.1)
	z.gustFront.Active = false
	z.gustFront.Disarmed = true
	p.GustFront.Strength = 3
	if err := z.SetParams(p); err != nil {
		t.Fatal(err)
	}
	z.Evaluate(near, 0.1)
	if !z.GustFrontActive() {
		t.Errorf("reconfigured gust front did not trigger")
	}
}

func TestZoneMicroburst(t *testing.T) {
	z := makeZone(t, math.Vec3{0, 10, 0}, 50, 1)
	p := z.Params()
	p.MeanSpeed = 0
	p.Gust.Amplitude = 0
	p.Microburst = EventParams{Enabled: true, Center: math.Vec3{0, 10, 0}, Radius: 8, Strength: 10, Duration: 1}
	if err := z.SetParams(p); err != nil {
		t.Fatal(err)
	}

	w := z.Evaluate(math.Vec3{2, 10, 0}, 0.1)
	if !z.MicroburstActive() || w[math.Up] >= 0 {
		t.Errorf("microburst at start: active %v wind %v, want downdraft", z.MicroburstActive(), w)
	}
}

func TestZoneSampleDoesNotAdvance(t *testing.T) {
	z := makeZone(t, math.Vec3{0, 10, 0}, 20, 3)
	p := z.Params()
	p.MeanSpeed = 8
	p.TurbulenceIntensity = 0.4
	p.Gust = GustParams{Frequency: 1, Amplitude: 3, Duration: 0.6}
	p.Tornado = TornadoParams{Enabled: true, Center: math.Vec3{4, 0, 4}, Radius: 6, MaxTangentialSpeed: 10, MaxUpdraft: 4}
	if err := z.SetParams(p); err != nil {
		t.Fatal(err)
	}

	pos, other := math.Vec3{2, 10, 0}, math.Vec3{5, 12, 3}
	for i := range 60 {
		w := z.Evaluate(pos, 0.05)
		clock, state := z.Clock(), z.dryden.State

		if s := z.Sample(pos); s != w {
			t.Fatalf("step %d: Sample(%v) = %v, Evaluate gave %v", i, pos, s, w)
		}
		a, b := z.Sample(other), z.Sample(other)
		if a != b {
			t.Fatalf("step %d: repeated Sample(%v) = %v, %v", i, other, a, b)
		}
		if z.Clock() != clock || z.dryden.State != state {
			t.Fatalf("step %d: Sample advanced the zone", i)
		}
	}

	if w := z.Sample(math.Vec3{100, 0, 0}); w != (math.Vec3{}) {
		t.Errorf("Sample outside the zone = %v, want zero", w)
	}
}

func TestZoneSampleDoesNotTrigger(t *testing.T) {
	z := makeZone(t, math.Vec3{0, 10, 0}, 50, 1)
	p := z.Params()
	p.GustFront = EventParams{Enabled: true, Center: math.Vec3{0, 10, 0}, Radius: 3, Strength: 6, Duration: 1}
	if err := z.SetParams(p); err != nil {
		t.Fatal(err)
	}

	z.Evaluate(math.Vec3{20, 10, 0}, 0.1)
	z.Sample(math.Vec3{0, 10, 0})
	if z.GustFrontActive() {
		t.Errorf("Sample inside the trigger radius started the gust front")
	}
	z.Evaluate(math.Vec3{0, 10, 0}, 0.1)
	if !z.GustFrontActive() {
		t.Errorf("Evaluate inside the trigger radius did not start the gust front")
	}
}
