// rand/rand.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	gomath "math"

	"github.com/MichaelTJones/pcg"
)

///////////////////////////////////////////////////////////////////////////
// Random numbers.

// Rand is a small seedable generator. Every stochastic element of the wind
// field draws from its own Rand so that runs are reproducible for a given
// seed.
type Rand struct {
	r *pcg.PCG32

	// Box-Muller produces normal variates in pairs; the second one is
	// held here for the next call.
	haveSpare bool
	spare     float64
}

const pcgSequence = 0xda3e39cb94b95bdb

// MakeSeeded returns a generator seeded with s.
func MakeSeeded(s uint64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(s)
	return r
}

func (r *Rand) Seed(s uint64) {
	r.r.Seed(s, pcgSequence)
	r.haveSpare = false
	r.spare = 0
}

// Float64 returns a uniform value in [0,1).
func (r *Rand) Float64() float64 {
	hi, lo := uint64(r.r.Random()), uint64(r.r.Random())
	return float64(hi<<21|lo>>11) / (1 << 53)
}

// NormFloat64 returns a standard normal variate, N(0,1), via the
// Box-Muller transform.
func (r *Rand) NormFloat64() float64 {
	if r.haveSpare {
		r.haveSpare = false
		return r.spare
	}

	u1 := 1 - r.Float64() // (0,1], so the log is finite
	u2 := r.Float64()
	mag := gomath.Sqrt(-2 * gomath.Log(u1))
	s, c := gomath.Sincos(2 * gomath.Pi * u2)

	r.spare = mag * s
	r.haveSpare = true
	return mag * c
}
