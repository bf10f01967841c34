// math/vec3.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	"log/slog"
	gomath "math"
)

///////////////////////////////////////////////////////////////////////////
// Vec3

// Vec3 is a point or vector in the simulation frame, in meters (or m/s,
// m/s^2 as appropriate). The frame is right-handed with Y up: the
// horizontal plane is X-Z.
type Vec3 [3]float64

// Up is the index of the vertical component of a Vec3.
const Up = 1

// Various useful functions for arithmetic with 3D points/vectors.
// Names are brief in order to avoid clutter when they're used.

// a+b
func Add3(a, b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// a-b
func Sub3(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// a*s
func Scale3(a Vec3, s float64) Vec3 {
	return Vec3{s * a[0], s * a[1], s * a[2]}
}

func Dot3(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Length of v
func Length3(v Vec3) float64 {
	return gomath.Sqrt(Dot3(v, v))
}

// Distance between two points
func Distance3(a, b Vec3) float64 {
	return Length3(Sub3(a, b))
}

// Normalize3 returns v scaled to unit length; the zero vector is returned
// unchanged.
func Normalize3(v Vec3) Vec3 {
	l := Length3(v)
	if l == 0 {
		return Vec3{}
	}
	return Scale3(v, 1/l)
}

// ClampLength3 returns v if its length is at most limit and otherwise v
// scaled so that its length is limit.
func ClampLength3(v Vec3, limit float64) Vec3 {
	if l := Length3(v); l > limit {
		return Scale3(v, limit/l)
	}
	return v
}

// Horizontal3 returns v with its vertical component zeroed.
func Horizontal3(v Vec3) Vec3 {
	v[Up] = 0
	return v
}

// Vertical3 returns a vector of length s along the up axis.
func Vertical3(s float64) Vec3 {
	var v Vec3
	v[Up] = s
	return v
}

func (v Vec3) String() string {
	return fmt.Sprintf("[%.2f, %.2f, %.2f]", v[0], v[1], v[2])
}

func (v Vec3) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("x", v[0]),
		slog.Float64("y", v[1]),
		slog.Float64("z", v[2]))
}
