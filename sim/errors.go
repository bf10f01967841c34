// sim/errors.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrBadRecording    = errors.New("Malformed flight recording")
	ErrInvalidScenario = errors.New("Invalid scenario")
	ErrMissionTimeout  = errors.New("Mission did not complete in the allotted ticks")
	ErrNoWaypoints     = errors.New("Mission has no waypoints")
)
