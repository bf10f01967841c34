// nav/host.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"

	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/wx"
)

var ErrNoPoseSource = errors.New("Host does not provide vehicle poses")

// Host is the environment a vehicle is embedded in, e.g. a 3D scene. It
// may supply the vehicle's true position, be told where the vehicle is,
// and observe wind zone changes. All of its methods are advisory: the
// controller keeps flying on its own integrated state if they fail.
type Host interface {
	// VehiclePose returns the vehicle's position as the host sees it.
	VehiclePose() (math.Vec3, error)
	// SetVehiclePose moves the host's representation of the vehicle.
	SetVehiclePose(pos math.Vec3) error

	wx.ZoneObserver
}

// NullHost is a Host with no scene behind it.
type NullHost struct{}

var _ Host = NullHost{}

func (NullHost) VehiclePose() (math.Vec3, error)   { return math.Vec3{}, ErrNoPoseSource }
func (NullHost) SetVehiclePose(math.Vec3) error    { return nil }
func (NullHost) ZoneUpdated(string, wx.ZoneParams) {}
