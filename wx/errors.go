// wx/errors.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import "errors"

var (
	ErrDuplicateZone        = errors.New("Duplicate wind zone name")
	ErrInvalidConfiguration = errors.New("Invalid wind zone configuration")
	ErrUnknownPreset        = errors.New("Unknown wind preset")
	ErrZoneNotFound         = errors.New("Wind zone not found")
)
