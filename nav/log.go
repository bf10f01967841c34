// nav/log.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

// Available logging categories
const (
	NavLogState   = "state"
	NavLogControl = "control"
	NavLogWind    = "wind"
	NavLogHost    = "host"
)

var allNavLogCategories = []string{NavLogState, NavLogControl, NavLogWind, NavLogHost}
