//go:build navlog

// nav/log_debug.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"strings"
)

// Navigation logging configuration
var (
	navlogEnabled    bool
	navlogCategories map[string]bool
	navlogVehicle    string // filter to only log this vehicle (empty = log all)
)

// InitNavLog initializes the navigation logging system
func InitNavLog(enabled bool, categories string, vehicle string) {
	navlogEnabled = enabled
	navlogCategories = make(map[string]bool)
	navlogVehicle = strings.TrimSpace(vehicle)

	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, cat := range allNavLogCategories {
			navlogCategories[cat] = true
		}
	} else {
		for cat := range strings.SplitSeq(categories, ",") {
			navlogCategories[strings.TrimSpace(cat)] = true
		}
	}
}

// NavLog logs a message with simulation time, vehicle, and category
func NavLog(vehicle string, simTime float64, category string, format string, args ...any) {
	if !navlogEnabled || !navlogCategories[category] {
		return
	}
	if navlogVehicle != "" && navlogVehicle != vehicle {
		return
	}

	// Format: [  12.345] [vehicle] [category] message
	message := fmt.Sprintf(format, args...)
	fmt.Printf("[%8.3f] [%s] [%s] %s\n", simTime, vehicle, category, message)
}

// NavLogEnabled returns whether navigation logging is enabled for a given category
func NavLogEnabled(category string) bool {
	return navlogEnabled && navlogCategories[category]
}
