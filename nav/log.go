// nav/log.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

// Available logging categories
const (
	NavLogCourse   = "course"
	NavLogLoiter   = "loiter"
	NavLogManeuver = "maneuver"
	NavLogMission  = "mission"
	NavLogCommand  = "command"
	NavLogSteering = "steering"
	NavLogEvent    = "event"
)

var allNavLogCategories = []string{NavLogCourse, NavLogLoiter, NavLogManeuver, NavLogMission,
	NavLogCommand, NavLogSteering, NavLogEvent}
