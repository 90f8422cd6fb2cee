// nav/autopilot.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"time"

	"github.com/mmp/sailpilot/math"
)

// The rates at which the scheduler is expected to call the three ticks.
const (
	FastTickInterval   = 50 * time.Millisecond
	MediumTickInterval = time.Second
	SlowTickInterval   = 5 * time.Second
)

// update installs the latest sensor values. The first update primes the
// course outputs with the current heading so that nothing steers toward
// north before the course selector has run.
func (nav *Nav) update(s Sensors) {
	nav.Snapshot.Sensors = s
	if !nav.primed {
		nav.primed = true
		nav.lastFast, nav.lastSlow = s.Now, s.Now
		c := &nav.Course
		c.CTS, c.TurnHeading, c.TargetHeading = s.HDG, s.HDG, s.HDG
		c.targetFilter.Reset(s.HDG)
		nav.Maneuver.prevCTS = s.HDG
	}
}

// FastTick filters the turn heading into the target heading and runs the
// steering stage. It returns the command sent to the actuator.
func (nav *Nav) FastTick(s Sensors) float32 {
	nav.update(s)
	dt := s.Now - nav.lastFast
	nav.lastFast = s.Now

	c := &nav.Course
	c.TargetHeading = c.targetFilter.Filter(c.TurnHeading)

	out := nav.steer(dt)
	if nav.Actuator != nil {
		nav.Actuator.Servo(out)
	}
	nav.flushEvents()
	return out
}

// MediumTick runs the command state machine, mission progression and
// the maneuver sequencer.
func (nav *Nav) MediumTick(s Sensors) {
	nav.update(s)
	nav.CommandTick()
	nav.MissionTick()
	nav.UpdateTurnHeading()
	nav.flushEvents()
}

// SlowTick recomputes the leg geometry and the course to steer.
func (nav *Nav) SlowTick(s Sensors) {
	nav.update(s)
	nav.Course.TackDuration += s.Now - nav.lastSlow
	nav.lastSlow = s.Now

	nav.UpdateLeg()
	nav.UpdateCourseToSteer()
	nav.flushEvents()
}

// UpdateCourseToSteer picks the course selector for the current mode and
// mission step. Modes with nothing to steer toward leave CTS unchanged.
func (nav *Nav) UpdateCourseToSteer() {
	c, s := &nav.Course, &nav.Snapshot

	steerWind := func() float32 {
		return math.Wrap360(s.HDG + s.AWA - nav.Command.SteerWindAngle)
	}

	switch nav.Command.State {
	case CommandFollowMission:
		step, ok := nav.Mission.Current()
		if !ok || !s.LocationValid {
			return
		}
		switch step.Kind {
		case StepLoiter, StepLoiterUntil:
			c.CTS = nav.LoiterCTS()
		case StepGotoWaypoint, StepReturnToHome:
			if nav.Leg.Valid {
				c.CTS = nav.waypointCTS()
			}
		case StepSteerWindCourse:
			c.CTS = steerWind()
		}

	case CommandSteerWindCourse:
		c.CTS = steerWind()

	case CommandReturnToHome:
		if nav.Leg.Valid {
			c.CTS = nav.CalculateSailingCTS()
		}

	case CommandLoiter:
		c.CTS = nav.LoiterCTS()

	case CommandSteerMagneticCourse:
		c.CTS = nav.Command.SteerCompassBearing
	}

	NavLog(NavLogCourse, "%s cts %.0f type %s", nav.Command.State, c.CTS, c.CourseType)
}
