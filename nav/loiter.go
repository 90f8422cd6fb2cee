// nav/loiter.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	"github.com/mmp/sailpilot/math"
)

// LoiterPhase is the state of the loiter pattern: after an approach to the
// centre, the vessel reaches back and forth between a point to port of the
// wind and a point to starboard of it.
type LoiterPhase int

const (
	LoiterNotLoitering LoiterPhase = iota
	LoiterApproach
	LoiterPortSide
	LoiterStarboardSide
)

func (p LoiterPhase) String() string {
	switch p {
	case LoiterNotLoitering:
		return "NotLoitering"
	case LoiterApproach:
		return "Approach"
	case LoiterPortSide:
		return "PortSide"
	case LoiterStarboardSide:
		return "StarboardSide"
	default:
		return fmt.Sprintf("LoiterPhase(%d)", int(p))
	}
}

type LoiterState struct {
	Center math.Point2LL
	Prev   math.Point2LL // where the current reach started
	Next   math.Point2LL // the current target
	Radius float32
	Phase  LoiterPhase

	BTW, DTW float32
	PastWP   bool
}

func (l *LoiterState) Loitering() bool {
	return l.Phase != LoiterNotLoitering
}

func (l *LoiterState) Reset() {
	*l = LoiterState{}
}

// sideTarget returns the reach target for the given phase: the point
// radius metres from the centre, 90 degrees to port or starboard of the
// true wind.
func (l *LoiterState) sideTarget(phase LoiterPhase, twd float32) math.Point2LL {
	if phase == LoiterPortSide {
		return math.Project(l.Center, math.Wrap360(twd-90), l.Radius)
	}
	return math.Project(l.Center, math.Wrap360(twd+90), l.Radius)
}

// BeginApproach arms the loiter pattern around center for a mission step;
// the vessel first sails from prev to the centre itself.
func (l *LoiterState) BeginApproach(center, prev math.Point2LL, radius float32) {
	*l = LoiterState{
		Center: center,
		Prev:   prev,
		Next:   center,
		Radius: radius,
		Phase:  LoiterApproach,
	}
}

// EnterLoiterHere starts loitering around the current location. A vessel
// on starboard tack starts with the port-side reach and vice versa so
// that the first leg needs no tack.
func (nav *Nav) EnterLoiterHere() {
	s, l := &nav.Snapshot, &nav.Loiter
	*l = LoiterState{
		Center: s.Location,
		Prev:   s.Location,
		Radius: nav.Config.LoiterRadius,
	}
	l.Phase = LoiterStarboardSide
	if s.AWA > 0 {
		l.Phase = LoiterPortSide
	}
	l.Next = l.sideTarget(l.Phase, s.TWD)

	s.Prev, s.Next, s.NextValid = l.Prev, l.Next, true
	NavLog(NavLogLoiter, "loiter here %s, first reach %s", l.Center, l.Phase)
}

// LoiterCTS returns the course to steer for the loiter pattern and flips
// to the opposite reach once the current target has been passed.
func (nav *Nav) LoiterCTS() float32 {
	s, l := &nav.Snapshot, &nav.Loiter
	if !s.LocationValid || !l.Loitering() {
		return nav.Course.CTS
	}

	l.BTW = math.Bearing(s.Location, l.Next)
	cts := nav.LimitToSailingCourse(l.BTW)
	l.DTW = math.DistanceM(s.Location, l.Next)
	l.PastWP = math.LocationPassedPoint(s.Location, l.Prev, l.Next)

	if l.PastWP {
		var ev EventKind
		switch l.Phase {
		case LoiterApproach, LoiterStarboardSide:
			l.Phase = LoiterPortSide
			nav.Maneuver.State = ManeuverCommenceToPort
			ev = EventTackToPort
		case LoiterPortSide:
			l.Phase = LoiterStarboardSide
			nav.Maneuver.State = ManeuverCommenceToStbd
			ev = EventTackToStarboard
		}

		l.PastWP = false
		l.Next = l.sideTarget(l.Phase, s.TWD)
		l.Prev = s.Location
		s.Next = l.Next

		NavLog(NavLogLoiter, "passed loiter point, now %s toward %s", l.Phase, l.Next)
		nav.emit(ev, ReasonPastLoiterBoundary, l.DTW, s.TWD)
	}

	return cts
}
