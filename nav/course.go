// nav/course.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"time"

	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/util"
)

// CourseType describes how the current course to steer was chosen.
type CourseType int

const (
	CourseNotEstablished CourseType = iota
	CourseDirectToWaypoint
	CoursePortTack
	CourseStarboardTack
	CoursePortTackRunning
	CourseStarboardTackRunning
)

func (ct CourseType) String() string {
	switch ct {
	case CourseNotEstablished:
		return "NotEstablished"
	case CourseDirectToWaypoint:
		return "DirectToWaypoint"
	case CoursePortTack:
		return "PortTack"
	case CourseStarboardTack:
		return "StarboardTack"
	case CoursePortTackRunning:
		return "PortTackRunning"
	case CourseStarboardTackRunning:
		return "StarboardTackRunning"
	default:
		return fmt.Sprintf("CourseType(%d)", int(ct))
	}
}

// PointOfSail classifies a wind angle into one of four quadrants.
type PointOfSail int

const (
	PortTackBeating PointOfSail = iota
	PortTackRunning
	StarboardTackBeating
	StarboardTackRunning
)

var pointOfSailNames = [...]string{"PortTackBeating", "PortTackRunning", "StarboardTackBeating",
	"StarboardTackRunning"}

func (p PointOfSail) String() string {
	if p < 0 || int(p) >= len(pointOfSailNames) {
		return fmt.Sprintf("PointOfSail(%d)", int(p))
	}
	return pointOfSailNames[p]
}

// GetPointOfSail classifies a wind angle off the bow. Angles <= 0 are port
// tack; a magnitude of exactly 90 counts as beating.
func GetPointOfSail(windAngle float32) PointOfSail {
	if windAngle <= 0 {
		return util.Select(-windAngle <= 90, PortTackBeating, PortTackRunning)
	}
	return util.Select(windAngle <= 90, StarboardTackBeating, StarboardTackRunning)
}

// Laylines are the compass courses closest to the wind (beating) and
// closest to dead downwind (running) that are sailable on each tack.
type Laylines struct {
	BeatPort      float32
	BeatStarboard float32
	RunPort       float32
	RunStarboard  float32
}

func ComputeLaylines(twd float32, cfg Config) Laylines {
	return Laylines{
		BeatPort:      math.Wrap360(twd + cfg.MinimumAngleUpWind),
		BeatStarboard: math.Wrap360(twd - cfg.MinimumAngleUpWind),
		RunPort:       math.Wrap360(twd + 180 - cfg.MinimumAngleDownWind),
		RunStarboard:  math.Wrap360(twd + 180 + cfg.MinimumAngleDownWind),
	}
}

// CourseDecision is the output of the course selector and the maneuver
// sequencer.
type CourseDecision struct {
	CTS              float32 // course to steer
	CourseType       CourseType
	FavouredTack     CourseType
	TurnHeading      float32 // CTS, refined during a maneuver
	TargetHeading    float32 // TurnHeading after the low-pass filter
	PastBoundaryHold bool
	TackDuration     time.Duration

	targetFilter math.LowPassAngleFilter
}

// PredictedAWA returns the apparent wind angle the vessel would see on the
// given course, approximating apparent wind by true wind. Positive values
// are starboard tack.
func PredictedAWA(course, twd float32) float32 {
	return math.Wrap180(twd - course)
}

const maxCTECorrection = 45

// CTECorrection returns the steering correction in degrees for a given
// cross-track error; like the CTE it is positive to starboard.
func CTECorrection(cte, maxCTE, gain float32) float32 {
	if maxCTE == 0 {
		return 0
	}
	return math.Clamp(cte/maxCTE*gain, -maxCTECorrection, maxCTECorrection)
}

// IsBTWSailable reports whether the bearing to the waypoint can be laid
// directly. The upwind margin is halved once the vessel is outside the
// leg boundary, which makes it easier to head back toward the mark.
func IsBTWSailable(windAngleToWaypoint, cte, maxCTE float32, cfg Config) bool {
	margin := cfg.SailableAngleMargin
	if math.Abs(cte) > maxCTE {
		margin *= 0.5
	}
	a := math.Abs(windAngleToWaypoint)
	return a >= cfg.MinimumAngleUpWind+margin && a <= 180-cfg.MinimumAngleDownWind
}

// FavouredTack returns the tack category closest to the bearing to the
// waypoint.
func FavouredTack(windAngleToWaypoint float32) CourseType {
	switch GetPointOfSail(windAngleToWaypoint) {
	case PortTackBeating:
		return CoursePortTack
	case PortTackRunning:
		return CoursePortTackRunning
	case StarboardTackBeating:
		return CourseStarboardTack
	default:
		return CourseStarboardTackRunning
	}
}

// Slack for float rounding so that a layline always tests as sailable.
const angleEpsilon = 1e-3

func isCourseSailable(course, twd float32, cfg Config) bool {
	a := math.Abs(PredictedAWA(course, twd))
	return a >= cfg.MinimumAngleUpWind-angleEpsilon && a <= 180-cfg.MinimumAngleDownWind+angleEpsilon
}

// limitToSailingCourse returns course if it is sailable and otherwise the
// layline for the vessel's current point of sail, along with the tack
// event to record for the substitution.
func limitToSailingCourse(course, twd float32, pos PointOfSail, ll Laylines, cfg Config) (float32, EventKind, bool) {
	if isCourseSailable(course, twd, cfg) {
		return course, EventNone, false
	}
	switch pos {
	case PortTackBeating:
		return ll.BeatPort, EventTackToPort, true
	case StarboardTackBeating:
		return ll.BeatStarboard, EventTackToStarboard, true
	case PortTackRunning:
		return ll.RunPort, EventTackToPortRunning, true
	default:
		return ll.RunStarboard, EventTackToStarboardRunning, true
	}
}

// LimitToSailingCourse clamps course onto a layline when it points into the
// no-go zone upwind or too close to dead downwind.
func (nav *Nav) LimitToSailingCourse(course float32) float32 {
	limited, ev, clamped := limitToSailingCourse(course, nav.Snapshot.TWD, nav.Leg.PointOfSail,
		nav.Leg.Laylines, nav.Config)
	if clamped {
		NavLog(NavLogCourse, "limit %.0f -> %.0f (%s)", course, limited, nav.Leg.PointOfSail)
		nav.emit(ev, ReasonLimitToSailingCourse, course, limited)
	}
	return limited
}

// steerCloseHauled returns the course that puts the apparent wind at the
// minimum upwind angle on the given tack.
func (nav *Nav) steerCloseHauled(ct CourseType) float32 {
	s, up := &nav.Snapshot, nav.Config.MinimumAngleUpWind
	if ct == CoursePortTack {
		return math.Wrap360(s.HDG + (s.AWA + up))
	}
	return math.Wrap360(s.HDG + (s.AWA - up))
}

// steerDeepRunning returns the course that puts the apparent wind at the
// minimum downwind angle off dead downwind on the given tack.
func (nav *Nav) steerDeepRunning(ct CourseType) float32 {
	s, down := &nav.Snapshot, nav.Config.MinimumAngleDownWind
	if ct == CoursePortTackRunning {
		return math.Wrap360(s.HDG + (s.AWA - down + 180))
	}
	return math.Wrap360(s.HDG + (s.AWA + down - 180))
}

// setTack records ct as the course type and returns its course. Holding
// the current tack is reported with ReasonNoChange and is not logged.
func (nav *Nav) setTack(ct CourseType, reason EventReason) float32 {
	c := &nav.Course
	c.CourseType = ct

	var cts float32
	switch ct {
	case CoursePortTack, CourseStarboardTack:
		cts = nav.steerCloseHauled(ct)
	case CoursePortTackRunning, CourseStarboardTackRunning:
		cts = nav.steerDeepRunning(ct)
	default:
		cts = nav.Leg.BTW
	}

	if reason != ReasonNoChange {
		NavLog(NavLogCourse, "tack %s (%s) cts %.0f", ct, reason, cts)
		nav.emit(tackEvent(ct), reason, cts, nav.Leg.CTE)
	}
	return cts
}

// boundaryTack switches to ct because the vessel has crossed the leg
// boundary.
func (nav *Nav) boundaryTack(ct CourseType) float32 {
	cts := nav.setTack(ct, ReasonPastBoundary)
	nav.Course.TackDuration = 0
	nav.Course.PastBoundaryHold = true
	return cts
}

// A tack is reselected for this long after a mission step or command
// starts.
const favouredTackWindow = 8 * time.Second

// CalculateSailingCTS decides the course to steer toward the next
// waypoint: directly if it can be laid, otherwise on a held tack that is
// switched whenever the vessel crosses the leg boundary.
func (nav *Nav) CalculateSailingCTS() float32 {
	leg, c := &nav.Leg, &nav.Course

	if leg.IsBTWSailable && !c.PastBoundaryHold {
		c.CourseType = CourseDirectToWaypoint
		// Steer back toward the rhumb line.
		return math.Wrap360(leg.BTW - leg.CTECorrection)
	}

	cts := c.CTS
	if c.CourseType == CourseDirectToWaypoint || c.CourseType == CourseNotEstablished ||
		nav.now()-nav.stepStart() < favouredTackWindow {
		cts = nav.setTack(c.FavouredTack, ReasonFavouredTack)
		c.TackDuration = 0
	}

	cte, maxCTE := leg.CTE, nav.Snapshot.MaxCTE
	switch c.CourseType {
	case CoursePortTack:
		if cte > maxCTE {
			nav.Maneuver.State = ManeuverCommenceToStbd
			cts = nav.boundaryTack(CourseStarboardTack)
		} else {
			cts = nav.setTack(CoursePortTack, ReasonNoChange)
		}

	case CourseStarboardTack:
		if -cte > maxCTE {
			nav.Maneuver.State = ManeuverCommenceToPort
			cts = nav.boundaryTack(CoursePortTack)
		} else {
			cts = nav.setTack(CourseStarboardTack, ReasonNoChange)
		}

	case CoursePortTackRunning:
		// Running tacks gybe on their own as the course swings through
		// dead downwind, so no maneuver is armed here.
		if -cte > maxCTE {
			cts = nav.boundaryTack(CourseStarboardTackRunning)
		} else {
			cts = nav.setTack(CoursePortTackRunning, ReasonNoChange)
		}

	case CourseStarboardTackRunning:
		if cte > maxCTE {
			cts = nav.boundaryTack(CoursePortTackRunning)
		} else {
			cts = nav.setTack(CourseStarboardTackRunning, ReasonNoChange)
		}
	}

	return cts
}

// waypointCTS is used for GotoWaypoint and ReturnToHome mission steps.
// Close to the mark the bearing swings quickly, so inside the hold radius
// the current course is kept (limited to a sailable one).
func (nav *Nav) waypointCTS() float32 {
	holdRadius := math.Max(nav.Snapshot.MaxCTE/2, nav.Config.WPCourseHoldRadius)
	if nav.Leg.DTW < holdRadius {
		cts := nav.LimitToSailingCourse(nav.Course.CTS)
		nav.emit(EventHoldCourse, ReasonApproachingWP, nav.Leg.DTW, cts)
		return cts
	}
	return nav.CalculateSailingCTS()
}
