// nav/mission.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mmp/sailpilot/math"
)

// MaxMissionSteps is the capacity of a mission.
const MaxMissionSteps = 30

type StepKind int

const (
	StepGotoWaypoint StepKind = iota
	StepLoiter
	StepLoiterUntil
	StepReturnToHome
	StepSteerWindCourse
)

func (k StepKind) String() string {
	switch k {
	case StepGotoWaypoint:
		return "GotoWaypoint"
	case StepLoiter:
		return "Loiter"
	case StepLoiterUntil:
		return "LoiterUntil"
	case StepReturnToHome:
		return "ReturnToHome"
	case StepSteerWindCourse:
		return "SteerWindCourse"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

func ParseStepKind(s string) (StepKind, error) {
	for k := StepGotoWaypoint; k <= StepSteerWindCourse; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrStepKind)
}

// MissionStep is a single mission command. Which fields are meaningful
// depends on Kind.
type MissionStep struct {
	Kind        StepKind
	Waypoint    math.Point2LL
	Boundary    float32 // leg half-width, or loiter radius, metres
	ControlMask uint8
	// Duration is in minutes for Loiter and SteerWindCourse; for
	// LoiterUntil it is the time of day in minutes past midnight.
	Duration     int
	SteerAWA     float32
	TrimTabAngle float32
}

func (s MissionStep) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", s.Kind.String()),
		slog.Any("waypoint", s.Waypoint),
		slog.Float64("boundary", float64(s.Boundary)),
		slog.Int("duration", s.Duration),
	)
}

// MissionState is the fixed-capacity list of mission steps and progress
// through it. Index == Size means the mission has finished.
type MissionState struct {
	Steps    [MaxMissionSteps]MissionStep
	Size     int
	Index    int
	Starting bool

	// StepStart is on the monotonic clock and is meaningless across a
	// reboot, so it is not persisted.
	StepStart time.Duration `msgpack:"-" json:"-"`
}

// EmptyMission returns a mission with no steps, ready to start from its
// first step once steps are appended.
func EmptyMission() MissionState {
	return MissionState{Starting: true}
}

// Append adds a step to the end of the mission.
func (m *MissionState) Append(s MissionStep) error {
	if m.Size >= MaxMissionSteps {
		return ErrMissionFull
	}
	m.Steps[m.Size] = s
	m.Size++
	return nil
}


// Rewind restarts the mission from its first step.
func (m *MissionState) Rewind() {
	m.Index = 0
	m.Starting = true
}

// Current returns the active step, if the mission hasn't finished.
func (m *MissionState) Current() (MissionStep, bool) {
	if m.Index < 0 || m.Index >= m.Size {
		return MissionStep{}, false
	}
	return m.Steps[m.Index], true
}

func (m *MissionState) Finished() bool {
	return m.Index >= m.Size
}

// stepStart returns when the current mission step or command began.
func (nav *Nav) stepStart() time.Duration {
	if nav.Command.State == CommandFollowMission {
		return nav.Mission.StepStart
	}
	return nav.Command.Start
}

// MissionTick advances the mission on the medium tick. It only runs
// while following a non-empty mission with a valid position.
func (nav *Nav) MissionTick() {
	m, s := &nav.Mission, &nav.Snapshot
	if nav.Command.State != CommandFollowMission || m.Size == 0 || !s.LocationValid {
		return
	}

	if m.Starting {
		m.Starting = false
		m.StepStart = nav.now()
		if !m.Finished() {
			nav.PublishStep()
			s.Prev = s.Location
		}
		nav.saveState()
		nav.lg.Info("mission started", slog.Int("size", m.Size), slog.Int("index", m.Index))
	}

	if m.Finished() {
		nav.endOfMission()
		return
	}

	if done, reason := nav.IsMissionStepComplete(); done {
		m.Index++
		m.StepStart = nav.now()
		NavLog(NavLogMission, "step complete (%s), index now %d", reason, m.Index)
		nav.emit(EventIncrementMissionIndex, reason, float32(m.Index), 0)

		if m.Finished() {
			nav.endOfMission()
		} else {
			nav.PublishStep()
		}
		nav.saveState()
	}
}

// IsMissionStepComplete applies the completion policy of the current
// step's kind.
func (nav *Nav) IsMissionStepComplete() (bool, EventReason) {
	step, ok := nav.Mission.Current()
	if !ok {
		return false, ReasonNone
	}
	s := &nav.Snapshot

	switch step.Kind {
	case StepGotoWaypoint, StepReturnToHome:
		if s.LocationValid && s.NextValid && math.WaypointPassed(s.Location, s.Prev, s.Next, s.MaxCTE) {
			return true, ReasonPastWaypoint
		}

	case StepLoiter, StepSteerWindCourse:
		if elapsedSeconds(nav.now(), nav.Mission.StepStart) >= int64(step.Duration)*60 {
			return true, ReasonPastDuration
		}

	case StepLoiterUntil:
		tod := s.TimeOfDay
		if tod.Hour()*60+tod.Minute() >= step.Duration {
			return true, ReasonPastTime
		}
	}
	return false, ReasonNone
}

// PublishStep publishes the route for the current mission step: the
// previous waypoint becomes the start of the new leg and the next is
// determined by the step's kind.
func (nav *Nav) PublishStep() {
	step, ok := nav.Mission.Current()
	if !ok {
		return
	}
	s, cfg := &nav.Snapshot, nav.Config

	if s.NextValid {
		s.Prev = s.Next
	} else {
		s.Prev = s.Location
	}

	boundary := step.Boundary
	if boundary <= 0 {
		boundary = cfg.DefaultMaxCTE
	}

	if step.Kind != StepLoiter && step.Kind != StepLoiterUntil {
		nav.Loiter.Reset()
	}

	switch step.Kind {
	case StepGotoWaypoint:
		s.Next, s.NextValid, s.MaxCTE = step.Waypoint, true, boundary

	case StepLoiter, StepLoiterUntil:
		radius := step.Boundary
		if radius <= 0 {
			radius = cfg.LoiterRadius
		}
		s.Next, s.NextValid, s.MaxCTE = step.Waypoint, true, radius
		nav.Loiter.BeginApproach(step.Waypoint, s.Prev, radius)

	case StepReturnToHome:
		s.Next, s.NextValid, s.MaxCTE = nav.Command.Home, nav.Command.HomeSet, boundary

	case StepSteerWindCourse:
		nav.Command.SteerWindAngle = step.SteerAWA
		s.NextValid = true
	}

	nav.Course.PastBoundaryHold = false
	NavLog(NavLogMission, "step %d %s next %s", nav.Mission.Index, step.Kind, s.Next)
	nav.emit(EventStartMissionStep, ReasonNone, float32(nav.Mission.Index), float32(step.Kind))
}

// endOfMission falls back to returning home, or to loitering where the
// vessel is if there's no home to go to.
func (nav *Nav) endOfMission() {
	state := CommandLoiter
	if nav.Command.HomeSet {
		state = CommandReturnToHome
	}

	nav.lg.Info("end of mission", slog.String("fallback", state.String()))
	nav.emit(EventEndOfMission, ReasonNone, float32(nav.Mission.Index), 0)
	nav.changeCommand(state, ReasonNone)
}
