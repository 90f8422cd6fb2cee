// nav/nav.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/math"
)

// Errors used by the nav package
var (
	ErrMissionFull = errors.New("Mission is full")
	ErrStepKind    = errors.New("unknown mission step kind")
)

// Sensors holds the filtered sensor values supplied by the acquisition
// layer before each tick.
type Sensors struct {
	Location      math.Point2LL
	LocationValid bool

	HDG float32 // true heading
	AWA float32 // apparent wind angle, (-180,180], + is starboard
	AWD float32 // apparent wind direction, compass
	TWD float32 // true wind direction, compass
	TWS float32 // true wind speed, knots
	COG float32
	SOG float32 // metres/second

	// Now is a monotonic clock, typically the time since boot.
	Now time.Duration
	// TimeOfDay is local wall-clock time; only hours and minutes are
	// used, by LoiterUntil mission steps.
	TimeOfDay time.Time
}

// Route is the leg the vessel is currently sailing. It is published by the
// mission and command logic and read by the course selector.
type Route struct {
	Prev, Next math.Point2LL
	NextValid  bool
	MaxCTE     float32 // leg half-width, metres
}

// NavigationSnapshot is everything the core knows about where the vessel
// is and where it is going.
type NavigationSnapshot struct {
	Sensors
	Route
}

func (s NavigationSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("location", s.Location),
		slog.Bool("location_valid", s.LocationValid),
		slog.Float64("hdg", float64(s.HDG)),
		slog.Float64("awa", float64(s.AWA)),
		slog.Float64("twd", float64(s.TWD)),
		slog.Any("next", s.Next),
		slog.Bool("next_valid", s.NextValid),
		slog.Float64("max_cte", float64(s.MaxCTE)),
	)
}

// Nav is the decision core's context: it owns every piece of state the
// components share and is passed by pointer into each tick. Collaborators
// (event sink, state persistence, servo output) are optional; nil ones
// are skipped.
type Nav struct {
	Config   Config
	Snapshot NavigationSnapshot
	Leg      Leg
	Course   CourseDecision
	Command  CommandState
	Mission  MissionState
	Loiter   LoiterState
	Maneuver ManeuverSequencer
	Steering SteeringState

	prevCommand CommandStateKind
	lastFast    time.Duration
	lastSlow    time.Duration
	primed      bool
	pending     eventQueue

	Sink     EventSink
	Saver    StateSaver
	Actuator Actuator

	lg *log.Logger
}

// StateSaver persists the command and mission state whenever the core
// changes them. Implementations must not block.
type StateSaver interface {
	Save(cmd CommandState, mission MissionState)
}

// Actuator receives the filtered steering command once per fast tick.
// Range limiting is the actuator's job.
type Actuator interface {
	Servo(cmd float32)
}

// Collaborators groups the optional external interfaces of the core.
type Collaborators struct {
	Sink     EventSink
	Saver    StateSaver
	Actuator Actuator
}

// NewNav returns a Nav initialised from persisted state. The first medium
// tick treats the restored command state as newly entered, so a vessel
// that rebooted while returning home republishes home, and so forth.
func NewNav(cfg Config, cmd CommandState, mission MissionState, c Collaborators, lg *log.Logger) *Nav {
	cfg.Validate(lg)

	nav := &Nav{
		Config:      cfg,
		Command:     cmd,
		Mission:     mission,
		prevCommand: CommandIdle,
		Sink:        c.Sink,
		Saver:       c.Saver,
		Actuator:    c.Actuator,
		lg:          lg,
	}
	nav.Snapshot.MaxCTE = cfg.DefaultMaxCTE
	nav.Steering.init(cfg)
	nav.Course.targetFilter = math.LowPassAngleFilter{K: cfg.TargetHeadingFilterConstant}

	lg.Info("nav initialised", slog.String("command_state", cmd.State.String()),
		slog.Int("mission_size", mission.Size), slog.Int("mission_index", mission.Index))

	return nav
}

// emit queues a decision event stamped with the current context; queued
// events are delivered to the sink at the end of the tick.
func (nav *Nav) emit(kind EventKind, reason EventReason, value, value2 float32) {
	e := DecisionEvent{
		Time:         nav.Snapshot.Now,
		MissionIndex: nav.Mission.Index,
		CommandState: nav.Command.State,
		Kind:         kind,
		Reason:       reason,
		Value:        value,
		Value2:       value2,
	}
	NavLog(NavLogEvent, "%s", e)
	nav.pending.push(e)
}

func (nav *Nav) flushEvents() {
	nav.pending.flush(nav.Sink)
}

func (nav *Nav) saveState() {
	if nav.Saver != nil {
		nav.Saver.Save(nav.Command, nav.Mission)
	}
}

// now returns the monotonic clock of the current snapshot.
func (nav *Nav) now() time.Duration {
	return nav.Snapshot.Now
}

// elapsedSeconds returns the whole seconds since start. Using a signed
// difference means a start time in the future (e.g. restored from before
// a reboot) reads as "not yet elapsed" rather than wrapping.
func elapsedSeconds(now, start time.Duration) int64 {
	return int64((now - start) / time.Second)
}
