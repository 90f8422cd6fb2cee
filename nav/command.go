// nav/command.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mmp/sailpilot/math"
)

// CommandStateKind is the vessel's top-level operating mode.
type CommandStateKind int

const (
	CommandIdle CommandStateKind = iota
	CommandFollowMission
	CommandSteerMagneticCourse
	CommandSteerWindCourse
	CommandReturnToHome
	CommandSetHome
	CommandResetMissionIndex
	CommandLoiter
)

var commandStateNames = [...]string{"Idle", "FollowMission", "SteerMagneticCourse", "SteerWindCourse",
	"ReturnToHome", "SetHome", "ResetMissionIndex", "Loiter"}

func (k CommandStateKind) String() string {
	if k < 0 || int(k) >= len(commandStateNames) {
		return fmt.Sprintf("CommandStateKind(%d)", int(k))
	}
	return commandStateNames[k]
}

func ParseCommandStateKind(s string) (CommandStateKind, error) {
	for i, n := range commandStateNames {
		if n == s {
			return CommandStateKind(i), nil
		}
	}
	return CommandIdle, fmt.Errorf("%s: unknown command state", s)
}

type CommandState struct {
	State   CommandStateKind
	Home    math.Point2LL
	HomeSet bool

	// Targets for the manual steering modes.
	SteerCompassBearing float32
	SteerWindAngle      float32

	// Start is when State was entered, on the monotonic clock.
	Start time.Duration `msgpack:"-" json:"-"`
}

func (c CommandState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("state", c.State.String()),
		slog.Any("home", c.Home),
		slog.Bool("home_set", c.HomeSet),
		slog.Float64("steer_compass_bearing", float64(c.SteerCompassBearing)),
		slog.Float64("steer_wind_angle", float64(c.SteerWindAngle)),
	)
}

// SetCommand is used by command input layers to change the operating
// mode. The change takes effect on the next medium tick.
func (nav *Nav) SetCommand(state CommandStateKind) {
	nav.Command.State = state
}

// SteerMagneticCourse switches to manual compass steering.
func (nav *Nav) SteerMagneticCourse(bearing float32) {
	nav.Command.SteerCompassBearing = math.NormalizeHeading(bearing)
	nav.Command.State = CommandSteerMagneticCourse
	// A new target restarts the manual control timeout.
	nav.Command.Start = nav.now()
}

// SteerWindCourse switches to steering a constant apparent wind angle.
func (nav *Nav) SteerWindCourse(awa float32) {
	nav.Command.SteerWindAngle = math.Wrap180(awa)
	nav.Command.State = CommandSteerWindCourse
	nav.Command.Start = nav.now()
}

// needsLocation reports whether entering state uses the current position.
func needsLocation(state CommandStateKind) bool {
	return state == CommandSetHome || state == CommandLoiter || state == CommandReturnToHome
}

// CommandTick runs the command state machine on the medium tick: entry
// actions run once when the state changes, and the manual control
// failsafe is checked every tick. Entry to a state that needs a position
// waits until the location is valid.
func (nav *Nav) CommandTick() {
	c := &nav.Command
	if c.State != nav.prevCommand && (nav.Snapshot.LocationValid || !needsLocation(c.State)) {
		nav.onCommandChange(ReasonManualIntervention)
	}
	nav.checkFailsafe()
}

// changeCommand is used when the core itself changes the mode.
func (nav *Nav) changeCommand(state CommandStateKind, reason EventReason) {
	nav.Command.State = state
	nav.onCommandChange(reason)
}

func (nav *Nav) onCommandChange(reason EventReason) {
	c, s := &nav.Command, &nav.Snapshot
	from := nav.prevCommand
	nav.prevCommand = c.State
	c.Start = nav.now()

	if from == CommandLoiter {
		nav.Loiter.Reset()
	}

	var value float32
	switch c.State {
	case CommandResetMissionIndex:
		nav.Mission.Rewind()

	case CommandSetHome:
		c.Home, c.HomeSet = s.Location, true
		nav.lg.Info("home set", slog.Any("home", c.Home))

	case CommandLoiter:
		nav.EnterLoiterHere()
		value = nav.Loiter.Radius

	case CommandReturnToHome:
		if c.HomeSet {
			s.Prev, s.Next, s.NextValid = s.Location, c.Home, true
			s.MaxCTE = nav.Config.DefaultMaxCTE
			nav.Course.PastBoundaryHold = false
			value = math.DistanceM(s.Location, c.Home)
		} else {
			nav.lg.Warn("return to home without a home location")
		}

	case CommandSteerMagneticCourse:
		value = c.SteerCompassBearing

	case CommandSteerWindCourse:
		value = c.SteerWindAngle

	case CommandFollowMission:
		nav.Mission.StepStart = c.Start
		// Resume the current step, e.g. after a reboot.
		if !nav.Mission.Starting && !nav.Mission.Finished() {
			nav.PublishStep()
		}
	}

	NavLog(NavLogCommand, "%s -> %s (%s) value %.1f", from, c.State, reason, value)
	nav.lg.Info("command state change", slog.String("from", from.String()),
		slog.String("to", c.State.String()), slog.String("reason", reason.String()))
	nav.emit(EventChangeCommandState, reason, float32(c.State), value)
	nav.saveState()
}

// checkFailsafe returns home when a manual steering mode has gone without
// a command for too long.
func (nav *Nav) checkFailsafe() {
	c := &nav.Command
	if c.State != CommandSteerMagneticCourse && c.State != CommandSteerWindCourse {
		return
	}
	if !c.HomeSet || !nav.Snapshot.LocationValid {
		return
	}
	if elapsedSeconds(nav.now(), c.Start) >= int64(nav.Config.RTHTimeManualControl) {
		nav.lg.Warn("manual control timed out, returning home",
			slog.Int("timeout_s", nav.Config.RTHTimeManualControl))
		nav.changeCommand(CommandReturnToHome, ReasonPastTime)
	}
}
