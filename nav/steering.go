// nav/steering.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"time"

	"github.com/mmp/sailpilot/math"
)

// pid is a positional PID controller with a fixed setpoint of zero. The
// integral term and the output are both clamped to the output range. A
// zero interval, as on the first fast tick, contributes no integral or
// derivative.
type pid struct {
	kp, ki, kd     float32
	outMin, outMax float32

	iTerm     float32
	lastInput float32
}

func newPID(cfg PIDConfig) pid {
	p := pid{
		kp:     cfg.Kp,
		ki:     cfg.Ki,
		kd:     cfg.Kd,
		outMin: cfg.OutputMin,
		outMax: cfg.OutputMax,
	}
	if cfg.Reverse {
		p.kp, p.ki, p.kd = -p.kp, -p.ki, -p.kd
	}
	return p
}

func (p *pid) compute(input float32, dt time.Duration) float32 {
	sec := float32(dt.Seconds())
	err := -input

	if sec > 0 {
		p.iTerm = math.Clamp(p.iTerm+p.ki*sec*err, p.outMin, p.outMax)
	}

	var dInput float32
	if sec > 0 {
		dInput = (input - p.lastInput) / sec
	}
	p.lastInput = input

	return math.Clamp(p.kp*err+p.iTerm-p.kd*dInput, p.outMin, p.outMax)
}

// SteeringState turns heading error into a servo command.
type SteeringState struct {
	pid    pid
	filter math.LowPassFilter
	centre float32

	DeadBand float32
	Error    float32 // last heading error, degrees
	Output   float32 // unfiltered command
	Filtered float32 // the command sent to the actuator
}

func (st *SteeringState) init(cfg Config) {
	st.pid = newPID(cfg.PID)
	st.centre = cfg.PID.Centre
	st.DeadBand = cfg.SteeringDeadBand
	st.filter = math.LowPassFilter{K: cfg.SteeringFilterConstant, Last: st.centre}
	st.Output, st.Filtered = st.centre, st.centre
}

// Step runs the control law for heading error err. Within the dead band
// the previous output is held so the rudder doesn't hunt about zero.
func (st *SteeringState) Step(err float32, dt time.Duration) float32 {
	st.Error = err
	if math.Abs(err) > st.DeadBand {
		st.Output = st.centre + st.pid.compute(err, dt)
	}
	st.Filtered = st.filter.Filter(st.Output)
	return st.Filtered
}

// Hold keeps the previous output.
func (st *SteeringState) Hold() float32 {
	st.Filtered = st.filter.Filter(st.Output)
	return st.Filtered
}

// steeringEnabled reports whether the current mode has what it needs to
// steer: a position and somewhere to go.
func (nav *Nav) steeringEnabled() bool {
	s := &nav.Snapshot
	switch nav.Command.State {
	case CommandFollowMission:
		return s.LocationValid && s.NextValid
	case CommandLoiter:
		return s.LocationValid && nav.Loiter.Loitering()
	case CommandReturnToHome:
		return s.LocationValid && nav.Command.HomeSet
	case CommandSteerMagneticCourse, CommandSteerWindCourse:
		return true
	default:
		return false
	}
}

func (nav *Nav) steer(dt time.Duration) float32 {
	st := &nav.Steering
	if !nav.steeringEnabled() {
		return st.Hold()
	}
	// Positive when the target is to port of the heading.
	err := math.HeadingSignedTurn(nav.Course.TargetHeading, nav.Snapshot.HDG)
	out := st.Step(err, dt)
	NavLog(NavLogSteering, "hdg %.0f target %.0f err %.1f out %.0f", nav.Snapshot.HDG,
		nav.Course.TargetHeading, err, out)
	return out
}
