// nav/config.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"log/slog"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/math"
)

// ManeuverMethod selects how the vessel changes tack.
type ManeuverMethod int

const (
	ManeuverNotDefined ManeuverMethod = iota
	ManeuverTack
	ManeuverGybe
)

func (m ManeuverMethod) String() string {
	switch m {
	case ManeuverTack:
		return "Tack"
	case ManeuverGybe:
		return "Gybe"
	default:
		return "NotDefined"
	}
}

// PIDConfig holds the steering control law tunings. Output limits are
// relative to Centre.
type PIDConfig struct {
	Kp, Ki, Kd float32
	OutputMin  float32
	OutputMax  float32
	Reverse    bool
	Centre     float32 // servo command for a centred rudder, microseconds
}

// Config holds the tunable parameters the core reads every tick. It is
// loaded and saved by the persistence collaborator and treated as
// immutable while a tick runs.
type Config struct {
	ManeuverMethod ManeuverMethod `json:"maneuver_method"`

	MinimumAngleUpWind   float32 `json:"minimum_angle_upwind"`   // degrees off the true wind
	MinimumAngleDownWind float32 `json:"minimum_angle_downwind"` // degrees off dead downwind
	SailableAngleMargin  float32 `json:"sailable_angle_margin"`

	WPCourseHoldRadius float32 `json:"wp_course_hold_radius"` // metres
	DefaultMaxCTE      float32 `json:"default_max_cte"`       // metres
	LoiterRadius       float32 `json:"loiter_radius"`         // metres
	CTECorrectionGain  float32 `json:"cte_correction_gain"`   // degrees at the boundary

	// Seconds without a manual command before a manual steering mode
	// gives up and returns home.
	RTHTimeManualControl int `json:"rth_time_manual_control"`

	TargetHeadingFilterConstant float32 `json:"target_heading_filter_constant"`

	PID                    PIDConfig `json:"pid"`
	SteeringFilterConstant float32   `json:"steering_filter_constant"`
	SteeringDeadBand       float32   `json:"steering_dead_band"` // degrees of heading error
}

func DefaultConfig() Config {
	return Config{
		ManeuverMethod:              ManeuverGybe,
		MinimumAngleUpWind:          35,
		MinimumAngleDownWind:        20,
		SailableAngleMargin:         25,
		WPCourseHoldRadius:          10,
		DefaultMaxCTE:               20,
		LoiterRadius:                15,
		CTECorrectionGain:           20,
		RTHTimeManualControl:        300,
		TargetHeadingFilterConstant: 0.02,
		PID: PIDConfig{
			Kp:        8,
			OutputMin: -400,
			OutputMax: 400,
			Reverse:   true,
			Centre:    1500,
		},
		SteeringFilterConstant: 0.15,
		SteeringDeadBand:       2,
	}
}

// Validate pulls values that would make the control laws meaningless back
// into range. Everything else is trusted.
func (c *Config) Validate(lg *log.Logger) {
	fixAngle := func(name string, v *float32, hi float32) {
		if *v < 0 || *v > hi {
			nv := math.Clamp(*v, 0, hi)
			lg.Warn("config value out of range", slog.String("name", name),
				slog.Float64("value", float64(*v)), slog.Float64("using", float64(nv)))
			*v = nv
		}
	}
	fixAngle("minimum_angle_upwind", &c.MinimumAngleUpWind, 90)
	fixAngle("minimum_angle_downwind", &c.MinimumAngleDownWind, 90)
	fixAngle("sailable_angle_margin", &c.SailableAngleMargin, 90)
	fixAngle("steering_dead_band", &c.SteeringDeadBand, 45)

	fixFilter := func(name string, v *float32) {
		if *v <= 0 || *v > 1 {
			lg.Warn("filter constant out of range", slog.String("name", name),
				slog.Float64("value", float64(*v)))
			*v = math.Clamp(*v, 0.001, 1)
		}
	}
	fixFilter("target_heading_filter_constant", &c.TargetHeadingFilterConstant)
	fixFilter("steering_filter_constant", &c.SteeringFilterConstant)

	if c.PID.OutputMin > c.PID.OutputMax {
		lg.Warnf("pid output range [%f,%f] is inverted", c.PID.OutputMin, c.PID.OutputMax)
		c.PID.OutputMin, c.PID.OutputMax = c.PID.OutputMax, c.PID.OutputMin
	}
	if c.ManeuverMethod != ManeuverTack && c.ManeuverMethod != ManeuverGybe {
		c.ManeuverMethod = ManeuverGybe
	}
}
