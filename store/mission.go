// store/mission.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"fmt"
	"io"
	"time"

	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/nav"
	"github.com/mmp/sailpilot/util"
)

// missionFile is the JSON form of a mission, e.g.:
//
//	{"steps": [
//	  {"kind": "GotoWaypoint", "waypoint": "N050.20.24.000,W004.09.00.000", "boundary": 30},
//	  {"kind": "LoiterUntil", "waypoint": "50.34, -4.15", "until": "14:30"},
//	  {"kind": "ReturnToHome"}
//	]}
type missionFile struct {
	Steps []missionStepJSON `json:"steps"`
}

type missionStepJSON struct {
	Kind         string        `json:"kind"`
	Waypoint     math.Point2LL `json:"waypoint"`
	Boundary     float32       `json:"boundary"`
	ControlMask  uint8         `json:"control_mask"`
	Minutes      int           `json:"minutes"`
	Until        string        `json:"until"` // HH:MM, LoiterUntil only
	SteerAWA     float32       `json:"steer_awa"`
	TrimTabAngle float32       `json:"trim_tab_angle"`
}

// LoadMission parses a JSON mission. The returned mission is rewound and
// will start from its first step.
func LoadMission(r io.Reader) (nav.MissionState, error) {
	var mf missionFile
	if err := util.UnmarshalJSON(r, &mf); err != nil {
		return nav.MissionState{}, err
	}

	if len(mf.Steps) > nav.MaxMissionSteps {
		return nav.MissionState{}, fmt.Errorf("%d steps, at most %d are allowed: %w", len(mf.Steps),
			nav.MaxMissionSteps, ErrInvalidMission)
	}

	m := nav.EmptyMission()
	for i, sj := range mf.Steps {
		step, err := sj.step()
		if err != nil {
			return nav.MissionState{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := m.Append(step); err != nil {
			return nav.MissionState{}, err
		}
	}
	return m, nil
}

func (sj missionStepJSON) step() (nav.MissionStep, error) {
	kind, err := nav.ParseStepKind(sj.Kind)
	if err != nil {
		return nav.MissionStep{}, fmt.Errorf("%w: %w", err, ErrInvalidMission)
	}

	step := nav.MissionStep{
		Kind:         kind,
		Waypoint:     sj.Waypoint,
		Boundary:     sj.Boundary,
		ControlMask:  sj.ControlMask,
		Duration:     sj.Minutes,
		SteerAWA:     math.Wrap180(sj.SteerAWA),
		TrimTabAngle: sj.TrimTabAngle,
	}
	if step.Boundary < 0 {
		return step, fmt.Errorf("negative boundary: %w", ErrInvalidMission)
	}

	switch kind {
	case nav.StepGotoWaypoint, nav.StepLoiter, nav.StepLoiterUntil:
		if sj.Waypoint.IsZero() {
			return step, fmt.Errorf("%s needs a waypoint: %w", kind, ErrInvalidMission)
		}
	}

	switch kind {
	case nav.StepLoiter, nav.StepSteerWindCourse:
		if sj.Minutes <= 0 {
			return step, fmt.Errorf("%s needs a duration in minutes: %w", kind, ErrInvalidMission)
		}
	case nav.StepLoiterUntil:
		t, err := time.Parse("15:04", sj.Until)
		if err != nil {
			return step, fmt.Errorf("%q: invalid time of day: %w", sj.Until, ErrInvalidMission)
		}
		step.Duration = t.Hour()*60 + t.Minute()
	}

	return step, nil
}
