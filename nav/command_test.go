// nav/command_test.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"testing"
	"time"

	"github.com/mmp/sailpilot/math"
)

func TestCommandStateNames(t *testing.T) {
	for k := CommandIdle; k <= CommandLoiter; k++ {
		if pk, err := ParseCommandStateKind(k.String()); err != nil || pk != k {
			t.Errorf("%s: got %s, %v", k, pk, err)
		}
	}
	if s := CommandStateKind(42).String(); s != "CommandStateKind(42)" {
		t.Errorf("got %q", s)
	}
}

func TestCommandEdgeTriggered(t *testing.T) {
	nav, sink := makeTestNav(t)
	s := testSensors(time.Second)

	nav.SetCommand(CommandSetHome)
	for range 5 {
		nav.MediumTick(s)
		s.Now += time.Second
	}

	n := 0
	for _, e := range sink.events {
		if e.Kind == EventChangeCommandState {
			n++
		}
	}
	if n != 1 {
		t.Errorf("got %d state change events, expected 1", n)
	}
	if !nav.Command.HomeSet || nav.Command.Home != testOrigin {
		t.Errorf("home not set: %+v", nav.Command)
	}
	saver := nav.Saver.(*recordingSaver)
	if !saver.command.HomeSet {
		t.Errorf("home not persisted")
	}
}

func TestSetHomeNeedsLocation(t *testing.T) {
	nav, _ := makeTestNav(t)
	s := testSensors(time.Second)
	s.LocationValid = false

	nav.SetCommand(CommandSetHome)
	nav.MediumTick(s)
	if nav.Command.HomeSet {
		t.Errorf("home set without a valid location")
	}
}

func TestResetMissionIndex(t *testing.T) {
	nav, _ := makeTestNav(t)
	nav.Mission.Append(MissionStep{Kind: StepGotoWaypoint})
	nav.Mission.Append(MissionStep{Kind: StepGotoWaypoint})
	nav.Mission.Index, nav.Mission.Starting = 2, false

	nav.SetCommand(CommandResetMissionIndex)
	nav.MediumTick(testSensors(time.Second))
	if nav.Mission.Index != 0 || !nav.Mission.Starting {
		t.Errorf("mission not rewound: %+v", nav.Mission)
	}
}

func TestReturnToHome(t *testing.T) {
	nav, sink := makeTestNav(t)
	home := math.Project(testOrigin, 0, 2000)
	nav.Command.Home, nav.Command.HomeSet = home, true

	nav.SetCommand(CommandReturnToHome)
	nav.MediumTick(testSensors(time.Second))

	r := nav.Snapshot.Route
	if r.Prev != testOrigin || r.Next != home || !r.NextValid || r.MaxCTE != nav.Config.DefaultMaxCTE {
		t.Errorf("route %+v", r)
	}
	e, ok := sink.find(EventChangeCommandState)
	if !ok || math.Abs(e.Value2-2000) > 1 {
		t.Errorf("expected the home distance in the event, got %v", sink.events)
	}
}

func TestReturnToHomeWithoutHome(t *testing.T) {
	nav, _ := makeTestNav(t)
	nav.SetCommand(CommandReturnToHome)
	nav.MediumTick(testSensors(time.Second))

	if nav.Snapshot.NextValid {
		t.Errorf("route published without a home")
	}
	if nav.steeringEnabled() {
		t.Errorf("steering enabled without a home")
	}
}

func TestManualControlFailsafe(t *testing.T) {
	nav, sink := makeTestNav(t)
	nav.Command.Home, nav.Command.HomeSet = math.Project(testOrigin, 0, 500), true
	t0 := 10 * time.Second

	nav.SteerMagneticCourse(90)
	nav.MediumTick(testSensors(t0))

	nav.MediumTick(testSensors(t0 + 299*time.Second))
	if nav.Command.State != CommandSteerMagneticCourse {
		t.Fatalf("failsafe fired early")
	}

	nav.MediumTick(testSensors(t0 + 300*time.Second))
	if nav.Command.State != CommandReturnToHome {
		t.Fatalf("command state %s, expected ReturnToHome", nav.Command.State)
	}

	var found bool
	for _, e := range sink.events {
		if e.Kind == EventChangeCommandState && e.Reason == ReasonPastTime {
			found = CommandStateKind(e.Value) == CommandReturnToHome
		}
	}
	if !found {
		t.Errorf("no past time event in %v", sink.events)
	}
}

func TestFailsafeRestartedByNewCommand(t *testing.T) {
	nav, _ := makeTestNav(t)
	nav.Command.Home, nav.Command.HomeSet = math.Project(testOrigin, 0, 500), true

	nav.SteerWindCourse(60)
	nav.MediumTick(testSensors(0))

	nav.Snapshot.Now = 200 * time.Second
	nav.SteerWindCourse(70)
	nav.MediumTick(testSensors(400 * time.Second))
	if nav.Command.State != CommandSteerWindCourse {
		t.Errorf("command state %s, expected SteerWindCourse", nav.Command.State)
	}
}

func TestFailsafeNeedsHome(t *testing.T) {
	nav, _ := makeTestNav(t)
	nav.SteerMagneticCourse(90)
	nav.MediumTick(testSensors(0))
	nav.MediumTick(testSensors(time.Hour))
	if nav.Command.State != CommandSteerMagneticCourse {
		t.Errorf("command state %s, expected SteerMagneticCourse", nav.Command.State)
	}
}
