// store/store_test.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/nav"
)

func testState() State {
	st := State{
		Command: nav.CommandState{
			State:               nav.CommandSteerWindCourse,
			Home:                math.Point2LL{-4.15, 50.34},
			HomeSet:             true,
			SteerCompassBearing: 270,
			SteerWindAngle:      -60,
			Start:               time.Hour,
		},
	}
	st.Mission.Append(nav.MissionStep{Kind: nav.StepGotoWaypoint, Waypoint: math.Point2LL{-4.1, 50.3}, Boundary: 25})
	st.Mission.Append(nav.MissionStep{Kind: nav.StepLoiter, Waypoint: math.Point2LL{-4.2, 50.3}, Duration: 10})
	st.Mission.Index = 1
	st.Mission.StepStart = time.Minute
	return st
}

func TestStateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	st := testState()
	require.NoError(t, WriteState(&buf, st))

	got, err := ReadState(&buf)
	require.NoError(t, err)

	assert.Equal(t, StateVersion, got.Version)
	assert.Equal(t, st.Command.State, got.Command.State)
	assert.Equal(t, st.Command.Home, got.Command.Home)
	assert.True(t, got.Command.HomeSet)
	assert.Equal(t, st.Mission.Steps, got.Mission.Steps)
	assert.Equal(t, 2, got.Mission.Size)
	assert.Equal(t, 1, got.Mission.Index)

	// Monotonic timestamps don't survive a reboot and aren't saved.
	assert.Zero(t, got.Command.Start)
	assert.Zero(t, got.Mission.StepStart)
}

func TestReadStateVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteState(&buf, testState()))

	// Rewrite it with a different version.
	st, err := ReadState(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	st.Version = StateVersion + 1

	var raw bytes.Buffer
	zw := newTestZstdWriter(t, &raw)
	require.NoError(t, msgpack.NewEncoder(zw).Encode(st))
	require.NoError(t, zw.Close())

	_, err = ReadState(&raw)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestReadStateGarbage(t *testing.T) {
	_, err := ReadState(strings.NewReader("not a state file"))
	assert.Error(t, err)
}

func TestSaveLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.bin")

	st, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, nav.CommandIdle, st.Command.State)
	assert.True(t, st.Mission.Starting)
	assert.Zero(t, st.Mission.Size)

	require.NoError(t, SaveState(path, testState()))
	st, err = LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, nav.CommandSteerWindCourse, st.Command.State)
	assert.Equal(t, 2, st.Mission.Size)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	s := NewSaver(path, nil)

	st := testState()
	// Only the last of these should matter.
	s.Save(nav.CommandState{State: nav.CommandIdle}, nav.MissionState{})
	s.Save(st.Command, st.Mission)

	// Later changes by the caller don't affect what was queued.
	st.Mission.Steps[0].Boundary = 99

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := LoadState(path)
		return err == nil && got.Command.State == nav.CommandSteerWindCourse
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	got, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, float32(25), got.Mission.Steps[0].Boundary)
}

func TestSaverFlushesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	s := NewSaver(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := testState()
	s.Save(st.Command, st.Mission)
	require.NoError(t, s.Run(ctx))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, nav.DefaultConfig(), cfg)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "minimum_angle_upwind": 40,
  "loiter_radius": 25,
  "steering_filter_constant": 7,
  "pid": {"Kp": 4, "OutputMin": -300, "OutputMax": 300, "Reverse": true, "Centre": 1500}
}`), 0644))

	cfg, err = LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(40), cfg.MinimumAngleUpWind)
	assert.Equal(t, float32(25), cfg.LoiterRadius)
	assert.Equal(t, float32(4), cfg.PID.Kp)
	// Untouched values keep their defaults.
	assert.Equal(t, nav.DefaultConfig().MinimumAngleDownWind, cfg.MinimumAngleDownWind)
	// Out of range values are clamped.
	assert.Equal(t, float32(1), cfg.SteeringFilterConstant)
}

func TestLoadConfigSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"loiter_radius\": ,\n}"), 0644))

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := nav.DefaultConfig()
	cfg.LoiterRadius = 42
	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadMission(t *testing.T) {
	m, err := LoadMission(strings.NewReader(`{"steps": [
  {"kind": "GotoWaypoint", "waypoint": "N050.20.24.000,W004.09.00.000", "boundary": 30},
  {"kind": "Loiter", "waypoint": "50.34, -4.15", "minutes": 10},
  {"kind": "LoiterUntil", "waypoint": [-4.15, 50.34], "until": "14:30"},
  {"kind": "SteerWindCourse", "steer_awa": 270, "minutes": 5},
  {"kind": "ReturnToHome"}
]}`))
	require.NoError(t, err)

	assert.Equal(t, 5, m.Size)
	assert.True(t, m.Starting)
	assert.Equal(t, 0, m.Index)

	assert.Equal(t, nav.StepGotoWaypoint, m.Steps[0].Kind)
	assert.InDelta(t, 50.34, m.Steps[0].Waypoint.Latitude(), 1e-9)
	assert.InDelta(t, -4.15, m.Steps[0].Waypoint.Longitude(), 1e-9)
	assert.Equal(t, float32(30), m.Steps[0].Boundary)

	assert.Equal(t, 10, m.Steps[1].Duration)
	assert.Equal(t, 14*60+30, m.Steps[2].Duration)
	assert.Equal(t, float32(-90), m.Steps[3].SteerAWA)
	assert.Equal(t, nav.StepReturnToHome, m.Steps[4].Kind)
}

func TestLoadMissionErrors(t *testing.T) {
	for _, tc := range []struct {
		name, json string
	}{
		{"unknown kind", `{"steps": [{"kind": "Anchor"}]}`},
		{"missing waypoint", `{"steps": [{"kind": "GotoWaypoint"}]}`},
		{"loiter without duration", `{"steps": [{"kind": "Loiter", "waypoint": "50.1, -4.1"}]}`},
		{"bad time of day", `{"steps": [{"kind": "LoiterUntil", "waypoint": "50.1, -4.1", "until": "25:00"}]}`},
		{"negative boundary", `{"steps": [{"kind": "GotoWaypoint", "waypoint": "50.1, -4.1", "boundary": -1}]}`},
		{"too many steps", `{"steps": [` + strings.Repeat(`{"kind": "ReturnToHome"},`, nav.MaxMissionSteps) +
			`{"kind": "ReturnToHome"}]}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadMission(strings.NewReader(tc.json))
			assert.ErrorIs(t, err, ErrInvalidMission)
		})
	}

	_, err := LoadMission(strings.NewReader(`{"steps": [{"kind": "GotoWaypoint", "waypoint": "nowhere"}]}`))
	assert.Error(t, err)
}
