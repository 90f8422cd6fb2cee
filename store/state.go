// store/state.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package store is the persistence collaborator: it loads and saves the
// command and mission state, the tunable configuration, and imports
// missions.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/nav"
)

// Bump when the layout of nav.CommandState or nav.MissionState changes.
const StateVersion = 1

var (
	ErrVersionMismatch = errors.New("state file version mismatch")
	ErrInvalidMission  = errors.New("invalid mission")
)

// State is what is written to the state file.
type State struct {
	Version int
	Command nav.CommandState
	Mission nav.MissionState
}

// WriteState encodes st as zstd-compressed msgpack.
func WriteState(w io.Writer, st State) error {
	st.Version = StateVersion

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(st); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func ReadState(r io.Reader) (State, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return State{}, err
	}
	defer zr.Close()

	var st State
	if err := msgpack.NewDecoder(zr).Decode(&st); err != nil {
		return State{}, err
	}
	if st.Version != StateVersion {
		return State{}, fmt.Errorf("got version %d, expected %d: %w", st.Version, StateVersion, ErrVersionMismatch)
	}
	if st.Mission.Size < 0 || st.Mission.Size > nav.MaxMissionSteps {
		return State{}, fmt.Errorf("mission size %d: %w", st.Mission.Size, ErrInvalidMission)
	}
	st.Mission.Index = min(max(st.Mission.Index, 0), st.Mission.Size)
	return st, nil
}

// SaveState writes the state file via a temporary file in the same
// directory so that a crash mid-write leaves the previous state intact.
func SaveState(path string, st State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := WriteState(f, st); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadState reads the state file. A missing file gives the initial state
// of a freshly flashed controller: idle, no home and an empty mission.
func LoadState(path string) (State, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return State{Version: StateVersion, Mission: nav.EmptyMission()}, nil
	} else if err != nil {
		return State{}, err
	}
	defer f.Close()

	st, err := ReadState(f)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// Saver implements nav.StateSaver. Save never blocks: each call queues a
// copy of the state, replacing any copy that hasn't been written yet, and
// Run writes them out.
type Saver struct {
	path string
	ch   chan State
	lg   *log.Logger
}

func NewSaver(path string, lg *log.Logger) *Saver {
	return &Saver{
		path: path,
		ch:   make(chan State, 1),
		lg:   lg,
	}
}

func (s *Saver) Save(cmd nav.CommandState, mission nav.MissionState) {
	// Both states are plain values (the mission steps are a fixed array),
	// so st shares nothing with the caller.
	st := State{Version: StateVersion, Command: cmd, Mission: mission}

	select {
	case s.ch <- st:
	default:
		// Drop the stale pending state in favour of this one.
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- st:
		default:
			s.lg.Warn("state save dropped")
		}
	}
}

// Run writes queued states until ctx is cancelled, then writes whatever
// is still pending.
func (s *Saver) Run(ctx context.Context) error {
	for {
		select {
		case st := <-s.ch:
			s.write(st)
		case <-ctx.Done():
			select {
			case st := <-s.ch:
				s.write(st)
			default:
			}
			return nil
		}
	}
}

func (s *Saver) write(st State) {
	if err := SaveState(s.path, st); err != nil {
		s.lg.Error("unable to save state", slog.String("path", s.path), slog.Any("error", err))
	} else {
		s.lg.Debug("state saved", slog.String("command", st.Command.State.String()),
			slog.Int("mission_index", st.Mission.Index))
	}
}
