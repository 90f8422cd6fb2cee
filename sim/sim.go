// sim/sim.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sim runs the autopilot against a simple vessel and weather
// model: no hull dynamics beyond a polar and a rudder-proportional turn
// rate, which is enough to exercise the decision core end to end.
package sim

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/nav"
	"github.com/mmp/sailpilot/rand"
)

type Sim struct {
	Vessel  Vessel
	Weather Weather
	Nav     *nav.Nav

	// Start is the wall-clock time the run nominally began at; it gives
	// the time of day reported to the core.
	Start time.Time
	Now   time.Duration

	// RealTime paces Run to the wall clock.
	RealTime bool

	Rudder Rudder
	rand   rand.Rand
	lg     *log.Logger
}

// New returns a simulator for n. The vessel takes its rudder position from
// rudder, which is normally the same servo.Recorder n steers through.
func New(n *nav.Nav, v Vessel, w Weather, rudder Rudder, seed int64, lg *log.Logger) *Sim {
	if v.TurnRateFactor == 0 {
		v.TurnRateFactor = 40
	}
	return &Sim{
		Vessel:  v,
		Weather: w,
		Nav:     n,
		Start:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Rudder:  rudder,
		rand:    rand.NewSeeded(seed),
		lg:      lg,
	}
}

// Sensors reports the vessel and weather the way the acquisition layer
// would.
func (s *Sim) Sensors() nav.Sensors {
	awa, awd := s.Vessel.ApparentWind(s.Weather)
	return nav.Sensors{
		Location:      s.Vessel.Location,
		LocationValid: true,
		HDG:           s.Vessel.HDG,
		AWA:           awa,
		AWD:           awd,
		TWD:           s.Weather.TWD,
		TWS:           s.Weather.TWS,
		COG:           s.Vessel.COG,
		SOG:           s.Vessel.SOG,
		Now:           s.Now,
		TimeOfDay:     s.Start.Add(s.Now),
	}
}

// Step advances the world by one fast tick and then runs whichever core
// ticks fall due.
func (s *Sim) Step() {
	dt := nav.FastTickInterval
	s.Weather.Update(s.Now, &s.rand)
	s.Vessel.Step(dt, s.Rudder.Last(), s.Weather, &s.rand)
	s.Now += dt

	sensors := s.Sensors()
	if s.Now%nav.SlowTickInterval == 0 {
		s.Nav.SlowTick(sensors)
	}
	if s.Now%nav.MediumTickInterval == 0 {
		s.Nav.MediumTick(sensors)
	}
	s.Nav.FastTick(sensors)
}

// Run steps the simulation until the duration has elapsed, stop returns
// true, or ctx is cancelled. stop is checked once per simulated second
// and may be nil.
func (s *Sim) Run(ctx context.Context, duration time.Duration, stop func(*Sim) bool) error {
	var tick <-chan time.Time
	if s.RealTime {
		t := time.NewTicker(nav.FastTickInterval)
		defer t.Stop()
		tick = t.C
	}

	end := s.Now + duration
	for s.Now < end {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		s.Step()

		if s.Now%time.Minute == 0 {
			s.lg.Debug("sim", slog.Duration("t", s.Now), slog.Any("nav", s.Nav.Snapshot))
		}
		if stop != nil && s.Now%time.Second == 0 && stop(s) {
			break
		}
	}
	s.lg.Info("sim finished", slog.Duration("t", s.Now),
		slog.Any("location", s.Vessel.Location),
		slog.String("command_state", s.Nav.Command.State.String()))
	return nil
}
