// cmd/sailpilot/main.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// sailpilot runs the autopilot decision core against the vessel
// simulator, optionally driving a real rudder servo alongside it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"

	"github.com/mmp/sailpilot/eventlog"
	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/nav"
	"github.com/mmp/sailpilot/servo"
	"github.com/mmp/sailpilot/sim"
	"github.com/mmp/sailpilot/store"
)

var (
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "log file directory")
	configPath  = flag.String("config", "sailpilot.json", "tuning parameters (JSON)")
	writeConfig = flag.Bool("writeconfig", false, "write the configuration in use to -config and exit")
	statePath   = flag.String("state", "sailpilot.state", "command and mission state file")
	resetState  = flag.Bool("resetstate", false, "ignore any saved state")
	missionPath = flag.String("mission", "", "mission file (JSON) to load and follow")
	dumpState   = flag.Bool("dumpstate", false, "print the loaded configuration and state and exit")
	eventDB     = flag.String("eventdb", "", "SQLite database to record decision events in")
	servoDevice = flag.String("servo", "", "serial device of a Maestro servo controller to drive")
	servoChan   = flag.Int("servochannel", 0, "Maestro channel the rudder servo is on")
	navLog      = flag.String("navlog", "", "comma-separated navlog categories to trace, or \"all\" (navlog builds only)")
	statusEvery = flag.Duration("status", time.Minute, "how often to log resource usage; 0 disables")
	tail        = flag.Int("tail", 8, "number of recent decision events to print after the run")

	duration = flag.Duration("duration", time.Hour, "simulated time to run for")
	realTime = flag.Bool("realtime", false, "run the simulation at wall-clock speed")
	seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed for the simulated weather")
	origin   = flag.String("origin", "50.34, -4.15", "starting position")
	heading  = flag.Float64("heading", 90, "starting heading")
	home     = flag.String("home", "", "home position; the start position if empty")
	twd      = flag.Float64("twd", 350, "mean true wind direction")
	tws      = flag.Float64("tws", 10, "mean true wind speed, knots")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir, false)
	defer lg.CatchAndReportCrash()

	nav.InitNavLog(*navLog != "", *navLog)

	if err := run(lg); err != nil {
		lg.Error("sailpilot", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "sailpilot: %v\n", err)
		os.Exit(1)
	}
}

func run(lg *log.Logger) error {
	cfg, err := store.LoadConfig(*configPath, lg)
	if err != nil {
		return err
	}
	if *writeConfig {
		return store.SaveConfig(*configPath, cfg)
	}

	st := store.State{Mission: nav.EmptyMission()}
	if !*resetState {
		if st, err = store.LoadState(*statePath); err != nil {
			if !errors.Is(err, store.ErrVersionMismatch) {
				return err
			}
			lg.Warn("discarding saved state", slog.Any("error", err))
			st = store.State{Mission: nav.EmptyMission()}
		}
	}

	start, err := math.ParseLatLong([]byte(*origin))
	if err != nil {
		return err
	}
	if *home != "" {
		if st.Command.Home, err = math.ParseLatLong([]byte(*home)); err != nil {
			return err
		}
		st.Command.HomeSet = true
	} else if !st.Command.HomeSet {
		st.Command.Home, st.Command.HomeSet = start, true
	}

	if *missionPath != "" {
		f, err := os.Open(*missionPath)
		if err != nil {
			return err
		}
		m, err := store.LoadMission(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", *missionPath, err)
		}
		st.Mission = m
		st.Command.State = nav.CommandFollowMission
		lg.Info("mission loaded", slog.String("path", *missionPath), slog.Int("steps", m.Size))
	}

	if *dumpState {
		godump.Dump(cfg)
		godump.Dump(st)
		return nil
	}

	// Rudder output: the simulator always reads the recorder; a real servo
	// gets the same commands.
	scfg := servo.DefaultConfig()
	rec := servo.NewRecorder(scfg, cfg.PID.Centre)
	var actuator servo.Output = rec
	if *servoDevice != "" {
		scfg.Device, scfg.Channel = *servoDevice, uint8(*servoChan)
		m, err := servo.OpenMaestro(scfg, lg)
		if err != nil {
			return err
		}
		defer m.Close()
		actuator = servo.Tee(rec, m)
	}

	var sink nav.EventSink = eventlog.NewLogSink(lg)
	var db *eventlog.DB
	if *eventDB != "" {
		if db, err = eventlog.OpenDB(*eventDB, lg); err != nil {
			return err
		}
		defer db.Close()
		sink = eventlog.Tee(sink, db)
	}
	events := eventlog.NewAsync(sink, 256, *tail, lg)
	saver := store.NewSaver(*statePath, lg)

	// The writers outlive the simulation so that they can flush once it
	// stops.
	bgCtx, stopWriters := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(bgCtx)
	eg.Go(func() error { return saver.Run(egCtx) })
	eg.Go(func() error { return events.Run(egCtx) })
	if *statusEvery > 0 {
		eg.Go(func() error { return reportStatus(egCtx, *statusEvery, events, lg) })
	}

	n := nav.NewNav(cfg, st.Command, st.Mission,
		nav.Collaborators{Sink: events, Saver: saver, Actuator: actuator}, lg)

	weather := sim.DefaultWeather()
	weather.MeanTWD, weather.MeanTWS = float32(*twd), float32(*tws)
	weather.TWD, weather.TWS = weather.MeanTWD, weather.MeanTWS
	vessel := sim.Vessel{
		Location: start,
		HDG:      math.NormalizeHeading(float32(*heading)),
		Centre:   cfg.PID.Centre,
		YawNoise: 3,
	}
	s := sim.New(n, vessel, weather, rec, *seed, lg)
	s.RealTime = *realTime

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("starting", slog.Int64("seed", *seed), slog.Duration("duration", *duration),
		slog.Any("command", st.Command))
	simErr := s.Run(ctx, *duration, nil)
	if errors.Is(simErr, context.Canceled) {
		lg.Info("interrupted", slog.Duration("t", s.Now))
		simErr = nil
	}

	stopWriters()
	if err := eg.Wait(); err != nil {
		return err
	}

	var recent []nav.DecisionEvent
	if *tail > 0 {
		recent = events.Recent()
	}
	writeSummary(os.Stdout, s, recent)
	if d := events.Dropped(); d > 0 {
		fmt.Printf("%d decision events dropped\n", d)
	}
	if db != nil {
		if recs, err := db.Events(db.Session()); err == nil {
			fmt.Printf("%d decision events recorded in %s, session %s\n", len(recs), *eventDB, db.Session())
		}
	}
	return simErr
}

func writeSummary(w io.Writer, s *sim.Sim, recent []nav.DecisionEvent) {
	n := s.Nav
	fmt.Fprintf(w, "%s simulated: %s, mission step %d/%d, %s from home\n", s.Now, n.Command.State,
		n.Mission.Index, n.Mission.Size, fmtDistance(math.DistanceM(s.Vessel.Location, n.Command.Home)))
	fmt.Fprintf(w, "wind %s %.0fkt, heading %03.0f %s\n", math.ShortCompass(s.Weather.TWD), s.Weather.TWS,
		s.Vessel.HDG, math.ShortCompass(s.Vessel.HDG))
	if len(recent) > 0 {
		fmt.Fprintf(w, "last %d decision events:\n", len(recent))
		for _, e := range recent {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

func fmtDistance(m float32) string {
	if m < 1000 {
		return fmt.Sprintf("%.0fm", m)
	}
	return fmt.Sprintf("%.2fnm", m/math.MetresPerNauticalMile)
}
