// cmd/sailpilot/status.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"log/slog"
	gomath "math"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"

	"github.com/mmp/sailpilot/eventlog"
	"github.com/mmp/sailpilot/log"
)

// reportStatus logs resource usage every interval until ctx is done. On
// the boat the core shares a small board with everything else, so a
// creeping CPU or memory figure is worth seeing in the log.
func reportStatus(ctx context.Context, interval time.Duration, events *eventlog.Async, lg *log.Logger) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			var pct int
			if usage, err := cpu.Percent(time.Second, false); err == nil && len(usage) > 0 {
				pct = int(gomath.Round(usage[0]))
			}

			lg.Info("status", slog.Int("cpu_percent", pct),
				slog.Uint64("alloc_mb", m.Alloc/(1024*1024)),
				slog.Uint64("sys_mb", m.Sys/(1024*1024)),
				slog.Int("goroutines", runtime.NumGoroutine()),
				slog.Int64("events_dropped", events.Dropped()))
		}
	}
}
