// eventlog/sink.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package eventlog provides the decision event sinks: a structured log,
// an SQLite database, and an asynchronous wrapper so that slow sinks
// never hold up a tick.
package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/nav"
	"github.com/mmp/sailpilot/util"
)

// LogSink writes each event to the log at info level.
type LogSink struct {
	lg *log.Logger
}

func NewLogSink(lg *log.Logger) *LogSink {
	return &LogSink{lg: lg}
}

func (s *LogSink) LogDecision(e nav.DecisionEvent) {
	s.lg.Info("decision", slog.Any("event", e))
}

// Tee returns a sink that passes each event to all of the given sinks in
// order. Nil sinks are skipped.
func Tee(sinks ...nav.EventSink) nav.EventSink {
	var t tee
	for _, s := range sinks {
		if s != nil {
			t = append(t, s)
		}
	}
	return t
}

type tee []nav.EventSink

func (t tee) LogDecision(e nav.DecisionEvent) {
	for _, s := range t {
		s.LogDecision(e)
	}
}

// Async delivers events to another sink from its own goroutine.
// LogDecision never blocks; when the queue is full the event is dropped
// and counted. The most recent events are kept for inspection.
type Async struct {
	sink    nav.EventSink
	ch      chan nav.DecisionEvent
	dropped atomic.Int64

	mu     sync.Mutex
	recent *util.RingBuffer[nav.DecisionEvent]

	lg *log.Logger
}

func NewAsync(sink nav.EventSink, queueSize, keepRecent int, lg *log.Logger) *Async {
	return &Async{
		sink:   sink,
		ch:     make(chan nav.DecisionEvent, queueSize),
		recent: util.NewRingBuffer[nav.DecisionEvent](max(1, keepRecent)),
		lg:     lg,
	}
}

func (a *Async) LogDecision(e nav.DecisionEvent) {
	a.mu.Lock()
	a.recent.Add(e)
	a.mu.Unlock()

	select {
	case a.ch <- e:
	default:
		if n := a.dropped.Add(1); n == 1 || n%100 == 0 {
			a.lg.Warn("decision event queue full", slog.Int64("dropped", n))
		}
	}
}

// Dropped returns the number of events that didn't fit in the queue.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Recent returns the most recent events, oldest first.
func (a *Async) Recent() []nav.DecisionEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recent.Slice()
}

// Run forwards queued events until ctx is cancelled and then delivers
// whatever is still queued.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case e := <-a.ch:
			a.sink.LogDecision(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-a.ch:
					a.sink.LogDecision(e)
				default:
					return nil
				}
			}
		}
	}
}
