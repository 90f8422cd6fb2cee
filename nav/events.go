// nav/events.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"log/slog"
	"time"
)

type EventKind int

const (
	EventNone EventKind = iota
	EventIncrementMissionIndex
	EventPastWaypoint
	EventEndOfMission
	EventTackToPort
	EventTackToStarboard
	EventTackToPortRunning
	EventTackToStarboardRunning
	EventChangeCommandState
	EventHoldCourse
	EventStartMissionStep
)

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

var eventKindNames = [...]string{"None", "IncrementMissionIndex", "PastWaypoint", "EndOfMission",
	"TackToPort", "TackToStarboard", "TackToPortRunning", "TackToStarboardRunning",
	"ChangeCommandState", "HoldCourse", "StartMissionStep"}

type EventReason int

const (
	ReasonNone EventReason = iota
	ReasonPastWaypoint
	ReasonPastTime
	ReasonPastDuration
	ReasonPastBoundary
	ReasonFavouredTack
	ReasonNoChange
	ReasonLimitToSailingCourse
	ReasonPastLoiterBoundary
	ReasonManualIntervention
	ReasonApproachingWP
	ReasonUnknown
)

func (r EventReason) String() string {
	if r < 0 || int(r) >= len(eventReasonNames) {
		return fmt.Sprintf("EventReason(%d)", int(r))
	}
	return eventReasonNames[r]
}

var eventReasonNames = [...]string{"None", "PastWaypoint", "PastTime", "PastDuration", "PastBoundary",
	"FavouredTack", "NoChange", "LimitToSailingCourse", "PastLoiterBoundary", "ManualIntervention",
	"ApproachingWP", "Unknown"}

// tackEvent returns the event that records a change to the given course
// type.
func tackEvent(ct CourseType) EventKind {
	switch ct {
	case CoursePortTack:
		return EventTackToPort
	case CourseStarboardTack:
		return EventTackToStarboard
	case CoursePortTackRunning:
		return EventTackToPortRunning
	case CourseStarboardTackRunning:
		return EventTackToStarboardRunning
	default:
		return EventNone
	}
}

// DecisionEvent records a single state transition made by the core,
// along with enough context to explain it after the fact.
type DecisionEvent struct {
	Time         time.Duration // monotonic time of the tick that made the decision
	MissionIndex int
	CommandState CommandStateKind
	Kind         EventKind
	Reason       EventReason
	Value        float32
	Value2       float32
}

func (e DecisionEvent) String() string {
	return fmt.Sprintf("%s %s/%s mission %d command %s value %.1f,%.1f", e.Time.Truncate(time.Millisecond),
		e.Kind, e.Reason, e.MissionIndex, e.CommandState, e.Value, e.Value2)
}

func (e DecisionEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("time", e.Time),
		slog.Int("mission_index", e.MissionIndex),
		slog.String("command_state", e.CommandState.String()),
		slog.String("event", e.Kind.String()),
		slog.String("reason", e.Reason.String()),
		slog.Float64("value", float64(e.Value)),
		slog.Float64("value2", float64(e.Value2)),
	)
}

// EventSink receives decision events. Sinks are fire-and-forget: the core
// never reads anything back and LogDecision must not block.
type EventSink interface {
	LogDecision(DecisionEvent)
}

// maxPendingEvents bounds the number of events a single tick can queue;
// in practice a tick produces at most three or four.
const maxPendingEvents = 16

type eventQueue struct {
	events [maxPendingEvents]DecisionEvent
	n      int
}

func (q *eventQueue) push(e DecisionEvent) {
	if q.n < len(q.events) {
		q.events[q.n] = e
		q.n++
	}
}

// flush hands the queued events to sink in order and empties the queue.
func (q *eventQueue) flush(sink EventSink) {
	if sink != nil {
		for i := range q.n {
			sink.LogDecision(q.events[i])
		}
	}
	q.n = 0
}
