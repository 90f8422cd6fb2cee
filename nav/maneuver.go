// nav/maneuver.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/util"
)

// ManeuverState tracks a gybe from one tack to the other. The sequence is
// always Commence -> Running -> Approach -> Complete, possibly skipping
// Approach.
type ManeuverState int

const (
	ManeuverNone ManeuverState = iota
	ManeuverCommenceToPort
	ManeuverCommenceToStbd
	ManeuverRunningToPort
	ManeuverRunningToStbd
	ManeuverApproachPort
	ManeuverApproachStbd
	ManeuverComplete
)

func (s ManeuverState) String() string {
	if s < 0 || s > ManeuverComplete {
		return fmt.Sprintf("ManeuverState(%d)", int(s))
	}
	return []string{"None", "CommenceToPort", "CommenceToStbd", "RunningToPort", "RunningToStbd",
		"ApproachPort", "ApproachStbd", "Complete"}[int(s)]
}

// ManeuverSequencer holds the maneuver state and the bookkeeping the
// state machine carries from one medium tick to the next.
type ManeuverSequencer struct {
	State ManeuverState

	counter     int     // ticks spent in an Approach state
	prevCTS     float32 // CTS at the previous tick
	initialised bool    // a previous tick has set prevCTS
}

func (m *ManeuverSequencer) Active() bool {
	return m.State != ManeuverNone && m.State != ManeuverComplete
}

const (
	// Heading relative to the apparent wind held while settling onto the
	// new tack.
	gybeHoldAngle = 135
	// An AWA beyond this on the new course means the vessel is already
	// running and needs no approach heading.
	gybeRunningAWA = 100
	// Apparent wind angle that confirms the vessel is running.
	gybeConfirmAWA = 150
	// Medium ticks spent on the approach heading.
	approachHoldTicks = 5
)

// maneuverStateFunc returns the turn heading for this tick and the next
// state. predictedAWA is the AWA the vessel will see on the current CTS.
type maneuverStateFunc func(nav *Nav, predictedAWA float32) (float32, ManeuverState)

var maneuverStateMachine map[ManeuverState]maneuverStateFunc

func init() {
	steady := func(nav *Nav, predictedAWA float32) (float32, ManeuverState) {
		return nav.Course.CTS, nav.Maneuver.State
	}

	commence := func(running ManeuverState, confirmed func(awa float32) bool) maneuverStateFunc {
		return func(nav *Nav, predictedAWA float32) (float32, ManeuverState) {
			// Bear away to dead downwind first.
			hdg := math.OppositeHeading(nav.Snapshot.AWD)
			if confirmed(nav.Snapshot.AWA) {
				return hdg, running
			}
			return hdg, nav.Maneuver.State
		}
	}

	running := func(angle float32, approach ManeuverState) maneuverStateFunc {
		return func(nav *Nav, predictedAWA float32) (float32, ManeuverState) {
			if math.Abs(predictedAWA) > gybeRunningAWA {
				return nav.Course.CTS, ManeuverComplete
			}
			nav.Maneuver.counter = 0
			return math.Wrap360(nav.Snapshot.AWD + angle), approach
		}
	}

	approach := func(nav *Nav, predictedAWA float32) (float32, ManeuverState) {
		m := &nav.Maneuver
		m.counter++
		if m.counter >= approachHoldTicks {
			return nav.Course.TurnHeading, ManeuverComplete
		}
		return nav.Course.TurnHeading, m.State
	}

	maneuverStateMachine = map[ManeuverState]maneuverStateFunc{
		ManeuverNone:     steady,
		ManeuverComplete: steady,

		ManeuverCommenceToPort: commence(ManeuverRunningToPort,
			func(awa float32) bool { return awa > gybeConfirmAWA || awa < 0 }),
		ManeuverCommenceToStbd: commence(ManeuverRunningToStbd,
			func(awa float32) bool { return awa < -gybeConfirmAWA || awa > 0 }),

		ManeuverRunningToPort: running(gybeHoldAngle, ManeuverApproachPort),
		ManeuverRunningToStbd: running(-gybeHoldAngle, ManeuverApproachStbd),

		ManeuverApproachPort: approach,
		ManeuverApproachStbd: approach,
	}
}

// UpdateTurnHeading runs one medium tick of the maneuver sequencer. A gybe
// starts when the new CTS puts the wind on the other side of the boat
// from the previous CTS; it is only started when the configured method is
// Gybe and no maneuver is already underway. With no maneuver active the
// turn heading is simply the CTS.
func (nav *Nav) UpdateTurnHeading() {
	m, c := &nav.Maneuver, &nav.Course
	twd := nav.Snapshot.TWD

	predicted := PredictedAWA(c.CTS, twd)
	previous := PredictedAWA(m.prevCTS, twd)

	if predicted*previous < 0 && nav.Config.ManeuverMethod == ManeuverGybe && m.initialised && !m.Active() {
		m.State = util.Select(previous > 0, ManeuverCommenceToPort, ManeuverCommenceToStbd)
		NavLog(NavLogManeuver, "cts %.0f -> %.0f changes tack, %s", m.prevCTS, c.CTS, m.State)
	}

	sf, ok := maneuverStateMachine[m.State]
	if !ok {
		// Not a state we know; abandon the maneuver.
		m.State = ManeuverNone
		sf = maneuverStateMachine[ManeuverNone]
	}

	from := m.State
	c.TurnHeading, m.State = sf(nav, predicted)
	if m.State != from {
		NavLog(NavLogManeuver, "%s -> %s, turn heading %.0f", from, m.State, c.TurnHeading)
	}

	m.prevCTS = c.CTS
	m.initialised = true
}
