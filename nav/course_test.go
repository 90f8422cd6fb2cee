// nav/course_test.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"testing"
	"time"

	"github.com/mmp/sailpilot/math"
)

func TestPointOfSail(t *testing.T) {
	for a := float32(-179.5); a <= 180; a += 0.5 {
		pos := GetPointOfSail(a)
		switch pos {
		case PortTackBeating, PortTackRunning, StarboardTackBeating, StarboardTackRunning:
		default:
			t.Fatalf("angle %f: unexpected point of sail %d", a, pos)
		}
		if port := pos == PortTackBeating || pos == PortTackRunning; port != (a <= 0) {
			t.Errorf("angle %f: got %s", a, pos)
		}
		if beating := pos == PortTackBeating || pos == StarboardTackBeating; beating != (math.Abs(a) <= 90) {
			t.Errorf("angle %f: got %s", a, pos)
		}
	}

	for _, tc := range []struct {
		angle float32
		pos   PointOfSail
	}{
		{90, StarboardTackBeating},
		{-90, PortTackBeating},
		{90.01, StarboardTackRunning},
		{-90.01, PortTackRunning},
		{180, StarboardTackRunning},
		{-1, PortTackBeating},
		{1, StarboardTackBeating},
	} {
		if pos := GetPointOfSail(tc.angle); pos != tc.pos {
			t.Errorf("angle %f: got %s, expected %s", tc.angle, pos, tc.pos)
		}
	}

	if s := StarboardTackRunning.String(); s != "StarboardTackRunning" {
		t.Errorf("got %q", s)
	}
	for _, p := range []PointOfSail{-1, 4} {
		if s, expected := p.String(), fmt.Sprintf("PointOfSail(%d)", int(p)); s != expected {
			t.Errorf("got %q, expected %q", s, expected)
		}
	}
}

func TestLaylines(t *testing.T) {
	cfg := DefaultConfig()
	ll := ComputeLaylines(10, cfg)
	expect := Laylines{BeatPort: 45, BeatStarboard: 335, RunPort: 170, RunStarboard: 210}
	if ll != expect {
		t.Errorf("laylines %+v, expected %+v", ll, expect)
	}

	// Every layline must itself be sailable.
	for twd := float32(0); twd < 360; twd += 7.3 {
		ll := ComputeLaylines(twd, cfg)
		for _, c := range []float32{ll.BeatPort, ll.BeatStarboard, ll.RunPort, ll.RunStarboard} {
			if !isCourseSailable(c, twd, cfg) {
				t.Errorf("twd %f: layline %f not sailable", twd, c)
			}
		}
	}
}

func TestLimitToSailingCourseIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	for _, twd := range []float32{0, 45, 179.5, 270, 359.9} {
		ll := ComputeLaylines(twd, cfg)
		for pos := PortTackBeating; pos <= StarboardTackRunning; pos++ {
			for c := float32(0); c < 360; c += 0.5 {
				once, _, _ := limitToSailingCourse(c, twd, pos, ll, cfg)
				twice, _, clamped := limitToSailingCourse(once, twd, pos, ll, cfg)
				if once != twice || clamped {
					t.Errorf("twd %f %s course %f: limited to %f then %f", twd, pos, c, once, twice)
				}
			}
		}
	}
}

func TestLimitToSailingCourse(t *testing.T) {
	nav, sink := makeTestNav(t)
	nav.Snapshot.TWD = 0
	nav.Leg.PointOfSail = StarboardTackBeating
	nav.Leg.Laylines = ComputeLaylines(0, nav.Config)

	// Dead upwind is clamped to the starboard beat.
	if c := nav.LimitToSailingCourse(0); c != 325 {
		t.Errorf("limited course %f, expected 325", c)
	}
	// A reach is left alone.
	if c := nav.LimitToSailingCourse(90); c != 90 {
		t.Errorf("limited course %f, expected 90", c)
	}

	nav.flushEvents()
	if len(sink.events) != 1 {
		t.Fatalf("got %d events, expected 1", len(sink.events))
	}
	e := sink.events[0]
	if e.Kind != EventTackToStarboard || e.Reason != ReasonLimitToSailingCourse {
		t.Errorf("unexpected event %s", e)
	}
}

func TestCTECorrection(t *testing.T) {
	for _, tc := range []struct {
		cte, maxCTE, gain float32
		expect            float32
	}{
		{0, 20, 20, 0},
		{10, 20, 20, 10},
		{-20, 20, 20, -20},
		{100, 20, 20, 45},
		{-100, 20, 20, -45},
		{10, 0, 20, 0},
	} {
		if c := CTECorrection(tc.cte, tc.maxCTE, tc.gain); c != tc.expect {
			t.Errorf("CTECorrection(%f, %f, %f) = %f, expected %f", tc.cte, tc.maxCTE, tc.gain, c, tc.expect)
		}
	}
}

func TestIsBTWSailable(t *testing.T) {
	// Defaults: 35 degrees upwind, 25 degree margin, 20 degrees off
	// dead downwind.
	cfg := DefaultConfig()

	for _, tc := range []struct {
		name        string
		angle       float32
		cte, maxCTE float32
		expect      bool
	}{
		{"exactly at margin", 60, 0, 20, true},
		{"just inside margin", 59.9, 0, 20, false},
		{"port side at margin", -60, 0, 20, true},
		{"at boundary keeps full margin", 50, 20, 20, false},
		{"inside boundary", 50, 10, 20, false},
		{"outside boundary halves margin", 50, 25, 20, true},
		{"outside boundary to port", 50, -25, 20, true},
		{"at halved margin", 47.5, -30, 20, true},
		{"inside halved margin", 47.4, -30, 20, false},
		{"downwind limit", 160, 0, 20, true},
		{"past downwind limit", 161, 0, 20, false},
		{"dead downwind", 180, 50, 20, false},
		{"dead upwind", 0, 50, 20, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if s := IsBTWSailable(tc.angle, tc.cte, tc.maxCTE, cfg); s != tc.expect {
				t.Errorf("IsBTWSailable(%f, %f, %f) = %v", tc.angle, tc.cte, tc.maxCTE, s)
			}
		})
	}
}

func TestFavouredTack(t *testing.T) {
	for _, tc := range []struct {
		angle  float32
		expect CourseType
	}{
		{-20, CoursePortTack},
		{20, CourseStarboardTack},
		{-170, CoursePortTackRunning},
		{170, CourseStarboardTackRunning},
	} {
		if ct := FavouredTack(tc.angle); ct != tc.expect {
			t.Errorf("FavouredTack(%f) = %s, expected %s", tc.angle, ct, tc.expect)
		}
	}
}

// setupUnsailableLeg leaves nav partway through a mission step whose
// mark can't be laid.
func setupUnsailableLeg(nav *Nav, ct CourseType, cte float32) {
	nav.Command.State = CommandFollowMission
	nav.Mission.StepStart = 0
	nav.Snapshot.Now = time.Hour
	nav.Snapshot.MaxCTE = 20
	nav.Snapshot.HDG, nav.Snapshot.AWA, nav.Snapshot.TWD = 0, 40, 40
	nav.Course.CourseType = ct
	nav.Leg = Leg{Valid: true, CTE: cte, IsBTWSailable: false}
}

func TestBoundaryTackSwitch(t *testing.T) {
	nav, sink := makeTestNav(t)
	setupUnsailableLeg(nav, CoursePortTack, 25)
	nav.Course.TackDuration = time.Minute

	cts := nav.CalculateSailingCTS()
	nav.flushEvents()

	if nav.Course.CourseType != CourseStarboardTack {
		t.Fatalf("course type %s, expected StarboardTack", nav.Course.CourseType)
	}
	// Close hauled on starboard: HDG + AWA - 35.
	if cts != 5 {
		t.Errorf("cts %f, expected 5", cts)
	}
	if !nav.Course.PastBoundaryHold {
		t.Errorf("past boundary hold not set")
	}
	if nav.Course.TackDuration != 0 {
		t.Errorf("tack duration %s not reset", nav.Course.TackDuration)
	}
	if nav.Maneuver.State != ManeuverCommenceToStbd {
		t.Errorf("maneuver %s, expected CommenceToStbd", nav.Maneuver.State)
	}

	e, ok := sink.find(EventTackToStarboard)
	if !ok {
		t.Fatalf("no tack event in %v", sink.events)
	}
	if e.Reason != ReasonPastBoundary {
		t.Errorf("reason %s, expected PastBoundary", e.Reason)
	}
}

func TestBoundaryTackSwitches(t *testing.T) {
	for _, tc := range []struct {
		from   CourseType
		cte    float32
		expect CourseType
	}{
		{CoursePortTack, 19, CoursePortTack},
		{CoursePortTack, -25, CoursePortTack},
		{CourseStarboardTack, -25, CoursePortTack},
		{CourseStarboardTack, 25, CourseStarboardTack},
		{CoursePortTackRunning, -25, CourseStarboardTackRunning},
		{CoursePortTackRunning, 25, CoursePortTackRunning},
		{CourseStarboardTackRunning, 25, CoursePortTackRunning},
		{CourseStarboardTackRunning, -19, CourseStarboardTackRunning},
	} {
		nav, sink := makeTestNav(t)
		setupUnsailableLeg(nav, tc.from, tc.cte)
		nav.CalculateSailingCTS()
		nav.flushEvents()

		if nav.Course.CourseType != tc.expect {
			t.Errorf("%s with cte %f: got %s, expected %s", tc.from, tc.cte, nav.Course.CourseType, tc.expect)
		}
		if switched := tc.from != tc.expect; switched != (len(sink.events) > 0) {
			t.Errorf("%s with cte %f: events %v", tc.from, tc.cte, sink.events)
		}
	}
}

func TestFavouredTackReselected(t *testing.T) {
	nav, sink := makeTestNav(t)
	setupUnsailableLeg(nav, CourseDirectToWaypoint, 0)
	nav.Course.FavouredTack = CoursePortTack

	cts := nav.CalculateSailingCTS()
	nav.flushEvents()

	if nav.Course.CourseType != CoursePortTack {
		t.Errorf("course type %s, expected PortTack", nav.Course.CourseType)
	}
	// Close hauled on port: HDG + AWA + 35.
	if cts != 75 {
		t.Errorf("cts %f, expected 75", cts)
	}
	if e, ok := sink.find(EventTackToPort); !ok || e.Reason != ReasonFavouredTack {
		t.Errorf("expected a favoured tack event, got %v", sink.events)
	}

	// Just after a step starts the favoured tack wins over the held one.
	nav, _ = makeTestNav(t)
	setupUnsailableLeg(nav, CourseStarboardTack, 0)
	nav.Course.FavouredTack = CoursePortTack
	nav.Mission.StepStart = nav.Snapshot.Now - 3*time.Second
	nav.CalculateSailingCTS()
	if nav.Course.CourseType != CoursePortTack {
		t.Errorf("course type %s, expected PortTack", nav.Course.CourseType)
	}
}

func TestDirectToWaypoint(t *testing.T) {
	nav, _ := makeTestNav(t)
	nav.Leg = Leg{Valid: true, BTW: 100, CTE: 10, CTECorrection: 10, IsBTWSailable: true}

	if cts := nav.CalculateSailingCTS(); cts != 90 {
		t.Errorf("cts %f, expected 90", cts)
	}
	if nav.Course.CourseType != CourseDirectToWaypoint {
		t.Errorf("course type %s", nav.Course.CourseType)
	}

	// Past-boundary hold keeps the tack even though the mark can be laid.
	nav.Course.CourseType = CoursePortTack
	nav.Course.PastBoundaryHold = true
	nav.Command.State = CommandReturnToHome
	nav.Snapshot.Now = time.Hour
	nav.Snapshot.MaxCTE = 20
	nav.CalculateSailingCTS()
	if nav.Course.CourseType != CoursePortTack {
		t.Errorf("course type %s, expected PortTack to be held", nav.Course.CourseType)
	}
}

func TestUpdateLegInvalidLocation(t *testing.T) {
	nav, _ := makeTestNav(t)
	nav.Snapshot.LocationValid = false
	nav.Snapshot.NextValid = true
	nav.UpdateLeg()

	if nav.Leg.Valid || !nav.Leg.IsBTWSailable {
		t.Errorf("invalid location should give an invalid, sailable leg: %+v", nav.Leg)
	}
	if nav.Leg.CTE != 0 || nav.Leg.DTW != 0 {
		t.Errorf("geometry not zeroed: %+v", nav.Leg)
	}
}

func TestUpdateLeg(t *testing.T) {
	nav, _ := makeTestNav(t)
	s := &nav.Snapshot
	s.Sensors = testSensors(time.Second)
	s.TWD = 0
	s.Prev = testOrigin
	s.Next = math.Project(testOrigin, 90, 1000)
	s.NextValid = true
	s.MaxCTE = 20
	// 30m south of the track, i.e. to starboard heading east.
	s.Location = math.Project(math.Project(testOrigin, 90, 200), 180, 30)

	nav.Course.PastBoundaryHold = true
	nav.UpdateLeg()
	leg := nav.Leg

	if !leg.Valid {
		t.Fatalf("leg not valid")
	}
	if math.Abs(leg.CTE-30) > 0.5 {
		t.Errorf("cte %f, expected 30", leg.CTE)
	}
	if math.Abs(leg.DTW-800) > 2 {
		t.Errorf("dtw %f, expected ~800", leg.DTW)
	}
	if !leg.IsBTWSailable {
		t.Errorf("a beam reach should be sailable")
	}
	if nav.Course.FavouredTack != CoursePortTack {
		t.Errorf("favoured tack %s, expected PortTack", nav.Course.FavouredTack)
	}
	if !nav.Course.PastBoundaryHold {
		t.Errorf("hold cleared while still outside the boundary")
	}
	if math.Abs(leg.CTECorrection-30) > 0.5 {
		t.Errorf("cte correction %f, expected 30", leg.CTECorrection)
	}

	s.Location = math.Project(testOrigin, 90, 300)
	nav.UpdateLeg()
	if nav.Course.PastBoundaryHold {
		t.Errorf("hold not cleared back inside the boundary")
	}
}
