//go:build navlog

// nav/log_debug_test.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"bytes"
	"strings"
	"testing"
)

func TestNavLogCategories(t *testing.T) {
	var buf bytes.Buffer
	navlogOut = &buf
	defer InitNavLog(false, "")

	InitNavLog(true, "course, bogus,mission")
	if !strings.Contains(buf.String(), `"bogus": unknown category`) {
		t.Errorf("unknown category not reported: %q", buf.String())
	}
	if !NavLogEnabled(NavLogCourse) || !NavLogEnabled(NavLogMission) || NavLogEnabled(NavLogSteering) {
		t.Errorf("wrong categories enabled: %v", navlogCategories)
	}

	buf.Reset()
	NavLog(NavLogSteering, "not shown")
	NavLog(NavLogCourse, "cts %d", 42)
	if out := buf.String(); strings.Contains(out, "not shown") || !strings.Contains(out, "[course] cts 42") {
		t.Errorf("unexpected output %q", out)
	}

	InitNavLog(true, "all")
	for _, c := range allNavLogCategories {
		if !NavLogEnabled(c) {
			t.Errorf("%s not enabled by \"all\"", c)
		}
	}
}
