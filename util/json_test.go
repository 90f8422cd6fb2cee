// util/json_test.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"slices"
	"strings"
	"testing"
)

func TestFindDuplicateJSONKeys(t *testing.T) {
	for _, tc := range []struct {
		json   string
		expect []DuplicateJSONKey
	}{
		{`{"a": 1, "b": 2, "c": 3}`, nil},
		{`{"a": 1, "b": 2, "a": 3}`, []DuplicateJSONKey{{Path: "", Key: "a"}}},
		{`{"pid": {"kp": 1, "kp": 2}}`, []DuplicateJSONKey{{Path: "pid", Key: "kp"}}},
		{`{"a": 1, "a": 2, "pid": {"b": [1, 2], "b": "x"}}`,
			[]DuplicateJSONKey{{Path: "", Key: "a"}, {Path: "pid", Key: "b"}}},
		{`{"steps": [{"kind": "goto"}, {"kind": "loiter"}]}`, nil},
		{`{"steps": [{"kind": "goto"}, {"kind": "loiter", "kind": "goto"}]}`,
			[]DuplicateJSONKey{{Path: "steps[1]", Key: "kind"}}},
		{`[{"x": 1, "x": 2}]`, []DuplicateJSONKey{{Path: "[0]", Key: "x"}}},
		{`{"a": 1, "a": `, []DuplicateJSONKey{{Path: "", Key: "a"}}},
	} {
		if d := FindDuplicateJSONKeys([]byte(tc.json)); !slices.Equal(d, tc.expect) {
			t.Errorf("%s: got %+v, expected %+v", tc.json, d, tc.expect)
		}
	}
}

func TestUnmarshalJSONErrors(t *testing.T) {
	type pid struct {
		Kp float32 `json:"kp"`
	}
	type config struct {
		PID pid `json:"pid"`
	}

	var c config
	if err := UnmarshalJSON(strings.NewReader(`{"pid": {"kp": 2.5}}`), &c); err != nil {
		t.Fatal(err)
	} else if c.PID.Kp != 2.5 {
		t.Errorf("kp %f, expected 2.5", c.PID.Kp)
	}

	err := UnmarshalJSONBytes([]byte("{\n  \"pid\": {\"kp\": 1,,}\n}"), &c)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("syntax error %v should name line 2", err)
	}

	err = UnmarshalJSONBytes([]byte("{\n\n  \"pid\": {\"kp\": \"fast\"}\n}"), &c)
	if err == nil || !strings.Contains(err.Error(), "line 3") || !strings.Contains(err.Error(), "kp") {
		t.Errorf("type error %v should name line 3 and the field", err)
	}
}
