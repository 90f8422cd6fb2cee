// math/latlong.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"encoding/json"
	"fmt"
	gomath "math"
	"strconv"
	"strings"
)

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude. Unlike headings,
// coordinates are float64: at float32 a longitude near 180 only resolves
// to about a metre and a half, which is a tenth of a loiter radius.
type Point2LL [2]float64

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

func (p Point2LL) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

// DDString returns the position in decimal degrees, latitude first.
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0])
}

// formatDMS writes v as ddd.mm.ss.mmm after rounding to the nearest
// millisecond of arc, so that 59.9996" carries into the minutes.
func formatDMS(hemi byte, v float64) string {
	ms := int64(gomath.Round(gomath.Abs(v) * 3600000))
	return fmt.Sprintf("%c%03d.%02d.%02d.%03d", hemi, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// DMSString returns the position in degrees, minutes and seconds, e.g.
// S036.50.58.560,E174.45.47.880.
func (p Point2LL) DMSString() string {
	ns, ew := byte('N'), byte('E')
	if p[1] < 0 {
		ns = 'S'
	}
	if p[0] < 0 {
		ew = 'W'
	}
	return formatDMS(ns, p[1]) + "," + formatDMS(ew, p[0])
}

func (p Point2LL) String() string {
	return p.DMSString()
}

// parseDMS parses one dotted degrees.minutes.seconds.milliseconds
// coordinate with its hemisphere letter, e.g. "W073.46.17.000". The
// milliseconds are a decimal fraction, so ".4" is 400ms.
func parseDMS(s string, pos, neg byte) (float64, bool) {
	if len(s) < 2 || (s[0] != pos && s[0] != neg) {
		return 0, false
	}
	fields := strings.Split(s[1:], ".")
	if len(fields) != 4 {
		return 0, false
	}

	var v [4]int
	for i, f := range fields {
		if f == "" || strings.IndexFunc(f, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
			return 0, false
		}
		v[i], _ = strconv.Atoi(f)
	}
	for range 3 - min(3, len(fields[3])) {
		v[3] *= 10
	}
	if v[1] >= 60 || v[2] >= 60 {
		return 0, false
	}

	deg := float64(v[0]) + float64(v[1])/60 + float64(v[2])/3600 + float64(v[3])/3600000
	if s[0] == neg {
		deg = -deg
	}
	return deg, true
}

// ParseLatLong accepts either dotted degrees-minutes-seconds
// ("S036.50.58.560,E174.45.47.880") or a decimal "lat, lon" pair.
func ParseLatLong(llstr []byte) (Point2LL, error) {
	latStr, lonStr, ok := strings.Cut(string(llstr), ",")
	if !ok {
		return Point2LL{}, fmt.Errorf("%q: invalid latlong string", llstr)
	}
	latStr, lonStr = strings.TrimSpace(latStr), strings.TrimSpace(lonStr)

	lat, okLat := parseDMS(latStr, 'N', 'S')
	lon, okLon := parseDMS(lonStr, 'E', 'W')
	if !okLat || !okLon {
		var err error
		if lat, err = strconv.ParseFloat(latStr, 64); err != nil {
			return Point2LL{}, fmt.Errorf("%q: invalid latlong string", llstr)
		}
		if lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
			return Point2LL{}, fmt.Errorf("%q: invalid latlong string", llstr)
		}
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point2LL{}, fmt.Errorf("%q: latlong out of range", llstr)
	}
	return Point2LL{lon, lat}, nil
}

// Point2LLs are written to JSON as DMS strings.
func (p Point2LL) MarshalJSON() ([]byte, error) {
	return []byte("\"" + p.DMSString() + "\""), nil
}

func (p *Point2LL) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		// [lon, lat] pairs are also accepted.
		var pt [2]float64
		err := json.Unmarshal(b, &pt)
		if err == nil {
			*p = pt
		}
		return err
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	pt, err := ParseLatLong([]byte(s))
	if err != nil {
		return err
	}
	*p = pt
	return nil
}
