//go:build navlog

// nav/log_debug.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
)

var (
	navlogOut        io.Writer = os.Stderr
	navlogCategories           = make(map[string]bool)
)

// InitNavLog enables tracing for a comma-separated list of categories;
// "all" or an empty list enables every category. Unknown names are
// reported and ignored.
func InitNavLog(enabled bool, categories string) {
	clear(navlogCategories)
	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, c := range allNavLogCategories {
			navlogCategories[c] = true
		}
		return
	}
	for c := range strings.SplitSeq(categories, ",") {
		c = strings.TrimSpace(c)
		if !slices.Contains(allNavLogCategories, c) {
			fmt.Fprintf(navlogOut, "navlog: %q: unknown category (have %s)\n", c,
				strings.Join(allNavLogCategories, ", "))
			continue
		}
		navlogCategories[c] = true
	}
}

// NavLog writes "[15:04:05.000] [category] message" when category is
// enabled.
func NavLog(category string, format string, args ...any) {
	if !navlogCategories[category] {
		return
	}
	fmt.Fprintf(navlogOut, "[%s] [%s] %s\n", time.Now().Format("15:04:05.000"), category,
		fmt.Sprintf(format, args...))
}

func NavLogEnabled(category string) bool {
	return navlogCategories[category]
}
