//go:build !navlog

// nav/log_release.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

// Without the navlog tag, category tracing compiles away; -navlog is
// accepted but ignored.

func InitNavLog(enabled bool, categories string) {}

func NavLog(category string, format string, args ...any) {}

func NavLogEnabled(category string) bool { return false }
