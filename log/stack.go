// log/stack.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// StackFrame is one caller, recorded with warnings and errors.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.Function)
}

const maxStackDepth = 16

// Callstack returns the callers of the function that called the logger,
// innermost first, stopping at main.main. fr's storage is reused when it
// has room.
func Callstack(fr []StackFrame) []StackFrame {
	var pcs [maxStackDepth]uintptr
	// Skip runtime.Callers, Callstack and the Logger method.
	n := runtime.Callers(3, pcs[:])

	fr = fr[:0]
	if n == 0 {
		return fr
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		fn := strings.TrimPrefix(f.Function, "github.com/mmp/sailpilot/")
		fr = append(fr, StackFrame{File: filepath.Base(f.File), Line: f.Line, Function: fn})
		if !more || f.Function == "main.main" {
			return fr
		}
	}
}
