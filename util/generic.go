// util/generic.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

// RingBuffer keeps the most recent values added to it, up to a fixed
// capacity.
type RingBuffer[V any] struct {
	buf  []V
	next int // where the next value goes
	full bool
}

func NewRingBuffer[V any](capacity int) *RingBuffer[V] {
	return &RingBuffer[V]{buf: make([]V, capacity)}
}

func (r *RingBuffer[V]) Add(values ...V) {
	if len(r.buf) == 0 {
		return
	}
	for _, v := range values {
		r.buf[r.next] = v
		r.next++
		if r.next == len(r.buf) {
			r.next, r.full = 0, true
		}
	}
}

func (r *RingBuffer[V]) Size() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Slice returns a copy of the buffered values, oldest first.
func (r *RingBuffer[V]) Slice() []V {
	if !r.full {
		return append([]V(nil), r.buf[:r.next]...)
	}
	s := make([]V, 0, len(r.buf))
	s = append(s, r.buf[r.next:]...)
	return append(s, r.buf[:r.next]...)
}

// Select returns a if sel is true and b otherwise.
func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	}
	return b
}
