// servo/servo.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package servo drives the rudder servo. The autopilot core hands it one
// command per fast tick, in microseconds of pulse width; range limiting
// happens here.
package servo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/math"
)

var ErrChannelRange = errors.New("servo channel out of range")

// Maestro controllers have at most 24 channels.
const maxChannel = 23

type Config struct {
	Device  string  `json:"device"`
	Baud    int     `json:"baud"`
	Channel uint8   `json:"channel"`
	MinUS   float32 `json:"min_us"`
	MaxUS   float32 `json:"max_us"`
}

func DefaultConfig() Config {
	return Config{
		Device:  "/dev/ttyACM0",
		Baud:    9600,
		Channel: 0,
		MinUS:   1000,
		MaxUS:   2000,
	}
}

// SetTarget encodes a Pololu compact protocol Set Target command. The
// target is sent in quarter microseconds, seven bits per byte.
func SetTarget(channel uint8, us float32) ([4]byte, error) {
	if channel > maxChannel {
		return [4]byte{}, fmt.Errorf("%d: %w", channel, ErrChannelRange)
	}
	q := uint16(math.Clamp(us*4+0.5, 0, 0x3fff))
	return [4]byte{0x84, channel, byte(q & 0x7f), byte(q >> 7 & 0x7f)}, nil
}

// Maestro sends commands to a Pololu Maestro servo controller.
type Maestro struct {
	mu     sync.Mutex
	w      io.WriteCloser
	cfg    Config
	lg     *log.Logger
	errors int
	last   float32
}

func OpenMaestro(cfg Config, lg *log.Logger) (*Maestro, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return NewMaestro(port, cfg, lg)
}

// NewMaestro returns a Maestro that writes to w.
func NewMaestro(w io.WriteCloser, cfg Config, lg *log.Logger) (*Maestro, error) {
	if cfg.Channel > maxChannel {
		return nil, fmt.Errorf("%d: %w", cfg.Channel, ErrChannelRange)
	}
	if cfg.MinUS > cfg.MaxUS {
		cfg.MinUS, cfg.MaxUS = cfg.MaxUS, cfg.MinUS
	}
	return &Maestro{w: w, cfg: cfg, lg: lg}, nil
}

// Servo implements nav.Actuator.
func (m *Maestro) Servo(cmd float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	us := math.Clamp(cmd, m.cfg.MinUS, m.cfg.MaxUS)
	m.last = us

	b, _ := SetTarget(m.cfg.Channel, us)
	if _, err := m.w.Write(b[:]); err != nil {
		m.errors++
		// Don't flood the log at 20Hz.
		if m.errors == 1 || m.errors%200 == 0 {
			m.lg.Error("servo write failed", slog.Int("errors", m.errors), slog.Any("error", err))
		}
	}
}

// Last returns the most recent pulse width sent, after clamping.
func (m *Maestro) Last() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Maestro) Close() error {
	return m.w.Close()
}

// Recorder keeps the most recent command, clamped like a real servo; the
// simulator reads the rudder position from it.
type Recorder struct {
	MinUS, MaxUS float32

	mu    sync.Mutex
	last  float32
	count int
}

func NewRecorder(cfg Config, centre float32) *Recorder {
	return &Recorder{MinUS: cfg.MinUS, MaxUS: cfg.MaxUS, last: centre}
}

func (r *Recorder) Servo(cmd float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = math.Clamp(cmd, r.MinUS, r.MaxUS)
	r.count++
}

func (r *Recorder) Last() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Output is anything that accepts servo commands.
type Output interface {
	Servo(cmd float32)
}

// Tee sends each command to all of outs.
func Tee(outs ...Output) Output {
	return tee(outs)
}

type tee []Output

func (t tee) Servo(cmd float32) {
	for _, o := range t {
		o.Servo(cmd)
	}
}
