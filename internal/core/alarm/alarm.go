// Package alarm implements the alarm state machine: pit-deviation
// hysteresis, meat-completion hysteresis, acknowledge semantics, and the
// buzzer on/off cadence.
package alarm

import (
	"pitclaw"
	"pitclaw/internal/hal"
)

// Config holds the alarm machine's tunables.
type Config struct {
	BuzzerFreqHz int
	BuzzerOnMs   int64
	BuzzerOffMs  int64
}

// DefaultConfig matches the original firmware's buzzer cadence.
func DefaultConfig() Config {
	return Config{BuzzerFreqHz: 2000, BuzzerOnMs: 500, BuzzerOffMs: 500}
}

// Machine owns the pit-deviation and meat-completion alarm state.
type Machine struct {
	clock hal.Clock
	out   hal.Outputs
	cfg   Config

	enabled bool

	pitBand     float64
	meat1Target float64
	meat2Target float64
	pitReached  bool

	pitTriggered   bool
	meat1Triggered bool
	meat2Triggered bool

	active []pitclaw.AlarmKind

	buzzerOn      bool
	lastToggleMs  int64
	wasAlarming   bool
}

// New returns a Machine with alarms enabled by default.
func New(clock hal.Clock, out hal.Outputs, cfg Config) *Machine {
	return &Machine{clock: clock, out: out, cfg: cfg, enabled: true}
}

// SetEnabled enables or disables the alarm machine. Disabling forces the
// buzzer off and bypasses all evaluation.
func (m *Machine) SetEnabled(enabled bool) {
	m.enabled = enabled
	if !enabled {
		m.silence()
	}
}

// SetPitBand sets the pit deviation band. Values <= 0 are rejected, keeping
// the prior value.
func (m *Machine) SetPitBand(band float64) {
	if band <= 0 {
		return
	}
	m.pitBand = band
}

// SetMeatTarget sets a meat probe's completion target. A value of 0 clears
// the target and re-arms the alarm for that probe.
func (m *Machine) SetMeatTarget(probe pitclaw.ProbeID, target float64) {
	switch probe {
	case pitclaw.ProbeMeat1:
		m.meat1Target = target
		m.meat1Triggered = false
	case pitclaw.ProbeMeat2:
		m.meat2Target = target
		m.meat2Triggered = false
	}
}

// SetPitReached arms the pit deviation alarm once the pit has first
// approached its setpoint.
func (m *Machine) SetPitReached(reached bool) {
	m.pitReached = reached
}

// Update evaluates pit deviation and meat completion for the current
// readings and advances the buzzer cadence.
func (m *Machine) Update(pit pitclaw.Reading, meat1 pitclaw.Reading, meat2 pitclaw.Reading, setpoint float64) {
	if !m.enabled {
		return
	}

	m.evaluatePit(pit, setpoint)
	m.evaluateMeat(pitclaw.AlarmMeat1Done, meat1, m.meat1Target, &m.meat1Triggered)
	m.evaluateMeat(pitclaw.AlarmMeat2Done, meat2, m.meat2Target, &m.meat2Triggered)

	m.updateBuzzer()
}

func (m *Machine) evaluatePit(pit pitclaw.Reading, setpoint float64) {
	if !m.pitReached || !pit.Valid || m.pitBand <= 0 {
		return
	}
	switch {
	case pit.Temperature > setpoint+m.pitBand:
		m.remove(pitclaw.AlarmPitLow)
		if !m.pitTriggered {
			m.add(pitclaw.AlarmPitHigh)
		}
	case pit.Temperature < setpoint-m.pitBand:
		m.remove(pitclaw.AlarmPitHigh)
		if !m.pitTriggered {
			m.add(pitclaw.AlarmPitLow)
		}
	default:
		m.remove(pitclaw.AlarmPitHigh)
		m.remove(pitclaw.AlarmPitLow)
		m.pitTriggered = false
	}
}

func (m *Machine) evaluateMeat(kind pitclaw.AlarmKind, reading pitclaw.Reading, target float64, triggered *bool) {
	if target <= 0 || !reading.Valid || reading.Temperature <= 0 {
		return
	}
	if reading.Temperature >= target && !*triggered {
		m.add(kind)
		*triggered = true
	}
}

// Acknowledge silences the buzzer, clears the active list, and locks out
// re-trigger of any currently-active alarm: a pit alarm re-arms once the pit
// returns within band, a meat alarm only when its target is set again.
func (m *Machine) Acknowledge() {
	for _, k := range m.active {
		switch k {
		case pitclaw.AlarmPitHigh, pitclaw.AlarmPitLow:
			m.pitTriggered = true
		case pitclaw.AlarmMeat1Done:
			m.meat1Triggered = true
		case pitclaw.AlarmMeat2Done:
			m.meat2Triggered = true
		}
	}
	m.silence()
}

func (m *Machine) silence() {
	m.active = m.active[:0]
	m.buzzerOn = false
	m.out.ToneOff()
}

// IsAlarming reports whether any alarm kind is currently active.
func (m *Machine) IsAlarming() bool { return len(m.active) > 0 }

// ActiveKinds returns the ordered list of active alarm kinds.
func (m *Machine) ActiveKinds() []pitclaw.AlarmKind {
	return append([]pitclaw.AlarmKind(nil), m.active...)
}

const maxActiveAlarms = 4

func (m *Machine) add(kind pitclaw.AlarmKind) {
	for _, k := range m.active {
		if k == kind {
			return
		}
	}
	if len(m.active) >= maxActiveAlarms {
		return
	}
	m.active = append(m.active, kind)
}

func (m *Machine) remove(kind pitclaw.AlarmKind) {
	for i, k := range m.active {
		if k == kind {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

func (m *Machine) updateBuzzer() {
	alarming := m.IsAlarming()
	now := m.clock.NowMonotonicMs()

	if !alarming {
		if m.buzzerOn {
			m.buzzerOn = false
			m.out.ToneOff()
		}
		m.wasAlarming = false
		return
	}

	if !m.wasAlarming {
		// Newly alarming: turn the buzzer on immediately rather than
		// waiting out a stale cadence window.
		m.wasAlarming = true
		m.buzzerOn = true
		m.lastToggleMs = now
		m.out.ToneOn(m.cfg.BuzzerFreqHz)
		return
	}

	cadence := m.cfg.BuzzerOffMs
	if m.buzzerOn {
		cadence = m.cfg.BuzzerOnMs
	}
	if now-m.lastToggleMs < cadence {
		return
	}
	m.lastToggleMs = now
	m.buzzerOn = !m.buzzerOn
	if m.buzzerOn {
		m.out.ToneOn(m.cfg.BuzzerFreqHz)
	} else {
		m.out.ToneOff()
	}
}
