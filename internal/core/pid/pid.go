// Package pid implements the direct-acting PID regulator and its sticky
// lid-open detector.
package pid

import "pitclaw/internal/hal"

// Config holds the tunable regulator parameters.
type Config struct {
	Kp, Ki, Kd float64
	SampleMs   int64

	// LidOpenDropPct and LidOpenRecoverPct are percentages of setpoint.
	LidOpenDropPct    float64
	LidOpenRecoverPct float64
}

// DefaultConfig matches the original firmware's defaults.
func DefaultConfig() Config {
	return Config{
		SampleMs:          1000,
		LidOpenDropPct:    6,
		LidOpenRecoverPct: 2,
	}
}

// Regulator is the PID + lid-open state machine.
type Regulator struct {
	clock hal.Clock
	cfg   Config

	lastSampleMs int64

	integral    float64
	prevError   float64
	output      float64
	enabled     bool
	lidOpen     bool
	initialized bool
}

// New returns a disabled Regulator.
func New(clock hal.Clock, cfg Config) *Regulator {
	return &Regulator{clock: clock, cfg: cfg}
}

// SetEnabled enables or disables the regulator. Disabling forces output to
// 0 and clears the lid-open flag.
func (r *Regulator) SetEnabled(enabled bool) {
	r.enabled = enabled
	if !enabled {
		r.output = 0
		r.lidOpen = false
	}
}

// Enabled reports whether the regulator is active.
func (r *Regulator) Enabled() bool { return r.enabled }

// LidOpen reports the sticky lid-open flag.
func (r *Regulator) LidOpen() bool { return r.lidOpen }

// Output returns the last computed control output in [0, 100].
func (r *Regulator) Output() float64 { return r.output }

// Update advances the regulator by one potential sample if SampleMs has
// elapsed. pitTemp is the current reading (invalid readings should not be
// passed in by the caller's orchestrator — the probe's status gates this).
func (r *Regulator) Update(pitTemp, setpoint float64) {
	now := r.clock.NowMonotonicMs()
	if r.initialized && now-r.lastSampleMs < r.cfg.SampleMs {
		return
	}
	r.lastSampleMs = now
	r.initialized = true

	if !r.enabled {
		r.output = 0
		r.lidOpen = false
		return
	}

	r.updateLidOpen(pitTemp, setpoint)
	if r.lidOpen {
		r.output = 0
		return
	}

	r.step(pitTemp, setpoint)
}

func (r *Regulator) updateLidOpen(pitTemp, setpoint float64) {
	if setpoint <= 0 {
		r.lidOpen = false
		return
	}
	if r.lidOpen {
		if pitTemp >= setpoint*(1-r.cfg.LidOpenRecoverPct/100) {
			r.lidOpen = false
		}
		return
	}
	if pitTemp < setpoint*(1-r.cfg.LidOpenDropPct/100) {
		r.lidOpen = true
	}
}

func (r *Regulator) step(pitTemp, setpoint float64) {
	err := setpoint - pitTemp

	unclamped := r.cfg.Kp*err + r.cfg.Ki*(r.integral+err) + r.cfg.Kd*(err-r.prevError)
	out := clamp(unclamped, 0, 100)

	windingUp := (unclamped > out && err > 0) || (unclamped < out && err < 0)
	if !windingUp {
		r.integral += err
	}

	r.prevError = err
	r.output = out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
