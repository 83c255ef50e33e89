// Package fan implements the blower fan actuator state machine: kick-start,
// minimum-speed clamp, and sub-threshold long-pulse cycling.
package fan

import "pitclaw/internal/hal"

// State enumerates the actuator's phases.
type State int

const (
	Off State = iota
	Kickstart
	Normal
	LongPulse
)

func (s State) String() string {
	switch s {
	case Kickstart:
		return "kickstart"
	case Normal:
		return "normal"
	case LongPulse:
		return "long_pulse"
	default:
		return "off"
	}
}

// Config holds the actuator's tunables, matching the original firmware's
// defaults.
type Config struct {
	KickstartDuty      float64 // percent, default 75
	KickstartMs        int64
	LongPulseThreshold float64 // percent, default 10
	LongPulseCycleMs   int64
	MinSpeed           float64 // percent, default 15
	PWMChannel         int
}

// DefaultConfig returns the original firmware's constants.
func DefaultConfig() Config {
	return Config{
		KickstartDuty:      75,
		KickstartMs:        3000,
		LongPulseThreshold: 10,
		LongPulseCycleMs:   20000,
		MinSpeed:           15,
		PWMChannel:         0,
	}
}

// Actuator drives a single PWM duty value from a target speed percentage.
type Actuator struct {
	clock hal.Clock
	out   hal.Outputs
	cfg   Config

	state State

	wasOff         bool
	manualOverride bool
	manualDuty     uint8

	target      float64
	effective   float64
	kickstartEndMs int64
	longPulseCycleStartMs int64
	longPulseCycleStarted bool
}

// New returns an Actuator starting in the Off state.
func New(clock hal.Clock, out hal.Outputs, cfg Config) *Actuator {
	return &Actuator{clock: clock, out: out, cfg: cfg, state: Off, wasOff: true}
}

// SetManualDuty freezes the actuator at a fixed PWM duty byte until Off is
// called or a new automatic target is set after Off.
func (a *Actuator) SetManualDuty(duty uint8) {
	a.manualOverride = true
	a.manualDuty = duty
	a.out.WritePWM(a.cfg.PWMChannel, duty)
}

// Off transitions unconditionally to the Off state, clearing every flag and
// exiting manual override, and writes duty 0 immediately.
func (a *Actuator) Off() {
	a.state = Off
	a.wasOff = true
	a.manualOverride = false
	a.manualDuty = 0
	a.target = 0
	a.effective = 0
	a.longPulseCycleStarted = false
	a.out.WritePWM(a.cfg.PWMChannel, 0)
}

// SetTarget sets the automatic target speed percentage (0-100) and advances
// the state machine by one tick.
func (a *Actuator) SetTarget(targetPct float64) {
	if a.manualOverride {
		return
	}
	a.target = clamp(targetPct, 0, 100)
	a.advance()
}

// State returns the actuator's current phase.
func (a *Actuator) State() State { return a.state }

// IsKickStarting reports whether the actuator is in the Kickstart phase.
func (a *Actuator) IsKickStarting() bool { return a.state == Kickstart }

// EffectivePct returns the last computed effective duty percentage.
func (a *Actuator) EffectivePct() float64 { return a.effective }

func (a *Actuator) advance() {
	now := a.clock.NowMonotonicMs()

	if a.target <= 0 {
		a.Off()
		return
	}

	switch a.state {
	case Off:
		if a.wasOff {
			a.state = Kickstart
			a.kickstartEndMs = now + a.cfg.KickstartMs
			a.wasOff = false
			a.effective = a.cfg.KickstartDuty
			a.writeDuty(a.effective)
			return
		}
		a.state = Normal
		fallthrough
	case Normal:
		if a.target < a.cfg.LongPulseThreshold {
			a.state = LongPulse
			a.beginLongPulseCycle(now)
			a.runLongPulse(now)
			return
		}
		a.effective = maxf(a.target, a.cfg.MinSpeed)
		a.writeDuty(a.effective)
	case Kickstart:
		if now >= a.kickstartEndMs {
			if a.target < a.cfg.LongPulseThreshold {
				a.state = LongPulse
				a.beginLongPulseCycle(now)
				a.runLongPulse(now)
				return
			}
			a.state = Normal
			a.effective = maxf(a.target, a.cfg.MinSpeed)
			a.writeDuty(a.effective)
			return
		}
		a.effective = a.cfg.KickstartDuty
		a.writeDuty(a.effective)
	case LongPulse:
		if a.target >= a.cfg.LongPulseThreshold {
			a.state = Normal
			a.longPulseCycleStarted = false
			a.effective = maxf(a.target, a.cfg.MinSpeed)
			a.writeDuty(a.effective)
			return
		}
		a.runLongPulse(now)
	}
}

func (a *Actuator) beginLongPulseCycle(now int64) {
	if a.longPulseCycleStarted {
		return
	}
	a.longPulseCycleStartMs = now
	a.longPulseCycleStarted = true
}

// runLongPulse cycles the fan between minSpeed and off within a period of
// LongPulseCycleMs; the on-fraction is target/threshold, and the cycle is
// anchored to the moment of first entry into LongPulse, not re-anchored on
// every tick.
func (a *Actuator) runLongPulse(now int64) {
	period := a.cfg.LongPulseCycleMs
	if period <= 0 {
		period = 1
	}
	elapsed := (now - a.longPulseCycleStartMs) % period
	if elapsed < 0 {
		elapsed += period
	}

	onFraction := a.target / a.cfg.LongPulseThreshold
	onFraction = clamp(onFraction, 0, 1)
	onSlice := int64(onFraction * float64(period))

	if elapsed < onSlice {
		a.effective = a.cfg.MinSpeed
		a.writeDuty(a.effective)
	} else {
		a.effective = 0
		a.writeDuty(0)
	}
}

func (a *Actuator) writeDuty(pct float64) {
	duty := uint8(clamp(pct, 0, 100) / 100 * 255)
	a.out.WritePWM(a.cfg.PWMChannel, duty)
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

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
