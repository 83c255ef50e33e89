// Package damper implements the butterfly-damper servo actuator: a linear
// position-to-angle map followed by an angle-to-pulse-width map (spec
// §4.5).
package damper

import "pitclaw/internal/hal"

// Config holds the damper's mechanical limits.
type Config struct {
	ClosedAngle float64 // degrees
	OpenAngle   float64 // degrees
	MinUs       uint16  // pulse width at 0 degrees
	MaxUs       uint16  // pulse width at 180 degrees
}

// DefaultConfig matches a typical hobby servo.
func DefaultConfig() Config {
	return Config{
		ClosedAngle: 0,
		OpenAngle:   90,
		MinUs:       1000,
		MaxUs:       2000,
	}
}

// Actuator drives a single servo pulse-width command from a position
// percentage.
type Actuator struct {
	out hal.Outputs
	cfg Config

	angle float64
}

// New returns an Actuator initialized to the closed position.
func New(out hal.Outputs, cfg Config) *Actuator {
	a := &Actuator{out: out, cfg: cfg, angle: cfg.ClosedAngle}
	a.write()
	return a
}

// SetPositionPct maps a damper position percentage (0-100) to an angle and
// writes the corresponding servo pulse width.
func (a *Actuator) SetPositionPct(pct float64) {
	pct = clamp(pct, 0, 100)
	a.angle = a.cfg.ClosedAngle + (a.cfg.OpenAngle-a.cfg.ClosedAngle)*(pct/100)
	a.write()
}

// AngleDegrees returns the current commanded angle.
func (a *Actuator) AngleDegrees() float64 { return a.angle }

func (a *Actuator) write() {
	us := angleToPulseWidth(a.angle, a.cfg.MinUs, a.cfg.MaxUs)
	a.out.WriteServoUs(us)
}

func angleToPulseWidth(angle float64, minUs, maxUs uint16) uint16 {
	angle = clamp(angle, 0, 180)
	span := float64(maxUs) - float64(minUs)
	us := float64(minUs) + span*(angle/180)
	return uint16(us)
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
