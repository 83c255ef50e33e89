// Package predictor implements the per-probe meat-completion predictor: a
// circular window of (timestamp, temperature) samples and an ordinary
// least-squares ETA to a target temperature.
package predictor

import "pitclaw/internal/hal"

const (
	ringSize         = 60
	minSamples       = 12
	defaultCadenceMs = 5000
	horizonCapSec    = 24 * 60 * 60
)

type sample struct {
	epochSec    int64
	temperature float64
}

// Result is a {Slope, Valid} pair distinguishing a computed slope from
// "insufficient data" — consumers must not treat an invalid slope as 0.
type Result struct {
	Slope float64 // degrees/sec
	Valid bool
}

// ETA is a {Epoch, Valid} pair for the time-to-target prediction.
type ETA struct {
	Epoch int64
	Valid bool
}

// Window holds one probe's sample ring and target temperature.
type Window struct {
	clock hal.Clock

	ring       [ringSize]sample
	head       int
	count      int
	lastSample int64

	target float64
}

// New returns an empty Window.
func New(clock hal.Clock) *Window {
	return &Window{clock: clock}
}

// SetTarget sets the completion target temperature.
func (w *Window) SetTarget(target float64) {
	w.target = target
}

// Target returns the configured completion target.
func (w *Window) Target() float64 {
	return w.target
}

// Reset zeros head/count but preserves the target.
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
	w.lastSample = 0
}

// Sample records a probe reading if the probe is Ok and the wall clock has
// synced, gated at a 5 s cadence. epochSec must be > 0 (post-NTP).
func (w *Window) Sample(probeOk bool, epochSec int64, temperature float64) {
	if !probeOk || epochSec <= 0 {
		return
	}
	now := w.clock.NowMonotonicMs()
	if w.count > 0 && now-w.lastSample < defaultCadenceMs {
		return
	}
	w.lastSample = now

	w.ring[w.head] = sample{epochSec: epochSec, temperature: temperature}
	w.head = (w.head + 1) % ringSize
	if w.count < ringSize {
		w.count++
	}
}

// Slope performs OLS linear regression on (timestamp-t0, temperature) for
// the window's current samples, offsetting by the oldest timestamp to
// preserve floating-point precision. Returns an invalid Result when
// count < minSamples.
func (w *Window) Slope() Result {
	if w.count < minSamples {
		return Result{}
	}

	origin := w.oldestIndex()
	t0 := w.ring[origin].epochSec

	var n, sumX, sumY, sumXY, sumXX float64
	n = float64(w.count)
	for i := 0; i < w.count; i++ {
		idx := (origin + i) % ringSize
		s := w.ring[idx]
		x := float64(s.epochSec - t0)
		y := s.temperature
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Result{Slope: 0, Valid: true}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return Result{Slope: slope, Valid: true}
}

// oldestIndex returns the ring index of the oldest sample currently held.
func (w *Window) oldestIndex() int {
	if w.count < ringSize {
		return 0
	}
	return w.head
}

// latest returns the most recent sample's temperature; ok is false if the
// window is empty.
func (w *Window) latest() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	idx := w.head - 1
	if idx < 0 {
		idx += ringSize
	}
	return w.ring[idx].temperature, true
}

// ComputeETA returns the predicted completion epoch given the slope and
// the current monotonic->epoch mapping. nowEpoch is the current wall-clock
// epoch second. Returns an invalid ETA when there is no target, the
// latest reading is already at or past target, the slope is <= 0, or the
// projected time to target exceeds 24h.
func (w *Window) ComputeETA(nowEpoch int64) ETA {
	if w.target <= 0 {
		return ETA{}
	}
	current, ok := w.latest()
	if !ok {
		return ETA{}
	}
	if current >= w.target {
		return ETA{}
	}
	res := w.Slope()
	if !res.Valid || res.Slope <= 0 {
		return ETA{}
	}
	timeToTarget := (w.target - current) / res.Slope
	if timeToTarget > horizonCapSec {
		return ETA{}
	}
	return ETA{Epoch: nowEpoch + int64(timeToTarget), Valid: true}
}

// RatePerMinute converts the current slope to degrees/minute for display.
func (w *Window) RatePerMinute() Result {
	r := w.Slope()
	if !r.Valid {
		return r
	}
	return Result{Slope: r.Slope * 60, Valid: true}
}

// Count returns the number of samples currently held.
func (w *Window) Count() int { return w.count }
