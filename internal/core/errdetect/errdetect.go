// Package errdetect maintains the active error list: probe open/short,
// fire-out (sustained decline at saturated fan), and link-lost (spec
// §4.7).
package errdetect

import (
	"fmt"

	"pitclaw"
	"pitclaw/internal/hal"
)

// Config holds the fire-out detector's tunables.
type Config struct {
	FireOutRate        float64 // degrees/min
	FireOutDurationMs  int64
	SampleGateMs       int64 // cadence of the fire-out ring, default 60000
}

// DefaultConfig matches the original firmware's fire-out thresholds.
func DefaultConfig() Config {
	return Config{FireOutRate: 5, FireOutDurationMs: 10 * 60 * 1000, SampleGateMs: 60000}
}

const maxActiveErrors = 8
const fireOutRingSize = 10

// Detector owns the active error list and the fire-out ring.
type Detector struct {
	clock hal.Clock
	cfg   Config

	active []pitclaw.ActiveError

	ring        [fireOutRingSize]float64
	ringHead    int
	ringCount   int
	lastSampleMs int64
	declining   bool
	declineStartMs int64

	linkConnected bool
}

// New returns a Detector with the link assumed connected.
func New(clock hal.Clock, cfg Config) *Detector {
	return &Detector{clock: clock, cfg: cfg, linkConnected: true}
}

// UpdateProbe reconciles the ProbeOpen/ProbeShort entries for one probe
// index against its current status. Adds and removes are idempotent on
// (kind, probeIndex).
func (d *Detector) UpdateProbe(index int, name string, status pitclaw.ProbeStatus) {
	switch status {
	case pitclaw.ProbeOpen:
		d.remove(pitclaw.ErrorProbeShort, index)
		d.add(pitclaw.ErrorProbeOpen, index, fmt.Sprintf("%s probe disconnected", name))
	case pitclaw.ProbeShort:
		d.remove(pitclaw.ErrorProbeOpen, index)
		d.add(pitclaw.ErrorProbeShort, index, fmt.Sprintf("%s probe shorted", name))
	default:
		d.remove(pitclaw.ErrorProbeOpen, index)
		d.remove(pitclaw.ErrorProbeShort, index)
	}
}

// UpdateFireOut samples pitTemp once per SampleGateMs and evaluates the
// sustained-decline-at-saturated-fan condition.
func (d *Detector) UpdateFireOut(pitTemp, fanPct float64) {
	now := d.clock.NowMonotonicMs()
	if now-d.lastSampleMs < d.cfg.SampleGateMs && d.ringCount > 0 {
		return
	}
	d.lastSampleMs = now

	prevValid := d.ringCount >= 1
	var prevTemp float64
	if prevValid {
		prevTemp = d.ring[prevIndex(d.ringHead, d.ringCount)]
	}

	d.push(pitTemp)

	if d.ringCount < 2 || prevTemp <= 0 {
		d.clearDecline()
		return
	}

	ratePerMin := prevTemp - pitTemp
	if ratePerMin >= d.cfg.FireOutRate && fanPct >= 95 {
		if !d.declining {
			d.declining = true
			d.declineStartMs = now
		}
		if now-d.declineStartMs >= d.cfg.FireOutDurationMs {
			d.add(pitclaw.ErrorFireOut, -1, "fire out: pit temperature declining at saturated fan")
		}
		return
	}
	d.clearDecline()
}

func (d *Detector) clearDecline() {
	d.declining = false
	d.declineStartMs = 0
	d.remove(pitclaw.ErrorFireOut, -1)
}

func (d *Detector) push(v float64) {
	d.ring[d.ringHead] = v
	d.ringHead = (d.ringHead + 1) % fireOutRingSize
	if d.ringCount < fireOutRingSize {
		d.ringCount++
	}
}

func prevIndex(head, count int) int {
	_ = count
	idx := head - 1
	if idx < 0 {
		idx += fireOutRingSize
	}
	return idx
}

// SetLinkConnected adds or removes the LinkLost error depending on the
// boolean.
func (d *Detector) SetLinkConnected(connected bool) {
	d.linkConnected = connected
	if connected {
		d.remove(pitclaw.ErrorLinkLost, -1)
	} else {
		d.add(pitclaw.ErrorLinkLost, -1, "network link lost")
	}
}

// Active returns the ordered list of currently active errors.
func (d *Detector) Active() []pitclaw.ActiveError {
	return append([]pitclaw.ActiveError(nil), d.active...)
}

func (d *Detector) add(kind pitclaw.ErrorKind, probeIndex int, message string) {
	for i, e := range d.active {
		if e.Kind == kind && e.ProbeIndex == probeIndex {
			d.active[i].Message = message
			return
		}
	}
	if len(d.active) >= maxActiveErrors {
		return
	}
	d.active = append(d.active, pitclaw.ActiveError{Kind: kind, ProbeIndex: probeIndex, Message: message})
}

func (d *Detector) remove(kind pitclaw.ErrorKind, probeIndex int) {
	for i, e := range d.active {
		if e.Kind == kind && e.ProbeIndex == probeIndex {
			d.active = append(d.active[:i], d.active[i+1:]...)
			return
		}
	}
}
