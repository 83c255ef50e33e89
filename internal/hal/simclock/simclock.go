// Package simclock provides the only Clock implementations in this
// repository: Wall, backed by real time and used by cmd/pitclawd, and
// Fake, a manually-advanced counter used by every core package's tests.
package simclock

import "time"

// Wall is a Clock backed by the process's real wall clock. NowEpochOrZero
// always returns the current epoch second since the host process has no
// NTP-sync concept of its own.
type Wall struct {
	start time.Time
}

// NewWall returns a Wall clock anchored at the current time.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

func (w *Wall) NowMonotonicMs() int64 {
	return time.Since(w.start).Milliseconds()
}

func (w *Wall) NowEpochOrZero() int64 {
	return time.Now().Unix()
}

// Fake is a manually-advanced Clock for deterministic tests. EpochSynced
// starts false, matching the pre-NTP state the predictor and session
// recorder must tolerate.
type Fake struct {
	monoMs      int64
	epoch       int64
	epochSynced bool
}

// NewFake returns a Fake clock starting at monotonic 0 with no epoch sync.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) NowMonotonicMs() int64 {
	return f.monoMs
}

func (f *Fake) NowEpochOrZero() int64 {
	if !f.epochSynced {
		return 0
	}
	return f.epoch
}

// Advance moves the monotonic clock forward by ms milliseconds, and the
// epoch clock by the same amount once synced.
func (f *Fake) Advance(ms int64) {
	f.monoMs += ms
	if f.epochSynced {
		f.epoch += ms / 1000
	}
}

// SetEpoch syncs the epoch clock to the given value (simulating NTP lock).
func (f *Fake) SetEpoch(epoch int64) {
	f.epoch = epoch
	f.epochSynced = true
}
