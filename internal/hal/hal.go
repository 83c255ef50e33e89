// Package hal defines the capability interfaces every core subsystem uses
// in place of direct hardware calls: a clock and a set of output ports.
// There is no real ESP32 target in this repository; internal/hal/simclock
// and internal/hal/simio are the only implementations, used by both
// cmd/pitclawd and every core package's tests.
package hal

// Clock abstracts time. NowMonotonicMs gates the fixed-cadence work every
// subsystem does; NowEpochOrZero returns 0 until wall-clock time has been
// synced (NTP on the real board), which the predictor and session recorder
// must treat as "not yet available" rather than as epoch zero.
type Clock interface {
	NowMonotonicMs() int64
	NowEpochOrZero() int64
}

// Outputs abstracts the physical actuators: the fan PWM channel, the
// damper servo, and the buzzer.
type Outputs interface {
	WritePWM(channel int, duty uint8)
	WriteServoUs(us uint16)
	ToneOn(freqHz int)
	ToneOff()
}
