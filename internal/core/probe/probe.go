// Package probe implements the Steinhart-Hart thermistor sampler: raw ADC
// counts in, calibrated temperature and connection status out.
package probe

import (
	"math"

	"pitclaw"
	"pitclaw/internal/hal"
)

// Defaults matching the original firmware's NTC divider (10k reference
// resistor, signed 16-bit ADC full scale).
const (
	DefaultReferenceResistance = 10000.0
	DefaultADCMax              = 32767.0
)

// Unit selects the temperature scale reported by a Sampler.
type Unit int

const (
	Celsius Unit = iota
	Fahrenheit
)

// Coefficients are the Steinhart-Hart calibration constants for one probe.
type Coefficients struct {
	A, B, C float64
}

// Config describes one probe channel.
type Config struct {
	Name               string
	Coefficients       Coefficients
	CalibrationOffset  float64 // additive, in the sampler's configured Unit
	OpenThreshold      int32   // raw >= this => Open
	ShortThreshold      int32   // raw <= this => Short
	ReferenceResistance float64
	ADCMax              float64
}

// State is one probe's last sample.
type State struct {
	LastRaw         int32
	LastTemperature float64
	Status          pitclaw.ProbeStatus
}

// Sampler holds three probe channels, gated by SampleIntervalMs.
type Sampler struct {
	clock            hal.Clock
	unit             Unit
	sampleIntervalMs int64
	lastSampleMs     int64
	sampled          bool

	configs [3]Config
	states  [3]State
}

// New builds a Sampler for the Pit/Meat1/Meat2 channels.
func New(clock hal.Clock, unit Unit, sampleIntervalMs int64, configs [3]Config) *Sampler {
	for i := range configs {
		if configs[i].ReferenceResistance == 0 {
			configs[i].ReferenceResistance = DefaultReferenceResistance
		}
		if configs[i].ADCMax == 0 {
			configs[i].ADCMax = DefaultADCMax
		}
	}
	return &Sampler{
		clock:            clock,
		unit:             unit,
		sampleIntervalMs: sampleIntervalMs,
		configs:          configs,
	}
}

// Poll reads the three raw ADC values if SampleIntervalMs has elapsed since
// the last poll. raws must be ordered Pit, Meat1, Meat2. Returns true if a
// sample was actually taken.
func (s *Sampler) Poll(raws [3]int32) bool {
	now := s.clock.NowMonotonicMs()
	if s.sampled && now-s.lastSampleMs < s.sampleIntervalMs {
		return false
	}
	s.lastSampleMs = now
	s.sampled = true
	for i := 0; i < 3; i++ {
		s.states[i] = sampleOne(s.configs[i], s.unit, raws[i])
	}
	return true
}

func sampleOne(cfg Config, unit Unit, raw int32) State {
	st := State{LastRaw: raw}

	st.Status = classify(raw, cfg.OpenThreshold, cfg.ShortThreshold)
	if st.Status != pitclaw.ProbeOk {
		st.LastTemperature = 0
		return st
	}

	r := resistance(raw, cfg.ReferenceResistance, cfg.ADCMax)
	st.LastTemperature = temperature(r, cfg.Coefficients, unit) + cfg.CalibrationOffset
	return st
}

func classify(raw, openThreshold, shortThreshold int32) pitclaw.ProbeStatus {
	switch {
	case raw >= openThreshold:
		return pitclaw.ProbeOpen
	case raw <= shortThreshold:
		return pitclaw.ProbeShort
	default:
		return pitclaw.ProbeOk
	}
}

// resistance computes the voltage-divider resistance for a raw ADC count.
// raw <= 0 returns 0 rather than a division error.
func resistance(raw int32, rref, adcMax float64) float64 {
	if raw <= 0 {
		return 0
	}
	return rref * (adcMax/float64(raw) - 1)
}

// temperature applies the Steinhart-Hart equation to a resistance and
// converts to the requested unit.
func temperature(r float64, c Coefficients, unit Unit) float64 {
	if r <= 0 {
		return 0
	}
	lnR := math.Log(r)
	invT := c.A + c.B*lnR + c.C*lnR*lnR*lnR
	if invT == 0 {
		return 0
	}
	tKelvin := 1 / invT
	tCelsius := tKelvin - 273.15
	if unit == Fahrenheit {
		return 1.8*tCelsius + 32
	}
	return tCelsius
}

// Reading returns the result-kind pair for one probe: Valid is false when
// the probe is Open or Short — consumers must not treat the returned zero
// temperature as meaningful.
func (s *Sampler) Reading(p pitclaw.ProbeID) pitclaw.Reading {
	st := s.states[p]
	if st.Status != pitclaw.ProbeOk {
		return pitclaw.Reading{}
	}
	return pitclaw.Reading{Temperature: st.LastTemperature, Valid: true}
}

// Status returns the connection status of a probe.
func (s *Sampler) Status(p pitclaw.ProbeID) pitclaw.ProbeStatus {
	return s.states[p].Status
}

// Name returns the configured name of a probe.
func (s *Sampler) Name(p pitclaw.ProbeID) string {
	return s.configs[p].Name
}
