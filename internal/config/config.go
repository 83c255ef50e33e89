// Package config loads the controller's tunable parameters (probe
// calibration, PID gains, actuator thresholds, alarm and session
// defaults) from a YAML file, the way itohio-golpm's pkg/config loads its
// hardware tunables: typed struct with yaml tags, sane Default(), and a
// Load that falls back to defaults field-by-field when the file is
// partial or absent.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pitclaw/internal/core/alarm"
	"pitclaw/internal/core/damper"
	"pitclaw/internal/core/errdetect"
	"pitclaw/internal/core/fan"
	"pitclaw/internal/core/pid"
	"pitclaw/internal/core/orchestrator"
	"pitclaw/internal/core/probe"
	"pitclaw/internal/core/session"
)

// ProbeConfig is the YAML-facing form of probe.Config.
type ProbeConfig struct {
	Name                string  `yaml:"name"`
	CoeffA              float64 `yaml:"coeff_a"`
	CoeffB              float64 `yaml:"coeff_b"`
	CoeffC              float64 `yaml:"coeff_c"`
	CalibrationOffset   float64 `yaml:"calibration_offset"`
	OpenThreshold       int32   `yaml:"open_threshold"`
	ShortThreshold      int32   `yaml:"short_threshold"`
	ReferenceResistance float64 `yaml:"reference_resistance"`
	ADCMax              float64 `yaml:"adc_max"`
}

// PIDConfig is the YAML-facing form of pid.Config.
type PIDConfig struct {
	Kp                float64 `yaml:"kp"`
	Ki                float64 `yaml:"ki"`
	Kd                float64 `yaml:"kd"`
	SampleMs          int64   `yaml:"sample_ms"`
	LidOpenDropPct    float64 `yaml:"lid_open_drop_pct"`
	LidOpenRecoverPct float64 `yaml:"lid_open_recover_pct"`
}

// FanConfig is the YAML-facing form of fan.Config.
type FanConfig struct {
	KickstartDuty      float64 `yaml:"kickstart_duty"`
	KickstartMs        int64   `yaml:"kickstart_ms"`
	LongPulseThreshold float64 `yaml:"long_pulse_threshold"`
	LongPulseCycleMs   int64   `yaml:"long_pulse_cycle_ms"`
	MinSpeed           float64 `yaml:"min_speed"`
	PWMChannel         int     `yaml:"pwm_channel"`
}

// DamperConfig is the YAML-facing form of damper.Config.
type DamperConfig struct {
	ClosedAngle float64 `yaml:"closed_angle"`
	OpenAngle   float64 `yaml:"open_angle"`
	MinUs       uint16  `yaml:"min_us"`
	MaxUs       uint16  `yaml:"max_us"`
}

// AlarmConfig is the YAML-facing form of alarm.Config.
type AlarmConfig struct {
	BuzzerFreqHz int   `yaml:"buzzer_freq_hz"`
	BuzzerOnMs   int64 `yaml:"buzzer_on_ms"`
	BuzzerOffMs  int64 `yaml:"buzzer_off_ms"`
}

// ErrorConfig is the YAML-facing form of errdetect.Config.
type ErrorConfig struct {
	FireOutRate       float64 `yaml:"fire_out_rate"`
	FireOutDurationMs int64   `yaml:"fire_out_duration_ms"`
	SampleGateMs      int64   `yaml:"sample_gate_ms"`
}

// SessionConfig is the YAML-facing form of session.Config.
type SessionConfig struct {
	Capacity         int    `yaml:"capacity"`
	SampleIntervalMs int64  `yaml:"sample_interval_ms"`
	FlushIntervalMs  int64  `yaml:"flush_interval_ms"`
	Path             string `yaml:"path"`
}

// Config is the complete controller tuning surface.
type Config struct {
	Probes           [3]ProbeConfig `yaml:"probes"` // order: pit, meat1, meat2
	Unit             string         `yaml:"unit"`   // "F" or "C"
	SampleIntervalMs int64          `yaml:"sample_interval_ms"`
	PID              PIDConfig      `yaml:"pid"`
	FanOnThreshold   float64        `yaml:"fan_on_threshold"`
	Fan              FanConfig      `yaml:"fan"`
	Damper           DamperConfig   `yaml:"damper"`
	Alarm            AlarmConfig    `yaml:"alarm"`
	Error            ErrorConfig    `yaml:"error"`
	Session          SessionConfig  `yaml:"session"`
}

// Default returns a configuration matching the firmware's original tuning.
func Default() *Config {
	coeff := probe.Coefficients{A: 0.0011, B: 0.00023, C: 0.0000000876}
	mkProbe := func(name string) ProbeConfig {
		return ProbeConfig{
			Name:                name,
			CoeffA:              coeff.A,
			CoeffB:              coeff.B,
			CoeffC:              coeff.C,
			OpenThreshold:       32000,
			ShortThreshold:      50,
			ReferenceResistance: probe.DefaultReferenceResistance,
			ADCMax:              probe.DefaultADCMax,
		}
	}

	pidDef := pid.DefaultConfig()
	fanDef := fan.DefaultConfig()
	damperDef := damper.DefaultConfig()
	alarmDef := alarm.DefaultConfig()
	errDef := errdetect.DefaultConfig()
	sessDef := session.DefaultConfig("cook_session.bin")

	return &Config{
		Probes:           [3]ProbeConfig{mkProbe("Pit"), mkProbe("Meat1"), mkProbe("Meat2")},
		Unit:             "F",
		SampleIntervalMs: 1000,
		PID: PIDConfig{
			Kp: pidDef.Kp, Ki: pidDef.Ki, Kd: pidDef.Kd,
			SampleMs:          pidDef.SampleMs,
			LidOpenDropPct:    pidDef.LidOpenDropPct,
			LidOpenRecoverPct: pidDef.LidOpenRecoverPct,
		},
		FanOnThreshold: 20,
		Fan: FanConfig{
			KickstartDuty:      fanDef.KickstartDuty,
			KickstartMs:        fanDef.KickstartMs,
			LongPulseThreshold: fanDef.LongPulseThreshold,
			LongPulseCycleMs:   fanDef.LongPulseCycleMs,
			MinSpeed:           fanDef.MinSpeed,
			PWMChannel:         fanDef.PWMChannel,
		},
		Damper: DamperConfig{
			ClosedAngle: damperDef.ClosedAngle,
			OpenAngle:   damperDef.OpenAngle,
			MinUs:       damperDef.MinUs,
			MaxUs:       damperDef.MaxUs,
		},
		Alarm: AlarmConfig{
			BuzzerFreqHz: alarmDef.BuzzerFreqHz,
			BuzzerOnMs:   alarmDef.BuzzerOnMs,
			BuzzerOffMs:  alarmDef.BuzzerOffMs,
		},
		Error: ErrorConfig{
			FireOutRate:       errDef.FireOutRate,
			FireOutDurationMs: errDef.FireOutDurationMs,
			SampleGateMs:      errDef.SampleGateMs,
		},
		Session: SessionConfig{
			Capacity:         sessDef.Capacity,
			SampleIntervalMs: sessDef.SampleIntervalMs,
			FlushIntervalMs:  sessDef.FlushIntervalMs,
			Path:             sessDef.Path,
		},
	}
}

// Load reads a controller tuning file. A missing file yields defaults; a
// present-but-partial file is merged field-by-field onto defaults via
// ensureDefaults, matching itohio-golpm's config loading behavior.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read controller config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse controller config: %w", err)
	}
	cfg.ensureDefaults()
	return cfg, nil
}

// Save persists the configuration as YAML to filename.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal controller config: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

func (c *Config) ensureDefaults() {
	def := Default()

	for i := range c.Probes {
		if c.Probes[i].Name == "" {
			c.Probes[i] = def.Probes[i]
		}
		if c.Probes[i].ReferenceResistance == 0 {
			c.Probes[i].ReferenceResistance = def.Probes[i].ReferenceResistance
		}
		if c.Probes[i].ADCMax == 0 {
			c.Probes[i].ADCMax = def.Probes[i].ADCMax
		}
	}
	if c.Unit == "" {
		c.Unit = def.Unit
	}
	if c.SampleIntervalMs == 0 {
		c.SampleIntervalMs = def.SampleIntervalMs
	}
	if c.PID.SampleMs == 0 {
		c.PID.SampleMs = def.PID.SampleMs
	}
	if c.PID.LidOpenDropPct == 0 {
		c.PID.LidOpenDropPct = def.PID.LidOpenDropPct
	}
	if c.PID.LidOpenRecoverPct == 0 {
		c.PID.LidOpenRecoverPct = def.PID.LidOpenRecoverPct
	}
	if c.FanOnThreshold == 0 {
		c.FanOnThreshold = def.FanOnThreshold
	}
	if c.Fan.KickstartDuty == 0 {
		c.Fan.KickstartDuty = def.Fan.KickstartDuty
	}
	if c.Fan.KickstartMs == 0 {
		c.Fan.KickstartMs = def.Fan.KickstartMs
	}
	if c.Fan.LongPulseThreshold == 0 {
		c.Fan.LongPulseThreshold = def.Fan.LongPulseThreshold
	}
	if c.Fan.LongPulseCycleMs == 0 {
		c.Fan.LongPulseCycleMs = def.Fan.LongPulseCycleMs
	}
	if c.Fan.MinSpeed == 0 {
		c.Fan.MinSpeed = def.Fan.MinSpeed
	}
	if c.Damper.OpenAngle == 0 {
		c.Damper.ClosedAngle = def.Damper.ClosedAngle
		c.Damper.OpenAngle = def.Damper.OpenAngle
	}
	if c.Damper.MinUs == 0 {
		c.Damper.MinUs = def.Damper.MinUs
	}
	if c.Damper.MaxUs == 0 {
		c.Damper.MaxUs = def.Damper.MaxUs
	}
	if c.Alarm.BuzzerFreqHz == 0 {
		c.Alarm.BuzzerFreqHz = def.Alarm.BuzzerFreqHz
	}
	if c.Alarm.BuzzerOnMs == 0 {
		c.Alarm.BuzzerOnMs = def.Alarm.BuzzerOnMs
	}
	if c.Alarm.BuzzerOffMs == 0 {
		c.Alarm.BuzzerOffMs = def.Alarm.BuzzerOffMs
	}
	if c.Error.FireOutRate == 0 {
		c.Error.FireOutRate = def.Error.FireOutRate
	}
	if c.Error.FireOutDurationMs == 0 {
		c.Error.FireOutDurationMs = def.Error.FireOutDurationMs
	}
	if c.Error.SampleGateMs == 0 {
		c.Error.SampleGateMs = def.Error.SampleGateMs
	}
	if c.Session.Capacity == 0 {
		c.Session.Capacity = def.Session.Capacity
	}
	if c.Session.SampleIntervalMs == 0 {
		c.Session.SampleIntervalMs = def.Session.SampleIntervalMs
	}
	if c.Session.FlushIntervalMs == 0 {
		c.Session.FlushIntervalMs = def.Session.FlushIntervalMs
	}
	if c.Session.Path == "" {
		c.Session.Path = def.Session.Path
	}
}

// ToOrchestratorConfig converts the YAML-facing configuration into the
// typed orchestrator.Config consumed by every subsystem constructor.
func (c *Config) ToOrchestratorConfig() orchestrator.Config {
	unit := probe.Fahrenheit
	if c.Unit == "C" {
		unit = probe.Celsius
	}

	var probes [3]probe.Config
	for i, p := range c.Probes {
		probes[i] = probe.Config{
			Name:                p.Name,
			Coefficients:        probe.Coefficients{A: p.CoeffA, B: p.CoeffB, C: p.CoeffC},
			CalibrationOffset:   p.CalibrationOffset,
			OpenThreshold:       p.OpenThreshold,
			ShortThreshold:      p.ShortThreshold,
			ReferenceResistance: p.ReferenceResistance,
			ADCMax:              p.ADCMax,
		}
	}

	return orchestrator.Config{
		Probes:           probes,
		Unit:             unit,
		SampleIntervalMs: c.SampleIntervalMs,
		PID: pid.Config{
			Kp: c.PID.Kp, Ki: c.PID.Ki, Kd: c.PID.Kd,
			SampleMs:          c.PID.SampleMs,
			LidOpenDropPct:    c.PID.LidOpenDropPct,
			LidOpenRecoverPct: c.PID.LidOpenRecoverPct,
		},
		FanOnThreshold: c.FanOnThreshold,
		Fan: fan.Config{
			KickstartDuty:      c.Fan.KickstartDuty,
			KickstartMs:        c.Fan.KickstartMs,
			LongPulseThreshold: c.Fan.LongPulseThreshold,
			LongPulseCycleMs:   c.Fan.LongPulseCycleMs,
			MinSpeed:           c.Fan.MinSpeed,
			PWMChannel:         c.Fan.PWMChannel,
		},
		Damper: damper.Config{
			ClosedAngle: c.Damper.ClosedAngle,
			OpenAngle:   c.Damper.OpenAngle,
			MinUs:       c.Damper.MinUs,
			MaxUs:       c.Damper.MaxUs,
		},
		Alarm: alarm.Config{
			BuzzerFreqHz: c.Alarm.BuzzerFreqHz,
			BuzzerOnMs:   c.Alarm.BuzzerOnMs,
			BuzzerOffMs:  c.Alarm.BuzzerOffMs,
		},
		Error: errdetect.Config{
			FireOutRate:       c.Error.FireOutRate,
			FireOutDurationMs: c.Error.FireOutDurationMs,
			SampleGateMs:      c.Error.SampleGateMs,
		},
		Session: session.Config{
			Capacity:         c.Session.Capacity,
			SampleIntervalMs: c.Session.SampleIntervalMs,
			FlushIntervalMs:  c.Session.FlushIntervalMs,
			Path:             c.Session.Path,
		},
	}
}
