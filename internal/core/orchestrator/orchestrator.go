// Package orchestrator is the central owner of every core subsystem; no
// subsystem holds a reference to another. It runs the fixed
// dependency-ordered tick, accepts command entry points on a
// mutex-guarded shadow applied at the top of the next tick, and produces
// the read-only state snapshot consumed by the transport layer.
package orchestrator

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"pitclaw"
	"pitclaw/internal/core/alarm"
	"pitclaw/internal/core/damper"
	"pitclaw/internal/core/errdetect"
	"pitclaw/internal/core/fan"
	"pitclaw/internal/core/pid"
	"pitclaw/internal/core/predictor"
	"pitclaw/internal/core/probe"
	"pitclaw/internal/core/session"
	"pitclaw/internal/core/splitrange"
	"pitclaw/internal/hal"
)

// pitReachedBandF is how close the pit must get to setpoint, from either
// side, before pitReached latches. Arming on proximity rather than only
// on overshoot means a cook that settles a few degrees under setpoint
// still arms the PitLow/PitHigh alarm band.
const pitReachedBandF = 5.0

// Config bundles the per-subsystem configuration needed to build an
// Orchestrator.
type Config struct {
	Probes          [3]probe.Config
	Unit            probe.Unit
	SampleIntervalMs int64

	PID pid.Config

	FanOnThreshold float64

	Fan    fan.Config
	Damper damper.Config
	Alarm  alarm.Config
	Error  errdetect.Config
	Session session.Config
}

// shadow holds pending command mutations; they are applied at the top of
// the next Tick rather than touching subsystem state directly from a
// caller's goroutine.
type shadow struct {
	setpoint        *float64
	meat1Target     *float64
	meat2Target     *float64
	pitBand         *float64
	acknowledge     bool
	startSession    bool
	endSession      bool
	clearSession    bool
	setAlarmEnabled *bool
	setLinkConn     *bool
	setFanManual    *uint8
	clearFanManual  bool
}

// AuditFunc is invoked once per applied command, letting cmd/pitclawd (via
// internal/service) record an audit trail without the orchestrator
// depending on a database.
type AuditFunc func(kind string, detail map[string]any)

// Orchestrator owns every subsystem exclusively; no subsystem holds a
// reference to any other.
type Orchestrator struct {
	clock hal.Clock
	cfg   Config

	probes  *probe.Sampler
	pid     *pid.Regulator
	fan     *fan.Actuator
	damper  *damper.Actuator
	alarm   *alarm.Machine
	errors  *errdetect.Detector
	meat1   *predictor.Window
	meat2   *predictor.Window
	session *session.Recorder

	setpoint   float64
	pitReached bool

	shadowMu sync.Mutex
	shadow   shadow
	audit    AuditFunc
}

// New wires every subsystem from cfg using the given Clock and Outputs
// capabilities.
func New(clock hal.Clock, fanOut, damperOut, buzzerOut hal.Outputs, cfg Config, audit AuditFunc) *Orchestrator {
	o := &Orchestrator{
		clock:   clock,
		cfg:     cfg,
		probes:  probe.New(clock, cfg.Unit, cfg.SampleIntervalMs, cfg.Probes),
		pid:     pid.New(clock, cfg.PID),
		fan:     fan.New(clock, fanOut, cfg.Fan),
		damper:  damper.New(damperOut, cfg.Damper),
		alarm:   alarm.New(clock, buzzerOut, cfg.Alarm),
		errors:  errdetect.New(clock, cfg.Error),
		meat1:   predictor.New(clock),
		meat2:   predictor.New(clock),
		session: session.New(clock, cfg.Session),
		audit:   audit,
	}
	o.pid.SetEnabled(true)
	return o
}

// Begin performs crash recovery of the persisted cook session. Call once
// at startup, before the first Tick.
func (o *Orchestrator) Begin() error {
	return o.session.Begin()
}

// Tick advances every subsystem by one quantum, in dependency order:
// probe sampling, PID, split-range, fan, damper, alarm, error detector,
// predictor, session recorder.
func (o *Orchestrator) Tick(raws [3]int32) {
	o.applyShadow()

	epoch := o.clock.NowEpochOrZero()

	o.probes.Poll(raws)

	pitReading := o.probes.Reading(pitclaw.ProbePit)
	meat1Reading := o.probes.Reading(pitclaw.ProbeMeat1)
	meat2Reading := o.probes.Reading(pitclaw.ProbeMeat2)

	if pitReading.Valid {
		o.pid.Update(pitReading.Temperature, o.setpoint)
		if !o.pitReached && o.setpoint > 0 && math.Abs(pitReading.Temperature-o.setpoint) <= pitReachedBandF {
			o.pitReached = true
		}
	}

	damperPct, fanPct := splitrange.Map(o.pid.Output(), o.cfg.FanOnThreshold)
	o.fan.SetTarget(fanPct)
	o.damper.SetPositionPct(damperPct)

	o.alarm.SetPitReached(o.pitReached)
	o.alarm.Update(pitReading, meat1Reading, meat2Reading, o.setpoint)

	for i := 0; i < 3; i++ {
		o.errors.UpdateProbe(i, o.probes.Name(pitclaw.ProbeID(i)), o.probes.Status(pitclaw.ProbeID(i)))
	}
	if pitReading.Valid {
		o.errors.UpdateFireOut(pitReading.Temperature, o.fan.EffectivePct())
	}

	if meat1Reading.Valid {
		o.meat1.Sample(o.probes.Status(pitclaw.ProbeMeat1) == pitclaw.ProbeOk, epoch, meat1Reading.Temperature)
	}
	if meat2Reading.Valid {
		o.meat2.Sample(o.probes.Status(pitclaw.ProbeMeat2) == pitclaw.ProbeOk, epoch, meat2Reading.Temperature)
	}

	o.session.Sample(epoch, session.Accessors{
		PitTemp:   func() (float64, bool) { return pitReading.Temperature, pitReading.Valid },
		Meat1Temp: func() (float64, bool) { return meat1Reading.Temperature, meat1Reading.Valid },
		Meat2Temp: func() (float64, bool) { return meat2Reading.Temperature, meat2Reading.Valid },
		FanPct:    o.fan.EffectivePct,
		DamperPct: o.damperPct,
		Flags:     o.sessionFlags,
	})
	_ = o.session.MaybeFlush()
}

func (o *Orchestrator) sessionFlags() uint8 {
	var flags uint8
	if o.pid.LidOpen() {
		flags |= session.FlagLidOpen
	}
	for _, k := range o.alarm.ActiveKinds() {
		switch k {
		case pitclaw.AlarmPitHigh, pitclaw.AlarmPitLow:
			flags |= session.FlagAlarmPit
		case pitclaw.AlarmMeat1Done:
			flags |= session.FlagAlarmMeat1
		case pitclaw.AlarmMeat2Done:
			flags |= session.FlagAlarmMeat2
		}
	}
	for _, e := range o.errors.Active() {
		if e.Kind == pitclaw.ErrorFireOut {
			flags |= session.FlagFireOut
		}
	}
	return flags
}

func (o *Orchestrator) applyShadow() {
	o.shadowMu.Lock()
	s := o.shadow
	o.shadow = shadow{}
	o.shadowMu.Unlock()

	if s.setpoint != nil {
		o.setpoint = *s.setpoint
		o.pitReached = false
		o.auditf("set_setpoint", map[string]any{"value": *s.setpoint})
	}
	if s.meat1Target != nil {
		o.meat1.SetTarget(*s.meat1Target)
		o.alarm.SetMeatTarget(pitclaw.ProbeMeat1, *s.meat1Target)
		o.meat1.Reset()
		o.auditf("set_meat_target", map[string]any{"probe": "meat1", "value": *s.meat1Target})
	}
	if s.meat2Target != nil {
		o.meat2.SetTarget(*s.meat2Target)
		o.alarm.SetMeatTarget(pitclaw.ProbeMeat2, *s.meat2Target)
		o.meat2.Reset()
		o.auditf("set_meat_target", map[string]any{"probe": "meat2", "value": *s.meat2Target})
	}
	if s.pitBand != nil {
		o.alarm.SetPitBand(*s.pitBand)
		o.auditf("set_pit_band", map[string]any{"value": *s.pitBand})
	}
	if s.acknowledge {
		o.alarm.Acknowledge()
		o.auditf("acknowledge_alarms", nil)
	}
	if s.startSession {
		o.session.StartSession(o.clock.NowEpochOrZero())
		o.auditf("start_session", nil)
	}
	if s.endSession {
		_ = o.session.EndSession()
		o.auditf("end_session", nil)
	}
	if s.clearSession {
		o.session.ClearSession()
		o.auditf("clear_session", nil)
	}
	if s.setAlarmEnabled != nil {
		o.alarm.SetEnabled(*s.setAlarmEnabled)
		o.auditf("set_alarm_enabled", map[string]any{"value": *s.setAlarmEnabled})
	}
	if s.setLinkConn != nil {
		o.errors.SetLinkConnected(*s.setLinkConn)
	}
	if s.setFanManual != nil {
		o.fan.SetManualDuty(*s.setFanManual)
	}
	if s.clearFanManual {
		o.fan.Off()
	}
}

func (o *Orchestrator) auditf(kind string, detail map[string]any) {
	if o.audit != nil {
		o.audit(kind, detail)
	}
}

// --- command entry points, callable from any goroutine ---

func (o *Orchestrator) SetSetpoint(degrees float64) {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	v := degrees
	o.shadow.setpoint = &v
}

func (o *Orchestrator) SetMeatTarget(p pitclaw.SetMeatTargetParams) {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	v := p.Temperature
	switch p.Probe {
	case pitclaw.ProbeMeat1:
		o.shadow.meat1Target = &v
	case pitclaw.ProbeMeat2:
		o.shadow.meat2Target = &v
	}
}

func (o *Orchestrator) SetPitBand(degrees float64) {
	if degrees <= 0 {
		return
	}
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	v := degrees
	o.shadow.pitBand = &v
}

func (o *Orchestrator) AcknowledgeAlarms() {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	o.shadow.acknowledge = true
}

func (o *Orchestrator) StartSession() {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	o.shadow.startSession = true
}

func (o *Orchestrator) EndSession() {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	o.shadow.endSession = true
}

func (o *Orchestrator) ClearSession() {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	o.shadow.clearSession = true
}

func (o *Orchestrator) SetAlarmEnabled(enabled bool) {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	v := enabled
	o.shadow.setAlarmEnabled = &v
}

func (o *Orchestrator) SetLinkConnected(connected bool) {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	v := connected
	o.shadow.setLinkConn = &v
}

func (o *Orchestrator) SetFanManualDuty(duty uint8) {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	v := duty
	o.shadow.setFanManual = &v
}

func (o *Orchestrator) ClearFanManualOverride() {
	o.shadowMu.Lock()
	defer o.shadowMu.Unlock()
	o.shadow.clearFanManual = true
}

// Snapshot returns the wire-level state snapshot consumed by the HTTP and
// WebSocket transport layers.
func (o *Orchestrator) Snapshot() pitclaw.StateSnapshot {
	snap := pitclaw.StateSnapshot{
		Timestamp:  time.Now().UTC(),
		Setpoint:   o.setpoint,
		Meat1Target: o.meat1.Target(),
		Meat2Target: o.meat2.Target(),
		FanPct:     o.fan.EffectivePct(),
		DamperPct:  o.damperPct(),
		LidOpen:    o.pid.LidOpen(),
		PitReached: o.pitReached,
		AlarmsOn:   o.alarm.IsAlarming(),
		SessionActive: o.session.Active(),
	}

	if r := o.probes.Reading(pitclaw.ProbePit); r.Valid {
		snap.PitTemp = &r.Temperature
	}
	if r := o.probes.Reading(pitclaw.ProbeMeat1); r.Valid {
		snap.Meat1Temp = &r.Temperature
	}
	if r := o.probes.Reading(pitclaw.ProbeMeat2); r.Valid {
		snap.Meat2Temp = &r.Temperature
	}

	for _, k := range o.alarm.ActiveKinds() {
		snap.ActiveAlarms = append(snap.ActiveAlarms, k.String())
	}
	for _, e := range o.errors.Active() {
		snap.ActiveErrors = append(snap.ActiveErrors, e.Message)
	}

	epoch := o.clock.NowEpochOrZero()
	if epoch > 0 {
		snap.ElapsedSec = o.session.ElapsedSec(epoch)
		if eta := o.meat1.ComputeETA(epoch); eta.Valid {
			snap.Meat1ETAEpoch = &eta.Epoch
		}
		if eta := o.meat2.ComputeETA(epoch); eta.Valid {
			snap.Meat2ETAEpoch = &eta.Epoch
		}
	}

	return snap
}

func (o *Orchestrator) damperPct() float64 {
	d := o.damper
	// Position is tracked as an angle; report it back as a percentage of
	// the configured travel for the snapshot.
	span := o.cfg.Damper.OpenAngle - o.cfg.Damper.ClosedAngle
	if span == 0 {
		return 0
	}
	return (d.AngleDegrees() - o.cfg.Damper.ClosedAngle) / span * 100
}

// NewEventID returns a fresh correlation id for tagging an audited
// command.
func NewEventID() string {
	return uuid.NewString()
}

// Session exposes read-only access to the cook session recorder for the
// CSV/JSON export routes and the audit trail.
func (o *Orchestrator) Session() *session.Recorder {
	return o.session
}
