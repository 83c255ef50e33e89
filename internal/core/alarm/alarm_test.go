package alarm

import (
	"testing"

	"pitclaw"
	"pitclaw/internal/hal/simclock"
	"pitclaw/internal/hal/simio"
)

func newMachine() (*Machine, *simclock.Fake, *simio.Recorder) {
	clk := simclock.NewFake()
	out := simio.NewRecorder()
	return New(clk, out, DefaultConfig()), clk, out
}

func hasKind(kinds []pitclaw.AlarmKind, want pitclaw.AlarmKind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func TestAlarm_S2_PitDeviationArm(t *testing.T) {
	m, _, _ := newMachine()
	m.SetPitBand(15)

	m.Update(pitclaw.Reading{Temperature: 300, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	if m.IsAlarming() {
		t.Fatalf("expected no alarm before pitReached")
	}

	m.SetPitReached(true)
	m.Update(pitclaw.Reading{Temperature: 300, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	if !hasKind(m.ActiveKinds(), pitclaw.AlarmPitHigh) {
		t.Fatalf("expected PitHigh active")
	}

	m.Update(pitclaw.Reading{Temperature: 255, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	if hasKind(m.ActiveKinds(), pitclaw.AlarmPitHigh) {
		t.Fatalf("expected PitHigh cleared within band")
	}
}

func TestAlarm_S3_MeatCompletionHysteresis(t *testing.T) {
	m, _, _ := newMachine()
	m.SetMeatTarget(pitclaw.ProbeMeat1, 200)

	m.Update(pitclaw.Reading{}, pitclaw.Reading{Temperature: 200, Valid: true}, pitclaw.Reading{}, 0)
	if !hasKind(m.ActiveKinds(), pitclaw.AlarmMeat1Done) {
		t.Fatalf("expected Meat1Done active")
	}

	m.Acknowledge()
	if m.IsAlarming() {
		t.Fatalf("expected alarms silenced after acknowledge")
	}

	m.Update(pitclaw.Reading{}, pitclaw.Reading{Temperature: 205, Valid: true}, pitclaw.Reading{}, 0)
	if m.IsAlarming() {
		t.Fatalf("expected no re-fire without new target")
	}

	m.SetMeatTarget(pitclaw.ProbeMeat1, 210)
	m.Update(pitclaw.Reading{}, pitclaw.Reading{Temperature: 210, Valid: true}, pitclaw.Reading{}, 0)
	if !hasKind(m.ActiveKinds(), pitclaw.AlarmMeat1Done) {
		t.Fatalf("expected Meat1Done to re-fire after new target")
	}
}

func TestAlarm_PitHighAndLowNeverSimultaneous(t *testing.T) {
	m, _, _ := newMachine()
	m.SetPitBand(15)
	m.SetPitReached(true)

	m.Update(pitclaw.Reading{Temperature: 300, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	m.Update(pitclaw.Reading{Temperature: 100, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)

	kinds := m.ActiveKinds()
	if hasKind(kinds, pitclaw.AlarmPitHigh) && hasKind(kinds, pitclaw.AlarmPitLow) {
		t.Fatalf("expected PitHigh and PitLow never simultaneous, got %v", kinds)
	}
}

func TestAlarm_DisableForcesBuzzerOffAndBypassesEvaluation(t *testing.T) {
	m, _, out := newMachine()
	m.SetPitBand(15)
	m.SetPitReached(true)
	m.Update(pitclaw.Reading{Temperature: 300, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	if !m.IsAlarming() {
		t.Fatalf("expected alarm active before disable")
	}

	m.SetEnabled(false)
	if m.IsAlarming() || out.BuzzerOn {
		t.Fatalf("expected alarms and buzzer cleared on disable")
	}

	m.Update(pitclaw.Reading{Temperature: 400, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	if m.IsAlarming() {
		t.Fatalf("expected evaluation bypassed while disabled")
	}
}

func TestAlarm_BuzzerCadence(t *testing.T) {
	m, clk, out := newMachine()
	m.SetPitBand(15)
	m.SetPitReached(true)
	m.Update(pitclaw.Reading{Temperature: 300, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)

	if !out.BuzzerOn {
		t.Fatalf("expected buzzer on immediately at first alarm toggle")
	}

	clk.Advance(DefaultConfig().BuzzerOnMs + 1)
	m.Update(pitclaw.Reading{Temperature: 300, Valid: true}, pitclaw.Reading{}, pitclaw.Reading{}, 250)
	if out.BuzzerOn {
		t.Fatalf("expected buzzer to toggle off after onMs")
	}
}
