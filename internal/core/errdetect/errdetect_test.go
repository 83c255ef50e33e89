package errdetect

import (
	"testing"

	"pitclaw"
	"pitclaw/internal/hal/simclock"
)

func hasErrorKind(active []pitclaw.ActiveError, kind pitclaw.ErrorKind) bool {
	for _, e := range active {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestDetector_ProbeErrorsIdempotent(t *testing.T) {
	clk := simclock.NewFake()
	d := New(clk, DefaultConfig())

	d.UpdateProbe(0, "Pit", pitclaw.ProbeOpen)
	d.UpdateProbe(0, "Pit", pitclaw.ProbeOpen)
	if n := len(d.Active()); n != 1 {
		t.Fatalf("expected idempotent add, got %d entries", n)
	}

	d.UpdateProbe(0, "Pit", pitclaw.ProbeShort)
	active := d.Active()
	if hasErrorKind(active, pitclaw.ErrorProbeOpen) {
		t.Fatalf("expected ProbeOpen removed when probe goes short")
	}
	if !hasErrorKind(active, pitclaw.ErrorProbeShort) {
		t.Fatalf("expected ProbeShort added")
	}

	d.UpdateProbe(0, "Pit", pitclaw.ProbeOk)
	if len(d.Active()) != 0 {
		t.Fatalf("expected both errors removed when probe recovers")
	}
}

func TestDetector_FireOutAfterSustainedDecline(t *testing.T) {
	clk := simclock.NewFake()
	cfg := DefaultConfig()
	d := New(clk, cfg)

	temp := 300.0
	d.UpdateFireOut(temp, 100) // first sample, no rate yet

	for i := 0; i < 11; i++ {
		clk.Advance(cfg.SampleGateMs)
		temp -= 6 // 6 deg/min decline, fan saturated
		d.UpdateFireOut(temp, 100)
	}

	if !hasErrorKind(d.Active(), pitclaw.ErrorFireOut) {
		t.Fatalf("expected FireOut after sustained decline, active=%v", d.Active())
	}
}

func TestDetector_FireOutClearsWhenDeclineStops(t *testing.T) {
	clk := simclock.NewFake()
	cfg := DefaultConfig()
	d := New(clk, cfg)

	temp := 300.0
	d.UpdateFireOut(temp, 100)
	for i := 0; i < 11; i++ {
		clk.Advance(cfg.SampleGateMs)
		temp -= 6
		d.UpdateFireOut(temp, 100)
	}
	if !hasErrorKind(d.Active(), pitclaw.ErrorFireOut) {
		t.Fatalf("expected FireOut active before recovery")
	}

	clk.Advance(cfg.SampleGateMs)
	d.UpdateFireOut(temp, 50) // fan no longer saturated
	if hasErrorKind(d.Active(), pitclaw.ErrorFireOut) {
		t.Fatalf("expected FireOut cleared once fan unsaturates")
	}
}

func TestDetector_LinkLostToggle(t *testing.T) {
	clk := simclock.NewFake()
	d := New(clk, DefaultConfig())

	d.SetLinkConnected(false)
	if !hasErrorKind(d.Active(), pitclaw.ErrorLinkLost) {
		t.Fatalf("expected LinkLost when disconnected")
	}
	d.SetLinkConnected(true)
	if hasErrorKind(d.Active(), pitclaw.ErrorLinkLost) {
		t.Fatalf("expected LinkLost cleared when reconnected")
	}
}

func TestDetector_ActiveListCapped(t *testing.T) {
	clk := simclock.NewFake()
	d := New(clk, DefaultConfig())

	for i := 0; i < 20; i++ {
		d.UpdateProbe(i, "probe", pitclaw.ProbeOpen)
	}
	if len(d.Active()) > 8 {
		t.Fatalf("expected active list capped at 8, got %d", len(d.Active()))
	}
}
