package pid

import (
	"testing"

	"pitclaw/internal/hal/simclock"
)

func TestRegulator_LidOpenForcesZeroOutput(t *testing.T) {
	clk := simclock.NewFake()
	r := New(clk, DefaultConfig())
	r.SetEnabled(true)

	r.Update(300, 250) // well above setpoint, no lid-open
	if r.LidOpen() {
		t.Fatalf("did not expect lid-open")
	}

	clk.Advance(1000)
	r.Update(200, 250) // 250*(1-0.06)=235, 200 < 235 -> lid opens
	if !r.LidOpen() {
		t.Fatalf("expected lid-open at pit=200, setpoint=250")
	}
	if r.Output() != 0 {
		t.Fatalf("expected output 0 while lid-open, got %v", r.Output())
	}

	clk.Advance(1000)
	r.Update(245, 250) // 250*(1-0.02)=245, recovers at >=245
	if r.LidOpen() {
		t.Fatalf("expected lid-open to clear at pit=245")
	}
}

func TestRegulator_DisablingZeroesOutputAndLidOpen(t *testing.T) {
	clk := simclock.NewFake()
	r := New(clk, DefaultConfig())
	r.SetEnabled(true)
	r.Update(100, 250)
	clk.Advance(1000)
	r.Update(50, 250)
	if !r.LidOpen() {
		t.Fatalf("expected lid-open before disabling")
	}

	r.SetEnabled(false)
	if r.Output() != 0 || r.LidOpen() {
		t.Fatalf("expected output 0 and lid-open cleared after disable")
	}
}

func TestRegulator_OutputStaysWithinBounds(t *testing.T) {
	clk := simclock.NewFake()
	cfg := DefaultConfig()
	cfg.Kp = 50
	r := New(clk, cfg)
	r.SetEnabled(true)

	for i := 0; i < 10; i++ {
		r.Update(0, 250)
		clk.Advance(1000)
	}
	if r.Output() < 0 || r.Output() > 100 {
		t.Fatalf("output out of bounds: %v", r.Output())
	}
}

func TestRegulator_SetpointZeroDisablesLidOpen(t *testing.T) {
	clk := simclock.NewFake()
	r := New(clk, DefaultConfig())
	r.SetEnabled(true)
	r.Update(10, 0)
	if r.LidOpen() {
		t.Fatalf("expected lid-open detection disabled when setpoint<=0")
	}
}
