package fan

import (
	"testing"

	"pitclaw/internal/hal/simclock"
	"pitclaw/internal/hal/simio"
)

func newActuator() (*Actuator, *simclock.Fake, *simio.Recorder) {
	clk := simclock.NewFake()
	out := simio.NewRecorder()
	return New(clk, out, DefaultConfig()), clk, out
}

func TestFan_S1_Kickstart(t *testing.T) {
	a, _, _ := newActuator()
	a.SetTarget(30)
	if !a.IsKickStarting() {
		t.Fatalf("expected kickstart state")
	}
	if a.EffectivePct() != DefaultConfig().KickstartDuty {
		t.Fatalf("expected effective=%v, got %v", DefaultConfig().KickstartDuty, a.EffectivePct())
	}
}

func TestFan_KickstartThenNormal(t *testing.T) {
	a, clk, _ := newActuator()
	a.SetTarget(50)
	clk.Advance(DefaultConfig().KickstartMs + 1)
	a.SetTarget(50)
	if a.State() != Normal {
		t.Fatalf("expected Normal after kickstart elapses, got %v", a.State())
	}
	if a.EffectivePct() != 50 {
		t.Fatalf("expected effective=50, got %v", a.EffectivePct())
	}
}

func TestFan_MinSpeedClamp(t *testing.T) {
	a, clk, _ := newActuator()
	a.SetTarget(20)
	clk.Advance(DefaultConfig().KickstartMs + 1)
	a.SetTarget(12) // between longPulseThreshold(10) and minSpeed(15)
	if a.State() != Normal {
		t.Fatalf("expected Normal, got %v", a.State())
	}
	if a.EffectivePct() != DefaultConfig().MinSpeed {
		t.Fatalf("expected clamp to minSpeed, got %v", a.EffectivePct())
	}
}

func TestFan_LongPulseCycling(t *testing.T) {
	a, clk, out := newActuator()
	a.SetTarget(20)
	clk.Advance(DefaultConfig().KickstartMs + 1)
	a.SetTarget(5) // below longPulseThreshold(10) -> LongPulse
	if a.State() != LongPulse {
		t.Fatalf("expected LongPulse, got %v", a.State())
	}
	// on-fraction = 5/10 = 0.5, so first half of cycle should be on (minSpeed).
	if out.PWM[0] == 0 {
		t.Fatalf("expected nonzero duty at cycle start")
	}
	clk.Advance(DefaultConfig().LongPulseCycleMs / 2)
	a.SetTarget(5)
	// at exactly the midpoint, should be transitioning to off slice.
	clk.Advance(1)
	a.SetTarget(5)
	if out.PWM[0] != 0 {
		t.Fatalf("expected zero duty past on-slice, got %v", out.PWM[0])
	}
}

func TestFan_Off_ClearsFlagsAndTriggersKickstartAgain(t *testing.T) {
	a, clk, out := newActuator()
	a.SetTarget(50)
	clk.Advance(DefaultConfig().KickstartMs + 1)
	a.SetTarget(50)

	a.Off()
	if a.State() != Off || out.PWM[0] != 0 {
		t.Fatalf("expected Off state and duty 0")
	}

	a.SetTarget(40)
	if !a.IsKickStarting() {
		t.Fatalf("expected kickstart to retrigger after off()")
	}
}

func TestFan_TargetZeroGoesOff(t *testing.T) {
	a, _, out := newActuator()
	a.SetTarget(50)
	a.SetTarget(0)
	if a.State() != Off || out.PWM[0] != 0 {
		t.Fatalf("expected Off with duty 0 when target=0")
	}
}

func TestFan_ManualOverrideFreezesActuator(t *testing.T) {
	a, _, out := newActuator()
	a.SetManualDuty(200)
	a.SetTarget(80) // ignored while manual override active
	if out.PWM[0] != 200 {
		t.Fatalf("expected manual duty to persist, got %v", out.PWM[0])
	}
	a.Off()
	a.SetTarget(80)
	if !a.IsKickStarting() {
		t.Fatalf("expected normal kickstart behavior after off() exits manual mode")
	}
}

func TestFan_DutyStaysWithinByteBounds(t *testing.T) {
	a, clk, out := newActuator()
	for _, target := range []float64{0, 10, 30, 75, 100} {
		a.SetTarget(target)
		clk.Advance(100)
		if out.PWM[0] > 255 {
			t.Fatalf("duty out of byte bounds: %v", out.PWM[0])
		}
	}
}
