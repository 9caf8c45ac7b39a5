package envelope

import (
	"math"
	"testing"
)

const sr = 1000.0

func run(e *Envelope, gate float64, n int) float64 {
	var v float64
	for i := 0; i < n; i++ {
		v = e.Tick(gate)
	}
	return v
}

func TestIdleWithoutGate(t *testing.T) {
	e := New(sr, DefaultParams())
	if v := run(e, 0, 100); v != 0 || e.Stage() != Idle {
		t.Fatalf("ungated envelope = %v in %s, want 0 in idle", v, e.Stage())
	}
}

func TestFullADSRCycle(t *testing.T) {
	p := Params{AttackSec: 0.1, DecaySec: 0.2, SustainLvl: 0.4, ReleaseSec: 0.2}
	e := New(sr, p)

	run(e, 1, 50)
	if e.Stage() != Attack {
		t.Fatalf("after 50ms stage = %s, want attack", e.Stage())
	}
	if math.Abs(e.Level()-0.5) > 0.02 {
		t.Fatalf("mid attack level = %f, want ~0.5", e.Level())
	}

	run(e, 1, 50)
	if e.Stage() != Decay || e.Level() != 1 {
		t.Fatalf("after attack: stage=%s level=%f, want decay at 1", e.Stage(), e.Level())
	}

	run(e, 1, 200)
	if e.Stage() != Sustain || e.Level() != 0.4 {
		t.Fatalf("after decay: stage=%s level=%f, want sustain at 0.4", e.Stage(), e.Level())
	}

	run(e, 1, 1000)
	if e.Stage() != Sustain || e.Level() != 0.4 {
		t.Fatalf("sustain must hold: stage=%s level=%f", e.Stage(), e.Level())
	}

	run(e, -1, 100)
	if e.Stage() != Release || math.Abs(e.Level()-0.2) > 0.02 {
		t.Fatalf("mid release: stage=%s level=%f, want release ~0.2", e.Stage(), e.Level())
	}
	run(e, -1, 100)
	if e.Stage() != Idle || e.Level() != 0 {
		t.Fatalf("after release: stage=%s level=%f, want idle at 0", e.Stage(), e.Level())
	}
}

func TestLevelAlwaysInRange(t *testing.T) {
	e := New(sr, DefaultParams())
	gates := []float64{1, 0.5, 0, -1, 1, -1, 0.2, -0.3}
	for i := 0; i < 20000; i++ {
		g := gates[(i/137)%len(gates)]
		v := e.Tick(g)
		if v < 0 || v > 1 {
			t.Fatalf("tick %d: level %f out of [0,1]", i, v)
		}
		if (e.Stage() == Decay || e.Stage() == Sustain) && v > 1 {
			t.Fatalf("tick %d: level %f above ceiling in %s", i, v, e.Stage())
		}
		if e.Stage() == Sustain && v != e.Params().SustainLvl {
			t.Fatalf("tick %d: sustain level %f, want %f", i, v, e.Params().SustainLvl)
		}
	}
}

func TestReleaseMidAttackStartsFromCurrentLevel(t *testing.T) {
	e := New(sr, DefaultParams())
	prev := run(e, 1, 30)
	if e.Stage() != Attack {
		t.Fatalf("stage = %s, want attack", e.Stage())
	}
	const eps = 0.02
	for i := 0; i < 300; i++ {
		v := e.Tick(-1)
		if math.Abs(v-prev) > eps {
			t.Fatalf("tick %d after release: jump %f -> %f exceeds %f", i, prev, v, eps)
		}
		if v > prev {
			t.Fatalf("tick %d after release: level rose %f -> %f", i, prev, v)
		}
		prev = v
	}
	if e.Stage() != Idle {
		t.Fatalf("release did not finish: %s", e.Stage())
	}
}

func TestRetriggerFromReleaseIsContinuous(t *testing.T) {
	e := New(sr, DefaultParams())
	run(e, 1, 400)
	prev := run(e, -1, 50)
	if e.Stage() != Release {
		t.Fatalf("stage = %s, want release", e.Stage())
	}
	v := e.Tick(1)
	if e.Stage() != Attack {
		t.Fatalf("positive gate in release: stage = %s, want attack", e.Stage())
	}
	if math.Abs(v-prev) > 0.02 {
		t.Fatalf("retrigger jumped %f -> %f", prev, v)
	}
}

func TestZeroGateHoldsStage(t *testing.T) {
	e := New(sr, DefaultParams())
	run(e, 1, 400)
	run(e, 0, 100)
	if e.Stage() != Sustain {
		t.Fatalf("zero gate changed stage to %s", e.Stage())
	}
}

func TestZeroLengthStages(t *testing.T) {
	e := New(sr, Params{SustainLvl: 0.7})
	e.Tick(1)
	if e.Level() != 1 || e.Stage() != Decay {
		t.Fatalf("instant attack: level=%f stage=%s", e.Level(), e.Stage())
	}
	e.Tick(1)
	if e.Level() != 0.7 || e.Stage() != Sustain {
		t.Fatalf("instant decay: level=%f stage=%s", e.Level(), e.Stage())
	}
	e.Tick(-1)
	if e.Level() != 0 || e.Stage() != Idle {
		t.Fatalf("instant release: level=%f stage=%s", e.Level(), e.Stage())
	}
}

func TestSustainClamped(t *testing.T) {
	e := New(sr, Params{SustainLvl: 3})
	if e.Params().SustainLvl != 1 {
		t.Fatalf("sustain = %f, want clamped to 1", e.Params().SustainLvl)
	}
}
