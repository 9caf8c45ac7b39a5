package control

import (
	"sync"
	"testing"
)

func TestBusDefaults(t *testing.T) {
	b := NewBus()
	got := b.Snapshot()
	want := Values{Pitch: 0, Volume: 0, PitchBend: 1, Gate: 0}
	if got != want {
		t.Fatalf("defaults = %+v, want %+v", got, want)
	}
}

func TestBusSetGetByParam(t *testing.T) {
	b := NewBus()
	cases := []struct {
		p Param
		v float64
	}{
		{Pitch, 261.63},
		{Volume, 0.5},
		{PitchBend, 1.0594},
		{Gate, GateRelease},
	}
	for _, tc := range cases {
		b.Set(tc.p, tc.v)
		if got := b.Get(tc.p); got != tc.v {
			t.Errorf("%s = %v, want %v", tc.p, got, tc.v)
		}
	}
	if b.Pitch() != 261.63 || b.Volume() != 0.5 || b.PitchBend() != 1.0594 || b.Gate() != -1 {
		t.Fatalf("typed accessors disagree with Get: %+v", b.Snapshot())
	}
}

func TestBusUnknownParamIgnored(t *testing.T) {
	b := NewBus()
	b.Set(Param(42), 7)
	b.Set(Param(-1), 7)
	if got := b.Get(Param(42)); got != 0 {
		t.Fatalf("unknown param read = %v, want 0", got)
	}
	if got := b.Snapshot(); got != (Values{PitchBend: 1}) {
		t.Fatalf("unknown param write leaked into bus: %+v", got)
	}
}

func TestParseParamRoundTrip(t *testing.T) {
	for p := Pitch; p < numParams; p++ {
		got, ok := ParseParam(p.String())
		if !ok || got != p {
			t.Errorf("ParseParam(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParseParam("cutoff"); ok {
		t.Error("ParseParam accepted unknown name")
	}
	if Param(9).String() != "unknown" {
		t.Errorf("out of range String = %q", Param(9).String())
	}
}

func TestBusConcurrentWriterReader(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			b.SetPitch(float64(i))
			b.SetGate(GateOn)
		}
	}()
	go func() {
		defer wg.Done()
		prev := -1.0
		for i := 0; i < 10000; i++ {
			p := b.Pitch()
			if p < prev {
				t.Errorf("pitch went backwards: %v after %v", p, prev)
				return
			}
			prev = p
		}
	}()
	wg.Wait()
	if b.Pitch() != 9999 {
		t.Fatalf("final pitch = %v, want 9999", b.Pitch())
	}
}
