package control

import (
	"math"
	"sync/atomic"
)

// Param identifies one scalar on the bus.
type Param int

const (
	Pitch Param = iota
	Volume
	PitchBend
	Gate
	numParams
)

var paramNames = [numParams]string{"pitch", "volume", "pitch_bend", "gate"}

func (p Param) String() string {
	if p < 0 || p >= numParams {
		return "unknown"
	}
	return paramNames[p]
}

// ParseParam maps a parameter name back to its Param.
func ParseParam(name string) (Param, bool) {
	for i, n := range paramNames {
		if n == name {
			return Param(i), true
		}
	}
	return 0, false
}

// Gate values written by the MIDI side.
const (
	GateOn      = 1.0
	GateRelease = -1.0
)

// cell holds one float64 as its bit pattern so loads and stores are atomic.
type cell struct {
	bits atomic.Uint64
}

func (c *cell) load() float64   { return math.Float64frombits(c.bits.Load()) }
func (c *cell) store(v float64) { c.bits.Store(math.Float64bits(v)) }

// Bus is the set of control parameters shared between the MIDI mapper
// (writer) and the audio render callback (reader). Every parameter is an
// independent atomic cell; there are no multi-parameter transactions, so a
// reader may observe one parameter updated and another not yet.
type Bus struct {
	cells [numParams]cell
}

// Values is a per-field copy of the bus for display. Fields are read one at a
// time and may mix old and new values.
type Values struct {
	Pitch     float64
	Volume    float64
	PitchBend float64
	Gate      float64
}

func NewBus() *Bus {
	b := &Bus{}
	b.cells[PitchBend].store(1)
	return b
}

// Set stores v for p. Unknown params are ignored.
func (b *Bus) Set(p Param, v float64) {
	if p < 0 || p >= numParams {
		return
	}
	b.cells[p].store(v)
}

// Get returns the most recent value of p, or 0 for an unknown param.
func (b *Bus) Get(p Param) float64 {
	if p < 0 || p >= numParams {
		return 0
	}
	return b.cells[p].load()
}

func (b *Bus) Pitch() float64     { return b.cells[Pitch].load() }
func (b *Bus) Volume() float64    { return b.cells[Volume].load() }
func (b *Bus) PitchBend() float64 { return b.cells[PitchBend].load() }
func (b *Bus) Gate() float64      { return b.cells[Gate].load() }

func (b *Bus) SetPitch(hz float64)    { b.cells[Pitch].store(hz) }
func (b *Bus) SetVolume(v float64)    { b.cells[Volume].store(v) }
func (b *Bus) SetPitchBend(f float64) { b.cells[PitchBend].store(f) }
func (b *Bus) SetGate(g float64)      { b.cells[Gate].store(g) }

func (b *Bus) Snapshot() Values {
	return Values{
		Pitch:     b.Pitch(),
		Volume:    b.Volume(),
		PitchBend: b.PitchBend(),
		Gate:      b.Gate(),
	}
}
