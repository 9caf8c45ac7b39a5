package envelope

// Stage is the current segment of the envelope.
type Stage int

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

func (s Stage) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	default:
		return "idle"
	}
}

type Params struct {
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ReleaseSec float64
}

func DefaultParams() Params {
	return Params{
		AttackSec:  0.1,
		DecaySec:   0.2,
		SustainLvl: 0.4,
		ReleaseSec: 0.2,
	}
}

// Envelope is an ADSR driven by a continuous gate signal. A positive gate
// starts Attack from Idle or Release; a negative gate starts Release from
// Attack, Decay or Sustain. Every segment starts at the current level so the
// output never jumps. Not safe for concurrent use; the render goroutine owns
// it.
type Envelope struct {
	params     Params
	sampleRate float64
	stage      Stage
	level      float64
	from       float64 // level at the start of the current segment
	elapsed    int64   // samples spent in the current segment
	length     int64   // total samples of the current segment
}

func New(sampleRate float64, params Params) *Envelope {
	if params.SustainLvl < 0 {
		params.SustainLvl = 0
	}
	if params.SustainLvl > 1 {
		params.SustainLvl = 1
	}
	return &Envelope{params: params, sampleRate: sampleRate}
}

func (e *Envelope) SetSampleRate(sampleRate float64) { e.sampleRate = sampleRate }

func (e *Envelope) Stage() Stage   { return e.stage }
func (e *Envelope) Level() float64 { return e.level }
func (e *Envelope) Params() Params { return e.params }

// Tick advances the envelope one sample using the current gate value and
// returns the new level in [0, 1].
func (e *Envelope) Tick(gate float64) float64 {
	switch {
	case gate > 0 && (e.stage == Idle || e.stage == Release):
		// Attack covers the remaining distance to 1 at the configured rate.
		e.enter(Attack, e.params.AttackSec*(1-e.level))
	case gate < 0 && (e.stage == Attack || e.stage == Decay || e.stage == Sustain):
		e.enter(Release, e.params.ReleaseSec)
	}

	switch e.stage {
	case Attack:
		if e.advance(1) {
			e.level = 1
			e.enter(Decay, e.params.DecaySec)
		}
	case Decay:
		if e.advance(e.params.SustainLvl) {
			e.level = e.params.SustainLvl
			e.stage = Sustain
		}
	case Sustain:
		e.level = e.params.SustainLvl
	case Release:
		if e.advance(0) {
			e.level = 0
			e.stage = Idle
		}
	}
	if e.level < 0 {
		e.level = 0
	} else if e.level > 1 {
		e.level = 1
	}
	return e.level
}

func (e *Envelope) enter(stage Stage, seconds float64) {
	e.stage = stage
	e.from = e.level
	e.elapsed = 0
	e.length = int64(seconds * e.sampleRate)
}

// advance moves one sample along a linear ramp from e.from to target and
// reports whether the segment has finished.
func (e *Envelope) advance(target float64) bool {
	if e.length <= 0 {
		return true
	}
	e.elapsed++
	if e.elapsed >= e.length {
		return true
	}
	frac := float64(e.elapsed) / float64(e.length)
	e.level = e.from + (target-e.from)*frac
	return false
}
