package osc

import "math"

const twoPi = math.Pi * 2

// Waveform selects the shape produced by an Oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Triangle
	Square
)

// Oscillator is a phase accumulator producing one periodic waveform.
// Phase stays in [0, 1) regardless of how long it runs.
type Oscillator struct {
	Wave  Waveform
	phase float64
}

// Sample returns the value at the current phase in [-1, 1] and advances the
// phase by freq/sampleRate. Non-positive sample rates return silence.
func (o *Oscillator) Sample(freq, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	v := Shape(o.Wave, o.phase)
	o.phase += freq / sampleRate
	if o.phase >= 1 || o.phase < 0 {
		o.phase -= math.Floor(o.phase)
	}
	return v
}

// Phase reports the current phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// Shape evaluates a waveform at phase p in [0, 1).
func Shape(w Waveform, p float64) float64 {
	switch w {
	case Saw:
		return 2*p - 1
	case Triangle:
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(twoPi * p)
	}
}

// LowPass is a one-pole RC low-pass filter.
type LowPass struct {
	alpha float64
	state float64
}

// SetCutoff recomputes the smoothing coefficient. A cutoff of zero or at or
// above Nyquist disables the filter.
func (f *LowPass) SetCutoff(cutoffHz, sampleRate float64) {
	if cutoffHz <= 0 || sampleRate <= 0 || cutoffHz >= sampleRate/2 {
		f.alpha = 0
		return
	}
	rc := 1.0 / (twoPi * cutoffHz)
	dt := 1.0 / sampleRate
	f.alpha = dt / (rc + dt)
}

func (f *LowPass) Process(x float64) float64 {
	if f.alpha == 0 {
		return x
	}
	f.state += f.alpha * (x - f.state)
	return f.state
}
