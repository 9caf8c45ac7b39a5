package graph

import (
	"fmt"
	"strings"

	"github.com/cbegin/midisynth-go/internal/osc"
)

// VoiceKind selects the oscillator layout of the graph.
type VoiceKind string

const (
	VoiceSine    VoiceKind = "sine"
	VoiceLayered VoiceKind = "layered"
)

func ParseVoiceKind(name string) (VoiceKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "":
		return VoiceSine, nil
	case "layered":
		return VoiceLayered, nil
	default:
		return "", fmt.Errorf("invalid voice %q (expected sine|layered)", name)
	}
}

// voice produces the raw oscillator sample for one tick.
type voice interface {
	setSampleRate(sampleRate float64)
	next(freq float64) float64
	headroom() float64
}

func newVoice(kind VoiceKind) voice {
	if kind == VoiceLayered {
		return &layeredVoice{}
	}
	return &sineVoice{}
}

type sineVoice struct {
	sampleRate float64
	osc        osc.Oscillator
}

func (v *sineVoice) setSampleRate(sampleRate float64) { v.sampleRate = sampleRate }
func (v *sineVoice) next(freq float64) float64        { return v.osc.Sample(freq, v.sampleRate) }
func (v *sineVoice) headroom() float64                { return 1 }

const (
	detuneDown   = 0.997
	detuneUp     = 1.003
	subGain      = 0.5
	fifthGain    = 0.3
	layeredPeak  = 1 + 1 + subGain + fifthGain
	layeredLPFHz = 3200
)

// layeredVoice stacks two detuned saws, a sub-octave triangle and a square a
// fifth above, then rounds the sum off with two one-pole low-pass stages.
type layeredVoice struct {
	sampleRate float64
	sawLo      osc.Oscillator
	sawHi      osc.Oscillator
	sub        osc.Oscillator
	fifth      osc.Oscillator
	lpf1       osc.LowPass
	lpf2       osc.LowPass
}

func (v *layeredVoice) setSampleRate(sampleRate float64) {
	v.sampleRate = sampleRate
	v.sawLo.Wave = osc.Saw
	v.sawHi.Wave = osc.Saw
	v.sub.Wave = osc.Triangle
	v.fifth.Wave = osc.Square
	v.lpf1.SetCutoff(layeredLPFHz, sampleRate)
	v.lpf2.SetCutoff(layeredLPFHz, sampleRate)
}

func (v *layeredVoice) next(freq float64) float64 {
	sr := v.sampleRate
	sum := v.sawLo.Sample(freq*detuneDown, sr) +
		v.sawHi.Sample(freq*detuneUp, sr) +
		subGain*v.sub.Sample(freq*0.5, sr) +
		fifthGain*v.fifth.Sample(freq*1.5, sr)
	return v.lpf2.Process(v.lpf1.Process(sum))
}

func (v *layeredVoice) headroom() float64 { return 1 / layeredPeak }
