package graph

import (
	"github.com/cbegin/midisynth-go/internal/control"
	"github.com/cbegin/midisynth-go/internal/envelope"
)

type Params struct {
	Voice    VoiceKind
	Envelope envelope.Params
}

func DefaultParams() Params {
	return Params{
		Voice:    VoiceSine,
		Envelope: envelope.DefaultParams(),
	}
}

// Graph turns the control bus into a stereo sample stream, one frame per
// call. It reads the bus on every tick and owns all oscillator and envelope
// state; only the render goroutine may call it.
type Graph struct {
	bus   *control.Bus
	voice voice
	env   *envelope.Envelope
}

func New(bus *control.Bus, sampleRate float64, params Params) *Graph {
	g := &Graph{
		bus:   bus,
		voice: newVoice(params.Voice),
		env:   envelope.New(sampleRate, params.Envelope),
	}
	g.SetSampleRate(sampleRate)
	return g
}

// SetSampleRate must be called before rendering whenever the backend settles
// on a different rate.
func (g *Graph) SetSampleRate(sampleRate float64) {
	g.voice.setSampleRate(sampleRate)
	g.env.SetSampleRate(sampleRate)
}

// NextFrame advances the graph one tick.
func (g *Graph) NextFrame() (left, right float64) {
	pitch := g.bus.Pitch()
	volume := g.bus.Volume()
	bend := g.bus.PitchBend()
	gate := g.bus.Gate()

	raw := g.voice.next(pitch * bend)
	level := g.env.Tick(gate)
	s := raw * level * volume * g.voice.headroom()
	return s, s
}

// EnvelopeStage reports the envelope stage. Render goroutine only.
func (g *Graph) EnvelopeStage() envelope.Stage { return g.env.Stage() }
