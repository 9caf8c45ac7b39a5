package midimap

import (
	"log/slog"
	"math"

	"github.com/cbegin/midisynth-go/internal/control"
)

// NoteHz converts a MIDI note number to its equal-tempered frequency.
func NoteHz(note uint8) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
}

// PitchBendFactor maps a 14-bit bend value to a frequency multiplier that
// spans one semitone either side of 1.0 at full deflection.
func PitchBendFactor(bend uint16) float64 {
	return math.Pow(2, ((float64(bend)-8192)/8192)/12)
}

type Option func(*Mapper)

// WithChannel restricts the mapper to one MIDI channel (0-15). By default
// every channel drives the voice.
func WithChannel(ch uint8) Option {
	return func(m *Mapper) {
		m.channel = int(ch & 0x0F)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Mapper turns decoded MIDI messages into control bus writes. It is called
// from the MIDI listener goroutine and is the bus's only writer.
type Mapper struct {
	bus     *control.Bus
	channel int // -1 = omni
	logger  *slog.Logger
}

func New(bus *control.Bus, opts ...Option) *Mapper {
	m := &Mapper{bus: bus, channel: -1, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle decodes raw and applies it. Malformed input is logged and dropped
// without touching the bus; the error is returned for callers that count
// drops.
func (m *Mapper) Handle(raw []byte) error {
	ev, err := Decode(raw)
	if err != nil {
		m.logger.Warn("failed to parse MIDI message", "err", err, "bytes", raw)
		return err
	}
	m.Apply(ev)
	return nil
}

// Apply performs the bus writes for one event.
func (m *Mapper) Apply(ev Event) {
	if ev.Kind == KindOther {
		return
	}
	if m.channel >= 0 && int(ev.Channel) != m.channel {
		return
	}
	m.logger.Debug("received", "kind", ev.Kind, "channel", ev.Channel, "note", ev.Note, "velocity", ev.Velocity, "bend", ev.Bend)
	switch ev.Kind {
	case KindNoteOn:
		m.bus.SetPitch(NoteHz(ev.Note))
		m.bus.SetVolume(float64(ev.Velocity) / 127)
		m.bus.SetPitchBend(1)
		m.bus.SetGate(control.GateOn)
	case KindNoteOff:
		// Only the sounding note may release the envelope.
		if m.bus.Pitch() == NoteHz(ev.Note) {
			m.bus.SetGate(control.GateRelease)
		}
	case KindPitchBend:
		m.bus.SetPitchBend(PitchBendFactor(ev.Bend))
	}
}
