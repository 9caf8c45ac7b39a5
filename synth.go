package midisynth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	intaudio "github.com/cbegin/midisynth-go/internal/audio"
	intcap "github.com/cbegin/midisynth-go/internal/capture"
	intctl "github.com/cbegin/midisynth-go/internal/control"
	intenv "github.com/cbegin/midisynth-go/internal/envelope"
	intgraph "github.com/cbegin/midisynth-go/internal/graph"
	intmap "github.com/cbegin/midisynth-go/internal/midimap"
	intmidi "github.com/cbegin/midisynth-go/internal/midiin"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type VoiceKind = intgraph.VoiceKind

const (
	VoiceSine    = intgraph.VoiceSine
	VoiceLayered = intgraph.VoiceLayered
)

func ParseVoice(name string) (VoiceKind, error) { return intgraph.ParseVoiceKind(name) }

// EnvelopeParams are the ADSR times in seconds and the sustain level in 0..1.
type EnvelopeParams = intenv.Params

func DefaultEnvelope() EnvelopeParams { return intenv.DefaultParams() }

type Option func(*synthConfig)

type synthConfig struct {
	params      intgraph.Params
	captureSize int
	channel     int
	logger      *slog.Logger
}

func defaultSynthConfig() synthConfig {
	return synthConfig{
		params:      intgraph.DefaultParams(),
		captureSize: intcap.DefaultCapacity,
		channel:     -1,
	}
}

func WithVoice(kind VoiceKind) Option {
	return func(cfg *synthConfig) {
		cfg.params.Voice = kind
	}
}

func WithEnvelope(p EnvelopeParams) Option {
	return func(cfg *synthConfig) {
		cfg.params.Envelope = p
	}
}

// WithCaptureSize sets how many recent output samples the tracker keeps for
// the scope.
func WithCaptureSize(n int) Option {
	return func(cfg *synthConfig) {
		cfg.captureSize = n
	}
}

// WithChannel listens to a single MIDI channel (0-15). Negative means omni.
func WithChannel(ch int) Option {
	return func(cfg *synthConfig) {
		cfg.channel = ch
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *synthConfig) {
		cfg.logger = logger
	}
}

// Synth wires one control bus between a MIDI mapper and an output graph. The
// MIDI listener writes the bus, the audio callback reads it and fills the
// tracker, and the host reads both for display.
type Synth struct {
	bus    *intctl.Bus
	ring   *intcap.Ring
	mapper *intmap.Mapper
	params intgraph.Params
	logger *slog.Logger

	mu       sync.Mutex
	stream   intaudio.Stream
	listener *intmidi.Listener
}

func NewSynth(opts ...Option) *Synth {
	cfg := defaultSynthConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	bus := intctl.NewBus()
	mopts := []intmap.Option{intmap.WithLogger(logger)}
	if cfg.channel >= 0 {
		mopts = append(mopts, intmap.WithChannel(uint8(cfg.channel)))
	}
	return &Synth{
		bus:    bus,
		ring:   intcap.NewRing(cfg.captureSize),
		mapper: intmap.New(bus, mopts...),
		params: cfg.params,
		logger: logger,
	}
}

// Controls exposes the bus read-only for display; writes belong to the mapper.
func (s *Synth) Controls() ControlValues {
	return s.bus.Snapshot()
}

// ControlValues is a point-in-time copy of the control bus.
type ControlValues = intctl.Values

// Tracker is the capture ring fed by the audio callback.
func (s *Synth) Tracker() *intcap.Ring { return s.ring }

// Samples copies the most recent output samples, oldest first.
func (s *Synth) Samples() []float64 { return s.ring.Snapshot() }

// HandleMIDI applies one raw MIDI message as if it had arrived from the port.
func (s *Synth) HandleMIDI(raw []byte) error { return s.mapper.Handle(raw) }

// OpenAudio builds the synthesis graph and starts the output stream. Only one
// stream may be open at a time.
func (s *Synth) OpenAudio(cfg intaudio.Config) (intaudio.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil, errors.New("audio already open")
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	g := intgraph.New(s.bus, float64(cfg.SampleRate), s.params)
	st, err := intaudio.Open(cfg, g, s.ring)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	s.stream = st
	return st, nil
}

// ListenMIDI opens the first input port whose name contains hint (the first
// port when hint is empty) and feeds it to the mapper. It returns the port
// name.
func (s *Synth) ListenMIDI(hint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return "", errors.New("MIDI already listening")
	}
	in, err := intmidi.SelectPort(hint)
	if err != nil {
		return "", err
	}
	return s.listenLocked(in)
}

func (s *Synth) listenLocked(in drivers.In) (string, error) {
	l, err := intmidi.Listen(in, func(raw []byte) { _ = s.mapper.Handle(raw) }, s.logger)
	if err != nil {
		return "", err
	}
	s.listener = l
	return l.Port(), nil
}

// Close stops MIDI input, then the audio stream.
func (s *Synth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.listener != nil {
		errs = append(errs, s.listener.Close())
		s.listener = nil
	}
	if s.stream != nil {
		errs = append(errs, s.stream.Close())
		s.stream = nil
	}
	return errors.Join(errs...)
}
