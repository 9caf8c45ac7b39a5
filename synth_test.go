package midisynth

import (
	"errors"
	"math"
	"sync"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	intaudio "github.com/cbegin/midisynth-go/internal/audio"
	"github.com/cbegin/midisynth-go/internal/logging"
	intmap "github.com/cbegin/midisynth-go/internal/midimap"
)

type loopbackIn struct {
	mu    sync.Mutex
	open  bool
	onMsg func([]byte, int32)
}

func (f *loopbackIn) Open() error  { return f.setOpen(true) }
func (f *loopbackIn) Close() error { return f.setOpen(false) }

func (f *loopbackIn) setOpen(open bool) error {
	f.mu.Lock()
	f.open = open
	f.mu.Unlock()
	return nil
}

func (f *loopbackIn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *loopbackIn) Number() int             { return 0 }
func (f *loopbackIn) String() string          { return "loopback" }
func (f *loopbackIn) Underlying() interface{} { return nil }

func (f *loopbackIn) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (func(), error) {
	f.mu.Lock()
	f.onMsg = onMsg
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.onMsg = nil
		f.mu.Unlock()
	}, nil
}

func (f *loopbackIn) send(raw []byte) {
	f.mu.Lock()
	fn := f.onMsg
	f.mu.Unlock()
	if fn != nil {
		fn(raw, 0)
	}
}

func quietSynth(opts ...Option) *Synth {
	return NewSynth(append([]Option{WithLogger(logging.Discard())}, opts...)...)
}

func TestSynthDefaults(t *testing.T) {
	s := quietSynth()
	got := s.Controls()
	if got.Pitch != 0 || got.Volume != 0 || got.PitchBend != 1 || got.Gate != 0 {
		t.Fatalf("default controls = %+v", got)
	}
	if n := len(s.Samples()); n != 4410 {
		t.Fatalf("len(Samples()) = %d, want 4410", n)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close with nothing open: %v", err)
	}
}

func TestSynthHandleMIDI(t *testing.T) {
	s := quietSynth()
	if err := s.HandleMIDI(midi.NoteOn(0, 69, 127)); err != nil {
		t.Fatalf("HandleMIDI failed: %v", err)
	}
	got := s.Controls()
	if got.Pitch != 440 || got.Volume != 1 || got.Gate != 1 {
		t.Fatalf("after NoteOn controls = %+v", got)
	}
	if err := s.HandleMIDI(midi.Pitchbend(0, 8191)); err != nil {
		t.Fatalf("HandleMIDI bend failed: %v", err)
	}
	if want := intmap.PitchBendFactor(16383); math.Abs(s.Controls().PitchBend-want) > 1e-12 {
		t.Fatalf("bend = %v, want %v", s.Controls().PitchBend, want)
	}
	if err := s.HandleMIDI([]byte{0x90, 60}); !errors.Is(err, intmap.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestSynthChannelOption(t *testing.T) {
	s := quietSynth(WithChannel(2))
	_ = s.HandleMIDI(midi.NoteOn(0, 60, 100))
	if s.Controls().Gate != 0 {
		t.Fatal("message on another channel reached the bus")
	}
	_ = s.HandleMIDI(midi.NoteOn(2, 60, 100))
	if s.Controls().Gate != 1 {
		t.Fatal("message on the selected channel was dropped")
	}
}

func TestSynthCaptureSize(t *testing.T) {
	s := quietSynth(WithCaptureSize(128))
	if s.Tracker().Cap() != 128 || len(s.Samples()) != 128 {
		t.Fatalf("capture size = %d", s.Tracker().Cap())
	}
}

func TestSynthOpenAudioUnknownBackend(t *testing.T) {
	s := quietSynth()
	cfg := intaudio.DefaultConfig()
	cfg.Backend = "alsa"
	for i := 0; i < 2; i++ {
		if _, err := s.OpenAudio(cfg); err == nil {
			t.Fatal("expected error for unknown backend")
		}
	}
}

func TestSynthListenFeedsBus(t *testing.T) {
	s := quietSynth()
	in := &loopbackIn{}
	s.mu.Lock()
	name, err := s.listenLocked(in)
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	if name != "loopback" {
		t.Fatalf("port name = %q", name)
	}
	in.send(midi.NoteOn(0, 57, 64))
	if got := s.Controls().Pitch; got != 220 {
		t.Fatalf("pitch = %v, want 220", got)
	}
	in.send(midi.NoteOff(0, 57))
	if got := s.Controls().Gate; got != -1 {
		t.Fatalf("gate = %v, want -1", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if in.IsOpen() {
		t.Fatal("port still open after Close")
	}
	in.send(midi.NoteOn(0, 60, 100))
	if got := s.Controls().Pitch; got != 220 {
		t.Fatalf("message delivered after Close, pitch = %v", got)
	}
}
