package audio

import (
	"fmt"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// ebitenStream plays through ebiten's audio context, which is fixed to
// stereo float32. It is the backend for hosts that also run an ebiten game
// loop, since ebiten owns the process's only oto context.
type ebitenStream struct {
	player     *ebitaudio.Player
	reader     *StreamReader
	sampleRate int
}

func openEbiten(cfg Config, source FrameSource, sink SampleSink) (Stream, error) {
	if cfg.Format != FormatFloat32 {
		return nil, fmt.Errorf("%w: ebiten plays f32 only, got %s", ErrUnsupportedFormat, cfg.Format)
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	renderer := NewRenderer(source, sink, 2)
	renderer.Configure(float64(sampleRate))
	reader := NewStreamReader(renderer, FormatFloat32)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	if cfg.BufferSize > 0 {
		pl.SetBufferSize(cfg.BufferSize)
	}
	pl.Play()
	return &ebitenStream{player: pl, reader: reader, sampleRate: sampleRate}, nil
}

func (s *ebitenStream) SampleRate() int { return s.sampleRate }
func (s *ebitenStream) Channels() int   { return 2 }
func (s *ebitenStream) Format() Format  { return FormatFloat32 }

// Err reports render failures. Player errors surface through ebiten's game
// loop instead.
func (s *ebitenStream) Err() error { return s.reader.Err() }

func (s *ebitenStream) Close() error {
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return err
	}
	return s.reader.Close()
}
