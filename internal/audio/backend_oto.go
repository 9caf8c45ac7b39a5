package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoContextOpts oto.NewContextOptions
)

func otoFormat(f Format) (oto.Format, error) {
	switch f {
	case FormatFloat32:
		return oto.FormatFloat32LE, nil
	case FormatInt16:
		return oto.FormatSignedInt16LE, nil
	case FormatUint8:
		return oto.FormatUnsignedInt8, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func sharedOtoContext(opts oto.NewContextOptions) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoContextOpts = opts
		ctx, ready, err := oto.NewContext(&opts)
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoContextOpts.SampleRate != opts.SampleRate ||
		otoContextOpts.ChannelCount != opts.ChannelCount ||
		otoContextOpts.Format != opts.Format {
		return nil, fmt.Errorf("audio context already initialized at %d Hz/%d ch", otoContextOpts.SampleRate, otoContextOpts.ChannelCount)
	}
	return otoContext, nil
}

type otoStream struct {
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
	channels   int
	format     Format
}

func openOto(cfg Config, source FrameSource, sink SampleSink) (Stream, error) {
	format, err := otoFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = 2
	}
	ctx, err := sharedOtoContext(oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       format,
		BufferSize:   cfg.BufferSize,
	})
	if err != nil {
		return nil, err
	}

	renderer := NewRenderer(source, sink, channels)
	renderer.Configure(float64(sampleRate))
	reader := NewStreamReader(renderer, cfg.Format)
	player := ctx.NewPlayer(reader)
	player.Play()
	return &otoStream{
		player:     player,
		reader:     reader,
		sampleRate: sampleRate,
		channels:   channels,
		format:     cfg.Format,
	}, nil
}

func (s *otoStream) SampleRate() int { return s.sampleRate }
func (s *otoStream) Channels() int   { return s.channels }
func (s *otoStream) Format() Format  { return s.format }

// Err reports a player error raised after the stream started.
func (s *otoStream) Err() error {
	if err := s.player.Err(); err != nil {
		return err
	}
	return s.reader.Err()
}

func (s *otoStream) Close() error {
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return err
	}
	return s.reader.Close()
}
