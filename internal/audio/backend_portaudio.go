//go:build portaudio

package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

var errOutputUnderflow = errors.New("output underflow")

// portAudioStream negotiates with the default output device: the device's
// default sample rate is used unless one is requested, and the channel count
// is capped at what the device offers.
type portAudioStream struct {
	stream     *portaudio.Stream
	underflow  *atomic.Bool
	sampleRate int
	channels   int
	format     Format
}

func openPortAudio(cfg Config, source FrameSource, sink SampleSink) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("no output audio device found: %w", err)
	}

	params := portaudio.LowLatencyParameters(nil, dev)
	params.Input.Channels = 0
	channels := cfg.Channels
	if channels <= 0 || channels > dev.MaxOutputChannels {
		channels = dev.MaxOutputChannels
	}
	if channels <= 0 {
		portaudio.Terminate()
		return nil, fmt.Errorf("device %q has no output channels", dev.Name)
	}
	params.Output.Channels = channels
	if cfg.SampleRate > 0 {
		params.SampleRate = float64(cfg.SampleRate)
	} else {
		params.SampleRate = dev.DefaultSampleRate
	}
	params.FramesPerBuffer = portaudio.FramesPerBufferUnspecified

	renderer := NewRenderer(source, sink, channels)
	renderer.Configure(params.SampleRate)

	underflow := new(atomic.Bool)
	note := func(flags portaudio.StreamCallbackFlags) {
		if flags&portaudio.OutputUnderflow != 0 {
			underflow.Store(true)
		}
	}
	var callback interface{}
	switch cfg.Format {
	case FormatFloat32:
		callback = func(out []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			note(flags)
			renderer.Float32(out)
		}
	case FormatInt16:
		callback = func(out []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			note(flags)
			renderer.Int16(out)
		}
	case FormatUint8:
		callback = func(out []uint8, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			note(flags)
			renderer.Uint8(out)
		}
	default:
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, cfg.Format)
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	return &portAudioStream{
		stream:     stream,
		underflow:  underflow,
		sampleRate: int(params.SampleRate),
		channels:   channels,
		format:     cfg.Format,
	}, nil
}

func (s *portAudioStream) SampleRate() int { return s.sampleRate }
func (s *portAudioStream) Channels() int   { return s.channels }
func (s *portAudioStream) Format() Format  { return s.format }

// Err reports an output underflow seen by the callback. PortAudio keeps the
// stream running after one.
func (s *portAudioStream) Err() error {
	if s.underflow.Load() {
		return errOutputUnderflow
	}
	return nil
}

func (s *portAudioStream) Close() error {
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
