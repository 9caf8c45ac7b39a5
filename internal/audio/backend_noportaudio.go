//go:build !portaudio

package audio

func openPortAudio(cfg Config, source FrameSource, sink SampleSink) (Stream, error) {
	return nil, ErrBackendUnavailable
}
