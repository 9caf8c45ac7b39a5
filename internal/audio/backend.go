package audio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Backend names accepted by Open.
const (
	BackendOto       = "oto"
	BackendEbiten    = "ebiten"
	BackendPortAudio = "portaudio"
)

// Config describes the output stream a host asks for. Backends that
// negotiate with the device may settle on a different sample rate or channel
// count; Stream reports what was actually opened.
type Config struct {
	Backend    string
	SampleRate int // 0 = backend/device default
	Channels   int // 0 = backend/device default
	Format     Format
	BufferSize time.Duration
	Logger     *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Backend:    BackendOto,
		SampleRate: 44100,
		Channels:   2,
		Format:     FormatFloat32,
		BufferSize: 20 * time.Millisecond,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// errPollInterval is how often Open checks a running stream for errors.
const errPollInterval = 250 * time.Millisecond

// Stream is a running output stream. Close stops playback; it is not safe to
// reopen a closed stream. Err returns the first error the backend hit after
// playback started, or nil.
type Stream interface {
	SampleRate() int
	Channels() int
	Format() Format
	Err() error
	Close() error
}

// Open starts a stream on the configured backend that pulls frames from
// source and pushes the left channel of each frame into sink. The source is
// told the negotiated sample rate before the first frame is rendered.
func Open(cfg Config, source FrameSource, sink SampleSink) (Stream, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" {
		name = BackendOto
	}
	var (
		st  Stream
		err error
	)
	switch name {
	case BackendOto:
		st, err = openOto(cfg, source, sink)
	case BackendEbiten:
		st, err = openEbiten(cfg, source, sink)
	case BackendPortAudio:
		st, err = openPortAudio(cfg, source, sink)
	default:
		return nil, fmt.Errorf("unknown audio backend %q (expected oto|ebiten|portaudio)", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	cfg.logger().Info("audio stream started",
		"backend", name,
		"sample_rate", st.SampleRate(),
		"channels", st.Channels(),
		"format", st.Format().String(),
	)
	return watch(st, cfg.logger().With("backend", name), errPollInterval), nil
}

// watchedStream polls the wrapped stream's Err until Close and logs the first
// error it sees. Playback is not restarted.
type watchedStream struct {
	Stream
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func watch(st Stream, logger *slog.Logger, interval time.Duration) *watchedStream {
	w := &watchedStream{Stream: st, done: make(chan struct{})}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.done:
				return
			case <-ticker.C:
				if err := st.Err(); err != nil {
					logger.Error("audio stream error", "err", err)
					return
				}
			}
		}
	}()
	return w
}

func (w *watchedStream) Close() error {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
	return w.Stream.Close()
}
