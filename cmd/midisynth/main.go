package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/midisynth-go"
	"github.com/cbegin/midisynth-go/internal/audio"
	"github.com/cbegin/midisynth-go/internal/logging"
	"github.com/cbegin/midisynth-go/internal/midiin"
)

func main() {
	defaults := midisynth.DefaultEnvelope()
	var (
		backend    = flag.String("backend", audio.BackendOto, "audio backend: oto|ebiten|portaudio")
		formatName = flag.String("format", "f32", "sample format: f32|s16|u8")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate (0 = device default)")
		channels   = flag.Int("channels", 2, "output channels (0 = device default)")
		bufferSize = flag.Duration("buffer", 20*time.Millisecond, "output buffer length")
		voiceName  = flag.String("voice", "sine", "voice: sine|layered")
		attack     = flag.Float64("attack", defaults.AttackSec, "envelope attack (seconds)")
		decay      = flag.Float64("decay", defaults.DecaySec, "envelope decay (seconds)")
		sustain    = flag.Float64("sustain", defaults.SustainLvl, "envelope sustain level (0..1)")
		release    = flag.Float64("release", defaults.ReleaseSec, "envelope release (seconds)")
		portHint   = flag.String("port", "", "MIDI input port name substring (default: first port)")
		channel    = flag.Int("channel", -1, "MIDI channel 0-15 (-1 = omni)")
		logLevel   = flag.String("log-level", "info", "log level: debug|info|warn|error")
		listPorts  = flag.Bool("list-ports", false, "list MIDI input ports and exit")
		renderPath = flag.String("render", "", "render a .mid file offline instead of playing live")
		outPath    = flag.String("out", "out.wav", "WAV output path for -render")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if *listPorts {
		defer midi.CloseDriver()
		for i, name := range midiin.PortNames() {
			fmt.Printf("%d: %s\n", i, name)
		}
		return
	}

	voice, err := midisynth.ParseVoice(*voiceName)
	if err != nil {
		logger.Error("invalid voice", "err", err)
		os.Exit(1)
	}
	format, err := audio.ParseFormat(*formatName)
	if err != nil {
		logger.Error("invalid sample format", "err", err)
		os.Exit(1)
	}
	opts := []midisynth.Option{
		midisynth.WithVoice(voice),
		midisynth.WithEnvelope(midisynth.EnvelopeParams{
			AttackSec:  *attack,
			DecaySec:   *decay,
			SustainLvl: *sustain,
			ReleaseSec: *release,
		}),
		midisynth.WithChannel(*channel),
		midisynth.WithLogger(logger),
	}

	if *renderPath != "" {
		if err := renderFile(*renderPath, *outPath, *sampleRate, opts); err != nil {
			logger.Error("offline render failed", "err", err)
			os.Exit(1)
		}
		logger.Info("wrote WAV", "path", *outPath)
		return
	}

	cfg := audio.Config{
		Backend:    *backend,
		SampleRate: *sampleRate,
		Channels:   *channels,
		Format:     format,
		BufferSize: *bufferSize,
		Logger:     logger,
	}
	if err := run(logger, cfg, *portHint, opts); err != nil {
		logger.Error("midisynth exited", "err", err)
		os.Exit(1)
	}
}

// run plays live until SIGINT or SIGTERM. The synth and the MIDI driver are
// closed on every return path.
func run(logger *slog.Logger, cfg audio.Config, portHint string, opts []midisynth.Option) error {
	defer midi.CloseDriver()
	synth := midisynth.NewSynth(opts...)
	defer func() {
		if err := synth.Close(); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	port, err := synth.ListenMIDI(portHint)
	if err != nil {
		return fmt.Errorf("MIDI input unavailable: %w", err)
	}
	if _, err := synth.OpenAudio(cfg); err != nil {
		return fmt.Errorf("audio output unavailable: %w", err)
	}
	logger.Info("ready", "port", port)

	wait := make(chan os.Signal, 1)
	signal.Notify(wait, os.Interrupt, syscall.SIGTERM)
	<-wait
	return nil
}

func renderFile(in, out string, sampleRate int, opts []midisynth.Option) error {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()
	samples, err := midisynth.RenderSMF(src, sampleRate, opts...)
	if err != nil {
		return err
	}
	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := midisynth.EncodeWAV(dst, samples, sampleRate, 2); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
