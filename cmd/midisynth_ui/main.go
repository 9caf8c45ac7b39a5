package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/midisynth-go"
	"github.com/cbegin/midisynth-go/internal/audio"
	"github.com/cbegin/midisynth-go/internal/logging"
	"github.com/cbegin/midisynth-go/internal/scope"
)

const (
	windowW      = 900
	windowH      = 560
	uiSampleRate = 48000
	margin       = 12
	readoutH     = 64
)

var (
	bgColor      = color.RGBA{14, 16, 22, 255}
	centerColor  = color.RGBA{40, 44, 58, 100}
	dividerColor = color.RGBA{50, 54, 68, 180}
	waveColor    = color.RGBA{80, 200, 255, 220}
)

// pianoKeys maps one octave of the computer keyboard, laid out like a piano,
// to semitone offsets.
var pianoKeys = []struct {
	key    ebiten.Key
	offset int
}{
	{ebiten.KeyA, 0}, {ebiten.KeyW, 1}, {ebiten.KeyS, 2}, {ebiten.KeyE, 3},
	{ebiten.KeyD, 4}, {ebiten.KeyF, 5}, {ebiten.KeyT, 6}, {ebiten.KeyG, 7},
	{ebiten.KeyY, 8}, {ebiten.KeyH, 9}, {ebiten.KeyU, 10}, {ebiten.KeyJ, 11},
	{ebiten.KeyK, 12},
}

type game struct {
	synth    *midisynth.Synth
	logger   *slog.Logger
	port     string
	samples  []float64
	spectrum *scope.Spectrum
	peak     scope.Peak
	scopeImg *ebiten.Image
	octave   int
	viewW    int
	viewH    int
}

func newGame(synth *midisynth.Synth, logger *slog.Logger, port string) *game {
	return &game{
		synth:    synth,
		logger:   logger,
		port:     port,
		samples:  make([]float64, synth.Tracker().Cap()),
		spectrum: scope.NewSpectrum(uiSampleRate),
		octave:   4,
		viewW:    windowW,
		viewH:    windowH,
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) && g.octave > 0 {
		g.octave--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) && g.octave < 8 {
		g.octave++
	}
	base := (g.octave + 1) * 12
	for _, pk := range pianoKeys {
		note := base + pk.offset
		if note > 127 {
			continue
		}
		if inpututil.IsKeyJustPressed(pk.key) {
			g.send(midi.NoteOn(0, uint8(note), 100))
		}
		if inpututil.IsKeyJustReleased(pk.key) {
			g.send(midi.NoteOff(0, uint8(note)))
		}
	}
	g.synth.Tracker().SnapshotInto(g.samples)
	return nil
}

func (g *game) send(msg midi.Message) {
	if err := g.synth.HandleMIDI(msg); err != nil {
		g.logger.Warn("keyboard note dropped", "err", err)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	g.drawReadout(screen, image.Rect(margin, margin, g.viewW-margin, margin+readoutH))
	g.drawScope(screen, image.Rect(margin, margin*2+readoutH, g.viewW-margin, g.viewH-margin))
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) drawReadout(screen *ebiten.Image, rect image.Rectangle) {
	c := g.synth.Controls()
	lines := []string{
		fmt.Sprintf("MIDI: %s", g.port),
		fmt.Sprintf("pitch %8.2f Hz   bend x%.4f   volume %.3f   gate %+.0f", c.Pitch, c.PitchBend, c.Volume, c.Gate),
		fmt.Sprintf("keys A..K play octave %d (Z/X to shift)", g.octave),
	}
	for i, l := range lines {
		ebitenutil.DebugPrintAt(screen, l, rect.Min.X, rect.Min.Y+i*18)
	}
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	width, height := rect.Dx(), rect.Dy()
	if width <= 0 || height <= 0 {
		return
	}
	if g.scopeImg == nil || g.scopeImg.Bounds().Dx() != width || g.scopeImg.Bounds().Dy() != height {
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(bgColor)

	waveH := int(float64(height) * 0.45)
	g.drawWaveform(g.scopeImg, width, waveH)
	ebitenutil.DrawRect(g.scopeImg, 0, float64(waveH), float64(width), 1, dividerColor)
	specY := waveH + 1
	g.drawSpectrumBars(g.scopeImg, width, height-specY, specY)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, width int, height int) {
	samples := g.samples
	if len(samples) < 2 || width < 2 || height < 4 {
		return
	}
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, centerColor)

	gain := float64(midY-2) / g.peak.Update(samples)
	trigger := scope.TriggerOffset(samples)
	visible := len(samples) - trigger
	if visible < 2 {
		visible = 2
	}
	prevX := 0
	prevY := midY - int(samples[trigger]*gain)
	for px := 1; px < width; px++ {
		si := trigger + px*visible/width
		if si >= len(samples) {
			si = len(samples) - 1
		}
		y := midY - int(samples[si]*gain)
		ebitenutil.DrawLine(dst, float64(prevX), float64(prevY), float64(px), float64(y), waveColor)
		prevX = px
		prevY = y
	}
}

func (g *game) drawSpectrumBars(dst *ebiten.Image, width int, height int, yOffset int) {
	if width < 4 || height < 4 {
		return
	}
	bars := g.spectrum.Analyze(g.samples, width/3)
	barW := float64(width) / float64(len(bars))
	for i, v := range bars {
		barH := v * float64(height-4)
		if barH < 1 {
			barH = 1
		}
		x := float64(i) * barW
		y := float64(yOffset) + float64(height-2) - barH
		r, gr, b := scope.Color(v)
		ebitenutil.DrawRect(dst, x+1, y, barW-1, barH, color.RGBA{r, gr, b, 220})
	}
}

func main() {
	var (
		voiceName = flag.String("voice", "sine", "voice: sine|layered")
		portHint  = flag.String("port", "", "MIDI input port name substring (default: first port)")
		noMIDI    = flag.Bool("no-midi", false, "run with computer-keyboard input only")
		logLevel  = flag.String("log-level", "info", "log level: debug|info|warn|error")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	voice, err := midisynth.ParseVoice(*voiceName)
	if err != nil {
		logger.Error("invalid voice", "err", err)
		os.Exit(1)
	}
	if err := run(logger, voice, *portHint, *noMIDI); err != nil {
		logger.Error("midisynth_ui exited", "err", err)
		os.Exit(1)
	}
}

// run owns the synth and the MIDI driver so both are closed before main
// exits.
func run(logger *slog.Logger, voice midisynth.VoiceKind, portHint string, noMIDI bool) error {
	if !noMIDI {
		defer midi.CloseDriver()
	}
	synth := midisynth.NewSynth(midisynth.WithVoice(voice), midisynth.WithLogger(logger))
	defer synth.Close()

	port := "(keyboard only)"
	if !noMIDI {
		var err error
		if port, err = synth.ListenMIDI(portHint); err != nil {
			return fmt.Errorf("MIDI input unavailable: %w", err)
		}
	}

	cfg := audio.DefaultConfig()
	cfg.Backend = audio.BackendEbiten
	cfg.SampleRate = uiSampleRate
	cfg.Logger = logger
	if _, err := synth.OpenAudio(cfg); err != nil {
		return fmt.Errorf("audio output unavailable: %w", err)
	}

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("midisynth")
	if err := ebiten.RunGame(newGame(synth, logger, port)); err != nil {
		return fmt.Errorf("UI: %w", err)
	}
	return nil
}
