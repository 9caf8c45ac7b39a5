package midisynth

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gitlab.com/gomidi/midi/v2/smf"

	intaudio "github.com/cbegin/midisynth-go/internal/audio"
	intgraph "github.com/cbegin/midisynth-go/internal/graph"
)

// offlineTailSec is rendered after the release time so the last note fades
// out fully.
const offlineTailSec = 0.1

type timedMessage struct {
	at  int64 // microseconds from start
	raw []byte
}

// RenderSMF plays a Standard MIDI File through the same mapper, bus and graph
// the live synth uses and returns interleaved stereo float32 samples. Events
// from all tracks are merged by time and applied at their frame; rendering
// stops once the last note's release has finished.
func RenderSMF(r io.Reader, sampleRate int, opts ...Option) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	var msgs []timedMessage
	rd := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		if !ev.Message.IsPlayable() {
			return
		}
		raw := append([]byte(nil), ev.Message...)
		msgs = append(msgs, timedMessage{at: ev.AbsMicroSeconds, raw: raw})
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read SMF: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].at < msgs[j].at })

	s := NewSynth(opts...)
	g := intgraph.New(s.bus, float64(sampleRate), s.params)
	renderer := intaudio.NewRenderer(g, s.ring, 2)

	frameAt := func(us int64) int {
		return int(us * int64(sampleRate) / 1_000_000)
	}
	total := int(float64(sampleRate) * (s.params.Envelope.ReleaseSec + offlineTailSec))
	if n := len(msgs); n > 0 {
		total += frameAt(msgs[n-1].at)
	}
	out := make([]float32, total*2)

	pos := 0
	for _, m := range msgs {
		at := frameAt(m.at)
		if at > pos {
			renderer.Float32(out[pos*2 : at*2])
			pos = at
		}
		if err := s.HandleMIDI(m.raw); err != nil {
			s.logger.Debug("skipping SMF message", "at_us", m.at, "err", err)
		}
	}
	renderer.Float32(out[pos*2:])
	return out, nil
}

// EncodeWAV writes interleaved float samples as 16-bit PCM.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int, channels int) error {
	if channels <= 0 {
		return errors.New("channels must be positive")
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode WAV: %w", err)
	}
	return enc.Close()
}
