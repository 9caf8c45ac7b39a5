// Package scope turns captured output samples into something drawable: a
// trigger point for a stable waveform and smoothed log-frequency spectrum
// bars.
package scope

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// FFTSize is the analysis window; shorter inputs are not analyzed.
	FFTSize = 2048

	floorDB  = -80.0
	maxHz    = 18000.0
	minBars  = 16
	maxBars  = 256
	riseKeep = 0.3
	fallKeep = 0.85
)

// Spectrum holds the smoothed bar heights between frames. It is owned by the
// UI goroutine.
type Spectrum struct {
	sampleRate float64
	window     []float64
	in         []float64
	bars       []float64
}

func NewSpectrum(sampleRate float64) *Spectrum {
	w := make([]float64, FFTSize)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(FFTSize-1)))
	}
	return &Spectrum{
		sampleRate: sampleRate,
		window:     w,
		in:         make([]float64, FFTSize),
	}
}

// Analyze windows the last FFTSize samples, maps FFT bins to numBars bars on
// a log-frequency axis (DC skipped, up to ~18 kHz), normalizes each bar from
// -80..0 dB to 0..1 and smooths with fast attack and slow decay. The returned
// slice is reused across calls. With too few samples the previous bars are
// returned unchanged.
func (s *Spectrum) Analyze(samples []float64, numBars int) []float64 {
	if numBars < minBars {
		numBars = minBars
	}
	if numBars > maxBars {
		numBars = maxBars
	}
	if len(s.bars) != numBars {
		s.bars = make([]float64, numBars)
	}
	if len(samples) < FFTSize || s.sampleRate <= 0 {
		return s.bars
	}

	tail := samples[len(samples)-FFTSize:]
	for i, x := range tail {
		s.in[i] = x * s.window[i]
	}
	bins := fft.FFTReal(s.in)

	half := FFTSize / 2
	minBin := 1
	maxBin := int(float64(half) * maxHz / (s.sampleRate / 2))
	if maxBin > half {
		maxBin = half
	}
	if maxBin <= minBin {
		maxBin = minBin + 1
	}
	logMin := math.Log(float64(minBin))
	logMax := math.Log(float64(maxBin))

	for i := range s.bars {
		frac0 := float64(i) / float64(numBars)
		frac1 := float64(i+1) / float64(numBars)
		binStart := int(math.Exp(logMin + frac0*(logMax-logMin)))
		binEnd := int(math.Exp(logMin + frac1*(logMax-logMin)))
		if binEnd <= binStart {
			binEnd = binStart + 1
		}
		if binEnd > half {
			binEnd = half
		}
		if binStart >= binEnd {
			binStart = binEnd - 1
		}

		sum := 0.0
		for b := binStart; b < binEnd; b++ {
			sum += cmplx.Abs(bins[b])
		}
		avg := sum / float64(binEnd-binStart)

		db := 20.0 * math.Log10(avg/FFTSize+1e-10)
		norm := clamp((db-floorDB)/-floorDB, 0, 1)

		prev := s.bars[i]
		if norm > prev {
			s.bars[i] = prev*riseKeep + norm*(1-riseKeep)
		} else {
			s.bars[i] = prev*fallKeep + norm*(1-fallKeep)
		}
	}
	return s.bars
}

// TriggerOffset finds the first rising zero crossing within the first quarter
// of samples, or 0 if there is none.
func TriggerOffset(samples []float64) int {
	searchLen := len(samples) / 4
	if searchLen > len(samples)-2 {
		searchLen = len(samples) - 2
	}
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

// Peak follows the loudest absolute sample with fast attack and slow
// release, so the waveform auto-gains without pumping.
type Peak struct {
	value float64
}

const minPeak = 0.01

func (p *Peak) Update(samples []float64) float64 {
	target := 0.0
	for _, x := range samples {
		if x < 0 {
			x = -x
		}
		if x > target {
			target = x
		}
	}
	if target < minPeak {
		target = minPeak
	}
	if target > p.value {
		p.value = p.value*0.3 + target*0.7
	} else {
		p.value = p.value*0.995 + target*0.005
	}
	if p.value < minPeak {
		p.value = minPeak
	}
	return p.value
}

// Color maps a normalized bar height to a blue, green, orange gradient.
func Color(v float64) (r, g, b uint8) {
	if v < 0.33 {
		t := v / 0.33
		return uint8(30 + 20*t), uint8(80 + 120*t), uint8(200 + 55*t)
	}
	if v < 0.66 {
		t := (v - 0.33) / 0.33
		return uint8(50 + 140*t), uint8(200 + 30*t), uint8(255 - 100*t)
	}
	t := clamp((v-0.66)/0.34, 0, 1)
	return uint8(190 + 65*t), uint8(230 - 100*t), uint8(155 - 100*t)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
