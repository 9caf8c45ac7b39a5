package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// StreamReader adapts a Renderer to the pull-style io.Reader that oto and
// ebiten players consume. Each Read renders as many whole frames as fit in p
// and encodes them little-endian in the configured format. Buffers are grown
// once and reused, so steady-state reads do not allocate.
type StreamReader struct {
	renderer *Renderer
	format   Format
	f32      []float32
	i16      []int16
	u8       []uint8

	mu  sync.Mutex
	err error
}

func NewStreamReader(renderer *Renderer, format Format) *StreamReader {
	return &StreamReader{renderer: renderer, format: format}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	frameBytes := r.format.BytesPerSample() * r.renderer.Channels()
	if frameBytes == 0 {
		r.fail(fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.format))
		return 0, ErrUnsupportedFormat
	}
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * r.renderer.Channels()
	switch r.format {
	case FormatFloat32:
		if cap(r.f32) < need {
			r.f32 = make([]float32, need)
		}
		buf := r.f32[:need]
		r.renderer.Float32(buf)
		for i, s := range buf {
			binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
		}
	case FormatInt16:
		if cap(r.i16) < need {
			r.i16 = make([]int16, need)
		}
		buf := r.i16[:need]
		r.renderer.Int16(buf)
		for i, s := range buf {
			binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
		}
	case FormatUint8:
		if cap(r.u8) < need {
			r.u8 = make([]uint8, need)
		}
		buf := r.u8[:need]
		r.renderer.Uint8(buf)
		copy(p, buf)
	}
	return frames * frameBytes, nil
}

func (r *StreamReader) fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Err returns the first error a Read hit, if any.
func (r *StreamReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *StreamReader) Close() error { return nil }
