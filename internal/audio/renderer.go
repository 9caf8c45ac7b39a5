package audio

// FrameSource yields one stereo frame per call. It is driven only from the
// backend's render goroutine.
type FrameSource interface {
	SetSampleRate(sampleRate float64)
	NextFrame() (left, right float64)
}

// SampleSink receives the left channel of every rendered frame.
type SampleSink interface {
	Push(sample float64)
}

// Renderer is the realtime boundary between a backend callback and the
// synthesis graph. Its methods fill one device buffer: one frame per
// channels samples, even channels get left, odd channels get right. They do
// not allocate or block apart from the sink push.
type Renderer struct {
	source   FrameSource
	sink     SampleSink
	channels int
}

// NewRenderer builds a renderer for interleaved buffers of the given channel
// count. sink may be nil.
func NewRenderer(source FrameSource, sink SampleSink, channels int) *Renderer {
	if channels < 1 {
		channels = 1
	}
	return &Renderer{source: source, sink: sink, channels: channels}
}

func (r *Renderer) Channels() int { return r.channels }

// Configure is called by a backend once the device sample rate is known.
func (r *Renderer) Configure(sampleRate float64) { r.source.SetSampleRate(sampleRate) }

func (r *Renderer) Float32(out []float32) { render(r, out, toFloat32) }
func (r *Renderer) Int16(out []int16)     { render(r, out, toInt16) }
func (r *Renderer) Uint8(out []uint8)     { render(r, out, toUint8) }

func render[T any](r *Renderer, out []T, conv func(float64) T) {
	ch := r.channels
	for i := 0; i+ch <= len(out); i += ch {
		l, rt := r.source.NextFrame()
		left, right := conv(l), conv(rt)
		frame := out[i : i+ch]
		for c := range frame {
			if c&1 == 0 {
				frame[c] = left
			} else {
				frame[c] = right
			}
		}
		if r.sink != nil {
			r.sink.Push(l)
		}
	}
}
