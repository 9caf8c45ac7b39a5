package capture

import "sync"

// DefaultCapacity holds 0.1s of audio at 44.1 kHz.
const DefaultCapacity = 4410

// Ring keeps the most recent rendered mono samples for visualization. The
// render callback is the only writer and the UI poll loop the only reader;
// both hold the mutex only for the O(1) push or the O(capacity) copy.
type Ring struct {
	mu    sync.Mutex
	buf   []float64
	head  int // next write position
	count int
}

// NewRing allocates a ring of fixed capacity. Non-positive capacities fall
// back to DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Push records a sample, overwriting the oldest once the ring is full.
func (r *Ring) Push(sample float64) {
	r.mu.Lock()
	r.buf[r.head] = sample
	r.head++
	if r.head == len(r.buf) {
		r.head = 0
	}
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Snapshot returns a copy of the ring, oldest first. The result always has
// Cap() entries; slots never written yet are zero and come first.
func (r *Ring) Snapshot() []float64 {
	out := make([]float64, len(r.buf))
	r.SnapshotInto(out)
	return out
}

// SnapshotInto copies the most recent len(dst) samples into dst, oldest
// first, and returns the number copied. dst longer than the ring is only
// filled up to Cap().
func (r *Ring) SnapshotInto(dst []float64) int {
	n := len(dst)
	if n > len(r.buf) {
		n = len(r.buf)
	}
	r.mu.Lock()
	start := r.head - n
	if start < 0 {
		start += len(r.buf)
	}
	first := copy(dst[:n], r.buf[start:])
	if first < n {
		copy(dst[first:n], r.buf[:n-first])
	}
	r.mu.Unlock()
	return n
}

// Len reports how many samples have been pushed, up to Cap().
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Ring) Cap() int { return len(r.buf) }
