package types

import "sync"

// SampleWindow is a bounded FIFO window over recent throughput samples and
// their timestamps. When capacity is exceeded the oldest pair is evicted
// before the new one is appended. Eviction is O(1) amortized: storage is a
// ring, projection restores insertion order.
type SampleWindow struct {
	values     []float64
	timestamps []string
	head       int
	count      int
	capacity   int
	mu         sync.RWMutex
}

func NewSampleWindow(capacity int) *SampleWindow {
	if capacity <= 0 {
		capacity = 20
	}
	return &SampleWindow{
		values:     make([]float64, capacity),
		timestamps: make([]string, capacity),
		capacity:   capacity,
	}
}

func (w *SampleWindow) Push(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := (w.head + w.count) % w.capacity
	if w.count == w.capacity {
		// Full: overwrite the oldest slot and advance head.
		idx = w.head
		w.head = (w.head + 1) % w.capacity
	} else {
		w.count++
	}
	w.values[idx] = s.Mbps
	w.timestamps[idx] = s.Timestamp
}

func (w *SampleWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Snapshot returns the windowed values and timestamps in insertion order.
// It is a pure projection of current state; both slices are freshly
// allocated and always have equal length.
func (w *SampleWindow) Snapshot() ([]float64, []string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	values := make([]float64, w.count)
	timestamps := make([]string, w.count)
	for i := 0; i < w.count; i++ {
		idx := (w.head + i) % w.capacity
		values[i] = w.values[idx]
		timestamps[i] = w.timestamps[idx]
	}
	return values, timestamps
}

// Mean of the current window, 0 when empty.
func (w *SampleWindow) Mean() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.values[(w.head+i)%w.capacity]
	}
	return sum / float64(w.count)
}

// Max of the current window, 0 when empty.
func (w *SampleWindow) Max() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var max float64
	for i := 0; i < w.count; i++ {
		if v := w.values[(w.head+i)%w.capacity]; v > max {
			max = v
		}
	}
	return max
}

func (w *SampleWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.head = 0
	w.count = 0
}
