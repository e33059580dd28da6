package scoring

import "gonum.org/v1/gonum/stat"

// EMA is an exponential moving average starting from zero. Weight is the
// share given to each new sample.
type EMA struct {
	Weight float64
	value  float64
}

// NewEMA returns an average with the given new-sample weight.
func NewEMA(weight float64) *EMA { return &EMA{Weight: weight} }

// Update folds v into the average and returns the new value.
func (e *EMA) Update(v float64) float64 {
	e.value = (1-e.Weight)*e.value + e.Weight*v
	return e.value
}

// Value returns the current average.
func (e *EMA) Value() float64 { return e.value }

// Window is a rolling mean over the last Size samples.
type Window struct {
	size    int
	samples []float64
}

// NewWindow returns a rolling mean of at most size samples.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{size: size, samples: make([]float64, 0, size)}
}

// Add appends v and returns the mean of the retained samples.
func (w *Window) Add(v float64) float64 {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.size-1]
	}
	w.samples = append(w.samples, v)
	return w.Mean()
}

// Mean of the retained samples, 0 when empty.
func (w *Window) Mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return stat.Mean(w.samples, nil)
}

// Len returns the number of retained samples.
func (w *Window) Len() int { return len(w.samples) }

// Reset drops all samples.
func (w *Window) Reset() { w.samples = w.samples[:0] }
