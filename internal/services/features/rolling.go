package features

import "math"

// Window is a sliding window over a float64 series that shrinks at the
// series start: until capacity points have been pushed it holds everything
// seen so far, so statistics are computed over however many points exist.
type Window struct {
	cap  int
	vals []float64
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{cap: capacity, vals: make([]float64, 0, capacity)}
}

// Push appends v, evicting the oldest point once the window is full.
func (w *Window) Push(v float64) {
	if len(w.vals) == w.cap {
		copy(w.vals, w.vals[1:])
		w.vals[len(w.vals)-1] = v
		return
	}
	w.vals = append(w.vals, v)
}

// Len returns the number of points currently held.
func (w *Window) Len() int { return len(w.vals) }

// Mean returns the average of the points currently held, NaN when empty.
func (w *Window) Mean() float64 {
	if len(w.vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range w.vals {
		sum += v
	}
	return sum / float64(len(w.vals))
}

// Std returns the sample standard deviation (n-1 in the denominator) of the
// points currently held. A single point has no sample deviation, so the
// first row of any std-derived column is NaN; downstream code carries that
// through instead of papering over it.
func (w *Window) Std() float64 {
	n := len(w.vals)
	if n < 2 {
		return math.NaN()
	}
	mean := w.Mean()
	sum2 := 0.0
	for _, v := range w.vals {
		d := v - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(n-1))
}

// EMA is the exponential moving average recurrence with alpha = 2/(span+1),
// seeded by the first observation.
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

func NewEMA(span int) *EMA {
	if span < 1 {
		span = 1
	}
	return &EMA{alpha: 2.0 / (float64(span) + 1)}
}

// Update folds v into the average and returns the new value.
func (e *EMA) Update(v float64) float64 {
	if !e.seeded {
		e.value = v
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current average, NaN before the first observation.
func (e *EMA) Value() float64 {
	if !e.seeded {
		return math.NaN()
	}
	return e.value
}
