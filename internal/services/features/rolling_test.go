package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowShrinksAtSeriesStart(t *testing.T) {
	w := NewWindow(3)

	w.Push(2)
	assert.Equal(t, 1, w.Len())
	assert.InDelta(t, 2.0, w.Mean(), 1e-12)

	w.Push(4)
	assert.Equal(t, 2, w.Len())
	assert.InDelta(t, 3.0, w.Mean(), 1e-12)
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 10} {
		w.Push(v)
	}
	require.Equal(t, 3, w.Len())
	assert.InDelta(t, 5.0, w.Mean(), 1e-12) // 2, 3, 10
}

func TestWindowMeanEmptyIsNaN(t *testing.T) {
	w := NewWindow(5)
	assert.True(t, math.IsNaN(w.Mean()))
}

func TestWindowStdSamplePointIsNaN(t *testing.T) {
	w := NewWindow(5)
	w.Push(42)
	assert.True(t, math.IsNaN(w.Std()))
}

func TestWindowStdSampleDenominator(t *testing.T) {
	w := NewWindow(5)
	for _, v := range []float64{1, 2, 3} {
		w.Push(v)
	}
	// sample variance over {1,2,3} is 1
	assert.InDelta(t, 1.0, w.Std(), 1e-12)
}

func TestWindowStdConstantSeriesIsZero(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 4; i++ {
		w.Push(7)
	}
	assert.InDelta(t, 0.0, w.Std(), 1e-12)
}

func TestEMASeededByFirstValue(t *testing.T) {
	e := NewEMA(3) // alpha = 0.5
	assert.True(t, math.IsNaN(e.Value()))

	assert.InDelta(t, 10.0, e.Update(10), 1e-12)
	assert.InDelta(t, 15.0, e.Update(20), 1e-12)
	assert.InDelta(t, 22.5, e.Update(30), 1e-12)
	assert.InDelta(t, 22.5, e.Value(), 1e-12)
}

func TestEMAAlphaFromSpan(t *testing.T) {
	e := NewEMA(9) // alpha = 0.2
	e.Update(0)
	assert.InDelta(t, 2.0, e.Update(10), 1e-12)
}
