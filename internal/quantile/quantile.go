package quantile

import (
	"math"
	"sort"
)

// Quantile is a collection of data points.
type Quantile struct {
	Xs []float64

	// Sorted indicates that Xs is sorted in ascending order.
	Sorted bool
}

// Bounds returns the minimum and maximum values of the Quantile.
func (q Quantile) Bounds() (min float64, max float64) {
	if len(q.Xs) == 0 {
		return 0, 0
	}
	if q.Sorted {
		return q.Xs[0], q.Xs[len(q.Xs)-1]
	}
	min, max = q.Xs[0], q.Xs[0]
	for _, x := range q.Xs {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return
}

func (q Quantile) Sum() float64 {
	sum := 0.0
	for _, x := range q.Xs {
		sum += x
	}
	return sum
}

// Mean returns the arithmetic mean, or 0 for an empty Quantile.
func (q Quantile) Mean() float64 {
	if len(q.Xs) == 0 {
		return 0
	}
	m := 0.0
	for i, x := range q.Xs {
		m += (x - m) / float64(i+1)
	}
	return m
}

// Percentile returns the pctileth value using interpolation method R8 from
// Hyndman and Fan (1996). pctile is capped to [0, 1]; an empty Quantile
// returns 0.
func (q Quantile) Percentile(pctile float64) float64 {
	if len(q.Xs) == 0 {
		return 0
	} else if pctile <= 0 {
		min, _ := q.Bounds()
		return min
	} else if pctile >= 1 {
		_, max := q.Bounds()
		return max
	}

	if !q.Sorted {
		q = *q.Copy().Sort()
	}

	N := float64(len(q.Xs))
	n := 1/3.0 + pctile*(N+1/3.0)
	kf, frac := math.Modf(n)
	k := int(kf)
	if k <= 0 {
		return q.Xs[0]
	} else if k >= len(q.Xs) {
		return q.Xs[len(q.Xs)-1]
	}
	return q.Xs[k-1] + frac*(q.Xs[k]-q.Xs[k-1])
}

// Sort sorts the values in place and returns q.
func (q *Quantile) Sort() *Quantile {
	if !q.Sorted {
		sort.Float64s(q.Xs)
	}
	q.Sorted = true
	return q
}

// Copy returns a copy sharing no data with q.
func (q Quantile) Copy() *Quantile {
	xs := make([]float64, len(q.Xs))
	copy(xs, q.Xs)
	return &Quantile{Xs: xs, Sorted: q.Sorted}
}

func (q *Quantile) Add(v ...float64) {
	q.Xs = append(q.Xs, v...)
	q.Sorted = false
}
