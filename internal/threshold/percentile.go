// Package threshold computes the adaptive entry threshold: a nearest-rank
// percentile over completed gap lengths.
package threshold

import (
	"math"
	"sort"
)

// Unreachable is returned when history is too short; no gap ever reaches it.
const Unreachable = math.MaxInt

// rankEpsilon absorbs float error so that e.g. 90% of 20 is rank 18, not 19.
const rankEpsilon = 1e-9

// Percentile returns the nearest-rank percentile of lengths:
// the ceil(pct/100 * n)-th smallest value, rank clamped to [1, n].
// Returns Unreachable when len(lengths) < minSamples or lengths is empty.
// lengths is not modified.
func Percentile(lengths []int, pct float64, minSamples int) int {
	n := len(lengths)
	if n == 0 || n < minSamples {
		return Unreachable
	}
	sorted := make([]int, n)
	copy(sorted, lengths)
	sort.Ints(sorted)
	return sorted[rank(pct, n)-1]
}

func rank(pct float64, n int) int {
	r := int(math.Ceil(pct*float64(n)/100 - rankEpsilon))
	if r < 1 {
		r = 1
	}
	if r > n {
		r = n
	}
	return r
}

// Estimator maintains completed gap lengths in sorted order so the threshold
// is available after every completed gap without re-sorting.
type Estimator struct {
	pct        float64
	minSamples int
	sorted     []int
}

// NewEstimator creates an estimator for the given percentile and minimum history.
func NewEstimator(pct float64, minSamples int) *Estimator {
	return &Estimator{pct: pct, minSamples: minSamples}
}

// Add inserts one completed gap length.
func (e *Estimator) Add(length int) {
	i := sort.SearchInts(e.sorted, length)
	e.sorted = append(e.sorted, 0)
	copy(e.sorted[i+1:], e.sorted[i:])
	e.sorted[i] = length
}

// Len returns the number of lengths seen.
func (e *Estimator) Len() int {
	return len(e.sorted)
}

// Threshold returns the current percentile, or Unreachable with insufficient history.
func (e *Estimator) Threshold() int {
	n := len(e.sorted)
	if n == 0 || n < e.minSamples {
		return Unreachable
	}
	return e.sorted[rank(e.pct, n)-1]
}
