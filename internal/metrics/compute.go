package metrics

import (
	"math"
	"sort"
)

// sample holds observations in arrival order plus a sorted copy for order
// statistics.
type sample struct {
	values []float64
	sorted []float64
}

func newSample(values []float64) sample {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sample{values: values, sorted: sorted}
}

func (s sample) mean() float64 {
	if len(s.values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.values {
		sum += v
	}
	return sum / float64(len(s.values))
}

// stddev is the sample standard deviation (n-1 denominator), 0 below two
// observations.
func (s sample) stddev() float64 {
	n := len(s.values)
	if n < 2 {
		return 0
	}
	m := s.mean()
	var sq float64
	for _, v := range s.values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(n-1))
}

// quantile interpolates linearly between the closest ranks; q is in [0, 1].
func (s sample) quantile(q float64) float64 {
	n := len(s.sorted)
	switch {
	case n == 0:
		return 0
	case q <= 0:
		return s.sorted[0]
	case q >= 1:
		return s.sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	if lo+1 >= n {
		return s.sorted[n-1]
	}
	return s.sorted[lo] + (pos-float64(lo))*(s.sorted[lo+1]-s.sorted[lo])
}

func (s sample) min() float64 {
	if len(s.sorted) == 0 {
		return 0
	}
	return s.sorted[0]
}

func (s sample) max() float64 {
	if len(s.sorted) == 0 {
		return 0
	}
	return s.sorted[len(s.sorted)-1]
}

// drawdown is the deepest fall of the running sum below its running high,
// starting from zero.
func (s sample) drawdown() float64 {
	var sum, high, worst float64
	for _, v := range s.values {
		sum += v
		high = math.Max(high, sum)
		worst = math.Max(worst, high-sum)
	}
	return worst
}

// ratio is num/den, 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
