package bench

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Stats — сводка выборки; Std — несмещённое стандартное отклонение.
type Stats[T constraints.Integer | constraints.Float] struct {
	N     int
	Best  T
	Worst T
	Mean  float64
	Std   float64
}

func CalcStats[T constraints.Integer | constraints.Float](values []T) Stats[T] {
	s := Stats[T]{N: len(values)}
	if s.N == 0 {
		return s
	}

	best, worst := values[0], values[0]
	sum := 0.0
	for _, v := range values {
		best = min(best, v)
		worst = max(worst, v)
		sum += float64(v)
	}
	mean := sum / float64(s.N)

	variance := 0.0
	if s.N >= 2 {
		for _, v := range values {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(s.N - 1)
	}

	s.Best = best
	s.Worst = worst
	s.Mean = mean
	s.Std = math.Sqrt(variance)
	return s
}

// RelativeGap — отклонение value от reference в процентах.
func RelativeGap(value, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return 100 * (value - reference) / reference
}
