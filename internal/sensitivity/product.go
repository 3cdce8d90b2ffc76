package sensitivity

import (
	"iter"
	"math"
)

// MaxCombinations bounds the cartesian product size accepted by Count.
const MaxCombinations = 1 << 24

// Count returns the number of combinations in the cartesian product, i.e.
// the product of the candidate sequence lengths. It returns a
// ConfigurationError if the product would exceed MaxCombinations.
func (s *InputSpec) Count() (int, error) {
	total := int64(1)
	for _, p := range s.params {
		total *= int64(len(p.Values))
		if total > MaxCombinations || total < 0 {
			return 0, configErrorf("parameter combinations would exceed safe limit of %d", MaxCombinations)
		}
	}
	return int(total), nil
}

// Combination returns the i-th combination in odometer order: the last input
// varies fastest, the first input is the outermost loop.
func (s *InputSpec) Combination(i int) []any {
	combo := make([]any, len(s.params))
	s.fill(i, combo)
	return combo
}

func (s *InputSpec) fill(i int, combo []any) {
	for dim := len(s.params) - 1; dim >= 0; dim-- {
		vals := s.params[dim].Values
		combo[dim] = vals[i%len(vals)]
		i /= len(vals)
	}
}

// Combinations returns a lazy sequence of (index, combination) pairs in
// odometer order. The sequence is restartable and each yielded slice is
// freshly allocated.
func (s *InputSpec) Combinations() iter.Seq2[int, []any] {
	return func(yield func(int, []any) bool) {
		total := 1
		for _, p := range s.params {
			if total > math.MaxInt/len(p.Values) {
				return
			}
			total *= len(p.Values)
		}

		// Odometer: advance the last digit, carry leftwards.
		digits := make([]int, len(s.params))
		for i := 0; i < total; i++ {
			combo := make([]any, len(s.params))
			for dim, d := range digits {
				combo[dim] = s.params[dim].Values[d]
			}
			if !yield(i, combo) {
				return
			}
			for dim := len(digits) - 1; dim >= 0; dim-- {
				digits[dim]++
				if digits[dim] < len(s.params[dim].Values) {
					break
				}
				digits[dim] = 0
			}
		}
	}
}
