// Package planner turns weights into per submission answers.
package planner

import (
	"math"

	"formsim-backend/internal/weights"
)

// Rand is the source of randomness used by every planner. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Answer is the list of values posted for a question in a single
// submission, an empty Answer is not posted at all.
type Answer []string

// Schedule maps an item id to its answer for every submission index. Grid
// items are resolved per submission and never appear in it.
type Schedule map[string][]Answer

// At returns the answer of an item at a submission index, nil when there is none.
func (s Schedule) At(itemID string, i int) Answer {
	answers, ok := s[itemID]
	if !ok || i < 0 || i >= len(answers) {
		return nil
	}
	return answers[i]
}

// occurrences is floor(percent/100 * n), with a small epsilon so percents
// that are exact in decimal do not lose a unit to float representation.
func occurrences(percent float64, n int) int {
	if percent <= 0 || n <= 0 {
		return 0
	}
	count := int(math.Floor(percent*float64(n)/100 + 1e-9))
	if count > n {
		return n
	}
	return count
}

// balancedValues is PlanBalanced with every answer flattened to a single
// value, "" meaning absent.
func balancedValues(rng Rand, n int, w weights.Map) []string {
	if n <= 0 {
		return nil
	}
	if len(w) == 0 {
		return make([]string, n)
	}

	planned := make([]string, 0, n)
	for _, e := range w {
		for c := occurrences(e.Percent, n); c > 0; c-- {
			planned = append(planned, e.Key)
		}
	}

	top, _ := w.Top()
	for len(planned) < n {
		planned = append(planned, top)
	}

	rng.Shuffle(len(planned), func(i, j int) {
		planned[i], planned[j] = planned[j], planned[i]
	})
	// only reachable when the weights sum past 100
	return planned[:n]
}

func toAnswers(values []string) []Answer {
	out := make([]Answer, len(values))
	for i, v := range values {
		if v != "" {
			out[i] = Answer{v}
		}
	}
	return out
}

// PlanBalanced plans a single select question. Every key appears
// floor(weight% of n) times, the shortfall from flooring goes to the highest
// weight key and the result is shuffled.
func PlanBalanced(rng Rand, n int, w weights.Map) []Answer {
	return toAnswers(balancedValues(rng, n, w))
}

// PlanIndependent plans a multi select question. Every key is selected in
// exactly floor(weight% of n) submissions chosen independently of every
// other key.
func PlanIndependent(rng Rand, n int, w weights.Map) []Answer {
	if n <= 0 {
		return nil
	}
	out := make([]Answer, n)
	for _, e := range w {
		selected := make([]bool, n)
		for i := 0; i < occurrences(e.Percent, n); i++ {
			selected[i] = true
		}
		rng.Shuffle(n, func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
		for i, ok := range selected {
			if ok {
				out[i] = append(out[i], e.Key)
			}
		}
	}
	return out
}
