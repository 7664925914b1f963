// Package weights holds the per option percentages that drive batch planning.
package weights

import (
	"fmt"
	"math"

	"formsim-backend/internal/form"
)

// Entry is the percentage of a single option, row or column key.
type Entry struct {
	Key     string  `json:"key"`
	Percent float64 `json:"percent"`
}

// Map is an ordered set of weights. The order is the source order of the
// options and breaks ties wherever the highest weight is needed.
type Map []Entry

// Equal gives every key the same share of 100.
func Equal(keys []string) Map {
	if len(keys) == 0 {
		return nil
	}
	return Uniform(keys, 100/float64(len(keys)))
}

// Uniform gives every key the same percent.
func Uniform(keys []string, percent float64) Map {
	out := make(Map, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Percent: percent}
	}
	return out
}

func (m Map) index(key string) int {
	for i, e := range m {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func (m Map) Get(key string) (float64, bool) {
	idx := m.index(key)
	if idx < 0 {
		return 0, false
	}
	return m[idx].Percent, true
}

func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

func (m Map) Sum() float64 {
	var sum float64
	for _, e := range m {
		sum += e.Percent
	}
	return sum
}

func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	copy(out, m)
	return out
}

// Top returns the key with the highest weight, the earliest key wins ties.
func (m Map) Top() (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	best := 0
	for i, e := range m {
		if e.Percent > m[best].Percent {
			best = i
		}
	}
	return m[best].Key, true
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SetBalanced sets key to v and redistributes the remainder across every
// other key in proportion to their previous weights, so the map keeps summing
// to 100.
func (m Map) SetBalanced(key string, v float64) error {
	idx := m.index(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if len(m) == 1 {
		m[0].Percent = 100
		return nil
	}

	v = clamp(v)
	remainder := 100 - v

	var others float64
	for i, e := range m {
		if i != idx {
			others += e.Percent
		}
	}

	for i := range m {
		if i == idx {
			m[i].Percent = v
			continue
		}
		if others <= 0 {
			m[i].Percent = remainder / float64(len(m)-1)
			continue
		}
		m[i].Percent = m[i].Percent / others * remainder
	}
	return nil
}

// SetIndependent clamps v and sets it without touching any other key.
func (m Map) SetIndependent(key string, v float64) error {
	idx := m.index(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	m[idx].Percent = clamp(v)
	return nil
}

// Discipline is the rule used to edit and plan a question's weights.
type Discipline int

const (
	// Unweighted questions are never planned from weights.
	Unweighted Discipline = iota
	// Balanced weights are mutually exclusive and sum to 100.
	Balanced
	// Independent weights are per key inclusion probabilities.
	Independent
)

func (d Discipline) String() string {
	switch d {
	case Balanced:
		return "balanced"
	case Independent:
		return "independent"
	}
	return "unweighted"
}

func DisciplineOf(t form.QuestionType) Discipline {
	switch t {
	case form.MULTIPLE_CHOICE, form.DROPDOWN, form.LINEAR_SCALE, form.MULTIPLE_CHOICE_GRID:
		return Balanced
	case form.CHECKBOXES, form.CHECKBOX_GRID:
		return Independent
	}
	return Unweighted
}
