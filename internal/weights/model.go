package weights

import (
	"errors"
	"fmt"
	"strconv"

	"formsim-backend/internal/form"
)

var (
	ErrUnknownKey  = errors.New("unknown weight key")
	ErrUnknownItem = errors.New("unknown item")
	ErrNotWeighted = errors.New("item does not take weights")
	ErrNotGrid     = errors.New("item is not a multiple choice grid")
)

// Model is the weight state of every question in a form. It is not safe for
// concurrent use and must not be edited while a schedule built from it is
// being dispatched.
type Model struct {
	items    map[string]form.FormItem
	weights  map[string]Map
	limitOne map[string]bool
}

func NewModel(parsed form.ParsedForm) *Model {
	m := &Model{items: make(map[string]form.FormItem, len(parsed.Items))}
	for _, item := range parsed.Items {
		m.items[item.ID] = item
	}
	m.Reset()
	return m
}

// initialWeights returns nil for items that are not planned from weights.
func initialWeights(item form.FormItem) Map {
	switch item.Type {
	case form.MULTIPLE_CHOICE, form.DROPDOWN:
		return Equal(optionKeys(item))
	case form.CHECKBOXES:
		return Uniform(optionKeys(item), 50)
	case form.LINEAR_SCALE:
		start, end := item.ScaleRange()
		if !form.ValidScale(start, end) {
			return nil
		}
		keys := make([]string, 0, end-start+1)
		for v := start; v <= end; v++ {
			keys = append(keys, strconv.Itoa(v))
		}
		return Equal(keys)
	}
	return nil
}

func optionKeys(item form.FormItem) []string {
	keys := make([]string, len(item.Options))
	for i, o := range item.Options {
		keys[i] = o.Key()
	}
	return keys
}

// Reset restores every weight and grid toggle to its initial value.
func (m *Model) Reset() {
	m.weights = make(map[string]Map)
	m.limitOne = make(map[string]bool)
	for id, item := range m.items {
		if w := initialWeights(item); len(w) > 0 {
			m.weights[id] = w
		}
		if item.Type == form.MULTIPLE_CHOICE_GRID {
			m.limitOne[id] = item.LimitOneResponsePerColumn
		}
	}
}

// Weights returns a copy of the weights of an item.
func (m *Model) Weights(itemID string) (Map, bool) {
	w, ok := m.weights[itemID]
	return w.Clone(), ok
}

func (m *Model) weighted(itemID string) (form.FormItem, Map, error) {
	item, ok := m.items[itemID]
	if !ok {
		return form.FormItem{}, nil, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	w, ok := m.weights[itemID]
	if !ok {
		return form.FormItem{}, nil, fmt.Errorf("%w: %s", ErrNotWeighted, itemID)
	}
	return item, w, nil
}

// Set edits a single key using the discipline of the item.
func (m *Model) Set(itemID, key string, v float64) error {
	item, w, err := m.weighted(itemID)
	if err != nil {
		return err
	}
	if DisciplineOf(item.Type) == Independent {
		return w.SetIndependent(key, v)
	}
	return w.SetBalanced(key, v)
}

// Assign replaces several weights of an item at once. Keys missing from
// percents are set to 0. Balanced items are scaled back so they sum to 100,
// or split evenly when every given weight is 0.
func (m *Model) Assign(itemID string, percents map[string]float64) error {
	item, w, err := m.weighted(itemID)
	if err != nil {
		return err
	}
	for key := range percents {
		if w.index(key) < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}

	next := w.Clone()
	for i := range next {
		next[i].Percent = clamp(percents[next[i].Key])
	}

	if DisciplineOf(item.Type) == Balanced {
		sum := next.Sum()
		if sum <= 0 {
			next = Equal(next.Keys())
		} else {
			for i := range next {
				next[i].Percent = next[i].Percent / sum * 100
			}
		}
	}

	m.weights[itemID] = next
	return nil
}

func (m *Model) LimitOne(itemID string) bool {
	return m.limitOne[itemID]
}

// SetLimitOne toggles the one response per column constraint of a multiple
// choice grid.
func (m *Model) SetLimitOne(itemID string, on bool) error {
	item, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if item.Type != form.MULTIPLE_CHOICE_GRID {
		return fmt.Errorf("%w: %s", ErrNotGrid, itemID)
	}
	m.limitOne[itemID] = on
	return nil
}
