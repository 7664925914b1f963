package planner

import (
	"errors"
	"fmt"

	"formsim-backend/internal/form"
	"formsim-backend/internal/weights"
)

const (
	MinCount = 1
	MaxCount = 1000

	// TextPlaceholder is posted for free text questions.
	TextPlaceholder = "N/A"
)

var (
	ErrCountOutOfRange    = errors.New("submission count out of range")
	ErrInvalidCorrelation = errors.New("invalid correlation")
)

func ValidateCount(n int) error {
	if n < MinCount || n > MaxCount {
		return fmt.Errorf("%w: %d is not within [%d, %d]", ErrCountOutOfRange, n, MinCount, MaxCount)
	}
	return nil
}

type Options struct {
	// Correlation is optional.
	Correlation *Correlation
	// TextPlaceholder overrides the value posted for free text questions.
	TextPlaceholder string
}

func (o Options) placeholder() string {
	if o.TextPlaceholder != "" {
		return o.TextPlaceholder
	}
	return TextPlaceholder
}

func validateCorrelation(parsed form.ParsedForm, c *Correlation) error {
	name, ok := parsed.Item(c.NameItemID)
	if !ok {
		return fmt.Errorf("%w: unknown name item %q", ErrInvalidCorrelation, c.NameItemID)
	}
	if name.Type != form.SHORT_ANSWER {
		return fmt.Errorf("%w: name item %q is a %s", ErrInvalidCorrelation, c.NameItemID, name.Type)
	}
	if c.CategoryItemID == "" {
		return nil
	}
	category, ok := parsed.Item(c.CategoryItemID)
	if !ok {
		return fmt.Errorf("%w: unknown category item %q", ErrInvalidCorrelation, c.CategoryItemID)
	}
	if category.Type.IsGrid() || weights.DisciplineOf(category.Type) != weights.Balanced {
		return fmt.Errorf("%w: category item %q is a %s", ErrInvalidCorrelation, c.CategoryItemID, category.Type)
	}
	return nil
}

func repeat(value string, n int) []Answer {
	out := make([]Answer, n)
	for i := range out {
		out[i] = Answer{value}
	}
	return out
}

// Build plans n submissions for every non grid question of a form.
func Build(rng Rand, parsed form.ParsedForm, model *weights.Model, n int, opts Options) (Schedule, error) {
	err := ValidateCount(n)
	if err != nil {
		return nil, err
	}

	schedule := Schedule{}
	var staticNames string

	if c := opts.Correlation; c != nil {
		err := validateCorrelation(parsed, c)
		if err != nil {
			return nil, err
		}
		categoryWeights, ok := model.Weights(c.CategoryItemID)
		if c.CategoryItemID != "" && ok {
			categories := balancedValues(rng, n, categoryWeights)
			schedule[c.CategoryItemID] = toAnswers(categories)
			schedule[c.NameItemID] = toAnswers(Correlate(rng, categories, c.rule()))
		} else {
			staticNames = c.NameItemID
		}
	}

	for _, item := range parsed.Items {
		if _, done := schedule[item.ID]; done {
			continue
		}

		switch item.Type {
		case form.SHORT_ANSWER, form.PARAGRAPH:
			if item.ID == staticNames {
				schedule[item.ID] = toAnswers(StaticNames(rng, n, opts.Correlation.rule()))
				continue
			}
			schedule[item.ID] = repeat(opts.placeholder(), n)
		case form.MULTIPLE_CHOICE, form.DROPDOWN, form.LINEAR_SCALE:
			w, _ := model.Weights(item.ID)
			schedule[item.ID] = PlanBalanced(rng, n, w)
		case form.CHECKBOXES:
			w, _ := model.Weights(item.ID)
			schedule[item.ID] = PlanIndependent(rng, n, w)
		}
	}

	return schedule, nil
}
