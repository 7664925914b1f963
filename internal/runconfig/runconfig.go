// Package runconfig reads the json5 file that configures a run and applies
// it to the weights of a form.
package runconfig

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"formsim-backend/internal/form"
	"formsim-backend/internal/planner"
	"formsim-backend/internal/weights"
	"formsim-backend/lib/configutil"
	"formsim-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// minSimilarity is the lowest jaro-winkler similarity accepted for a fuzzy
// question reference.
const minSimilarity = 0.9

var (
	ErrUnresolved = errors.New("unresolved reference")
	ErrAmbiguous  = errors.New("ambiguous reference")
)

type QuestionConfig struct {
	// Weights are percentages keyed by option label (or scale value).
	Weights  map[string]float64 `json:"weights"`
	LimitOne *bool              `json:"limit_one"`
}

type CorrelationConfig struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

type LedgerConfig struct {
	// URL of the remote credit routes, a local ledger is used when empty.
	URL      string `json:"url"`
	Token    string `json:"token"`
	Disabled bool   `json:"disabled"`
}

type DatabaseConfig struct {
	// Path is a sqlite file or a libsql:// url.
	Path      string `json:"path"`
	AuthToken string `json:"auth_token"`
}

type Config struct {
	Form        string             `json:"form"`
	Count       int                `json:"count"`
	Pacing      string             `json:"pacing"`
	Seed        int64              `json:"seed"`
	Placeholder string             `json:"placeholder"`
	Correlation *CorrelationConfig `json:"correlation"`
	// Questions are keyed by item id or title.
	Questions map[string]QuestionConfig `json:"questions"`
	Ledger    LedgerConfig              `json:"ledger"`
	Database  DatabaseConfig            `json:"database"`
}

// Load reads path merged with its .local override.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("read run config: %w", err)
	}
	return cfg, nil
}

// PacingDuration parses Pacing, returning 0 when it is unset.
func (c Config) PacingDuration() (time.Duration, error) {
	if c.Pacing == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Pacing)
	if err != nil {
		return 0, fmt.Errorf("invalid pacing %q: %w", c.Pacing, err)
	}
	return d, nil
}

// ResolveItem finds the item a reference points to. A reference matches by
// id, then by exact title, then by title ignoring case and whitespace and
// finally by the most similar title.
func ResolveItem(parsed form.ParsedForm, ref string) (form.FormItem, error) {
	if item, ok := parsed.Item(ref); ok {
		return item, nil
	}

	var exact, normalized []form.FormItem
	target := textutil.NormalizeName(ref)
	for _, item := range parsed.Items {
		if item.Type == form.SECTION_HEADER {
			continue
		}
		if item.Title == ref {
			exact = append(exact, item)
		}
		if textutil.NormalizeName(item.Title) == target {
			normalized = append(normalized, item)
		}
	}
	for _, matches := range [][]form.FormItem{exact, normalized} {
		if len(matches) == 1 {
			return matches[0], nil
		}
		if len(matches) > 1 {
			return form.FormItem{}, fmt.Errorf("%w: %q matches %d questions", ErrAmbiguous, ref, len(matches))
		}
	}

	var best form.FormItem
	var bestSimilarity float64
	for _, item := range parsed.Items {
		if item.Type == form.SECTION_HEADER {
			continue
		}
		similarity := matchr.JaroWinkler(target, textutil.NormalizeName(item.Title), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = item
		}
	}
	if bestSimilarity >= minSimilarity {
		return best, nil
	}
	return form.FormItem{}, fmt.Errorf("%w: no question matches %q", ErrUnresolved, ref)
}

// resolveKey maps a configured option name onto a weight key.
func resolveKey(w weights.Map, name string) (string, error) {
	if _, ok := w.Get(name); ok {
		return name, nil
	}
	target := textutil.NormalizeName(name)
	for _, key := range w.Keys() {
		if textutil.NormalizeName(key) == target {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: no option matches %q", ErrUnresolved, name)
}

func sortedRefs(questions map[string]QuestionConfig) []string {
	refs := make([]string, 0, len(questions))
	for ref := range questions {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Apply writes the configured weights and grid toggles into model and
// returns the planner options of the run.
func Apply(cfg Config, parsed form.ParsedForm, model *weights.Model) (planner.Options, error) {
	opts := planner.Options{TextPlaceholder: cfg.Placeholder}

	for _, ref := range sortedRefs(cfg.Questions) {
		qcfg := cfg.Questions[ref]
		item, err := ResolveItem(parsed, ref)
		if err != nil {
			return planner.Options{}, err
		}

		if len(qcfg.Weights) > 0 {
			current, ok := model.Weights(item.ID)
			if !ok {
				return planner.Options{}, fmt.Errorf("question %q: %w", ref, weights.ErrNotWeighted)
			}
			percents := make(map[string]float64, len(qcfg.Weights))
			for name, percent := range qcfg.Weights {
				key, err := resolveKey(current, name)
				if err != nil {
					return planner.Options{}, fmt.Errorf("question %q: %w", ref, err)
				}
				percents[key] = percent
			}
			err = model.Assign(item.ID, percents)
			if err != nil {
				return planner.Options{}, fmt.Errorf("question %q: %w", ref, err)
			}
		}

		if qcfg.LimitOne != nil {
			err = model.SetLimitOne(item.ID, *qcfg.LimitOne)
			if err != nil {
				return planner.Options{}, fmt.Errorf("question %q: %w", ref, err)
			}
		}
	}

	if c := cfg.Correlation; c != nil && c.Name != "" {
		name, err := ResolveItem(parsed, c.Name)
		if err != nil {
			return planner.Options{}, fmt.Errorf("correlation name: %w", err)
		}
		correlation := &planner.Correlation{
			NameItemID: name.ID,
			Rule:       planner.DefaultNameRule(),
		}
		if c.Category != "" {
			category, err := ResolveItem(parsed, c.Category)
			if err != nil {
				return planner.Options{}, fmt.Errorf("correlation category: %w", err)
			}
			correlation.CategoryItemID = category.ID
		}
		opts.Correlation = correlation
	}

	return opts, nil
}
