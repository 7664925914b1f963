package planner

import (
	"formsim-backend/lib/textutil"
)

// NamePool is a list of names used for category values that contain Token.
type NamePool struct {
	Token string
	Names []string
}

// NameRule decides the name generated for a category value.
type NameRule struct {
	// Pools are checked in order, the first whose token is contained in the
	// category value (ignoring case) is drawn from.
	Pools []NamePool
	// Sentinel is emitted for category values that match no pool.
	Sentinel string
	// Majority indexes the pool that supplies MajorityShare of the names
	// when no category question is linked, the other pools share the rest.
	Majority      int
	MajorityShare float64
}

// DefaultNameRule checks "female" before "male" since the latter is a
// substring of the former.
func DefaultNameRule() NameRule {
	return NameRule{
		Pools: []NamePool{
			{Token: "female", Names: FemaleNames},
			{Token: "male", Names: MaleNames},
		},
		Sentinel:      TextPlaceholder,
		Majority:      1,
		MajorityShare: 0.6,
	}
}

// Correlation links a categorical question to a short answer question whose
// answers are names drawn according to the category of the same submission.
// CategoryItemID may be empty, in which case names follow the static split
// of the rule.
type Correlation struct {
	CategoryItemID string
	NameItemID     string
	Rule           NameRule
}

// rule falls back to DefaultNameRule when no pools are configured.
func (c Correlation) rule() NameRule {
	if len(c.Rule.Pools) == 0 {
		return DefaultNameRule()
	}
	return c.Rule
}

func (r NameRule) draw(rng Rand, pool NamePool) string {
	if len(pool.Names) == 0 {
		return r.Sentinel
	}
	return pool.Names[rng.Intn(len(pool.Names))]
}

// NameFor returns a name for a single category value.
func (r NameRule) NameFor(rng Rand, category string) string {
	for _, pool := range r.Pools {
		if pool.Token != "" && textutil.ContainsFold(category, pool.Token) {
			return r.draw(rng, pool)
		}
	}
	return r.Sentinel
}

// Correlate maps every category value to a name at the same index.
func Correlate(rng Rand, categories []string, rule NameRule) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = rule.NameFor(rng, c)
	}
	return out
}

// StaticNames generates n names without a linked category using the fixed
// split of the rule, shuffled.
func StaticNames(rng Rand, n int, rule NameRule) []string {
	if n <= 0 {
		return nil
	}
	if len(rule.Pools) == 0 {
		out := make([]string, n)
		for i := range out {
			out[i] = rule.Sentinel
		}
		return out
	}

	majority := rule.Majority
	if majority < 0 || majority >= len(rule.Pools) {
		majority = 0
	}
	counts := make([]int, len(rule.Pools))
	counts[majority] = occurrences(rule.MajorityShare*100, n)
	if len(rule.Pools) == 1 {
		counts[majority] = n
	}

	// deal the rest round robin over the minority pools
	rest := n - counts[majority]
	for i := 0; rest > 0; i = (i + 1) % len(rule.Pools) {
		if i == majority {
			continue
		}
		counts[i]++
		rest--
	}

	names := make([]string, 0, n)
	for i, pool := range rule.Pools {
		for c := 0; c < counts[i]; c++ {
			names = append(names, rule.draw(rng, pool))
		}
	}
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	return names
}
