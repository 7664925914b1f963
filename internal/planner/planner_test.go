package planner

import (
	"math/rand"
	"sort"
	"testing"

	"formsim-backend/internal/form"
	"formsim-backend/internal/weights"

	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func tally(answers []Answer) map[string]int {
	out := map[string]int{}
	for _, a := range answers {
		for _, v := range a {
			out[v]++
		}
	}
	return out
}

func TestPlanBalancedExact(t *testing.T) {
	answers := PlanBalanced(newRand(), 10, weights.Map{{Key: "A", Percent: 70}, {Key: "B", Percent: 30}})
	require.Len(t, answers, 10)
	require.Equal(t, map[string]int{"A": 7, "B": 3}, tally(answers))
}

func TestPlanBalancedRemainderToTop(t *testing.T) {
	answers := PlanBalanced(newRand(), 10, weights.Map{
		{Key: "A", Percent: 33},
		{Key: "B", Percent: 33},
		{Key: "C", Percent: 34},
	})
	require.Equal(t, map[string]int{"A": 3, "B": 3, "C": 4}, tally(answers))
}

func TestPlanBalancedTieGoesToFirst(t *testing.T) {
	answers := PlanBalanced(newRand(), 1, weights.Equal([]string{"A", "B", "C"}))
	require.Equal(t, []Answer{{"A"}}, answers)
}

func TestPlanBalancedSumsToN(t *testing.T) {
	rng := newRand()
	for trial := 0; trial < 100; trial++ {
		keys := []string{"a", "b", "c", "d", "e"}[:1+rng.Intn(5)]
		w := weights.Equal(keys)
		for edit := 0; edit < 5; edit++ {
			require.NoError(t, w.SetBalanced(keys[rng.Intn(len(keys))], rng.Float64()*100))
		}
		n := 1 + rng.Intn(MaxCount)

		total := 0
		for _, c := range tally(PlanBalanced(rng, n, w)) {
			total += c
		}
		require.Equal(t, n, total)
	}
}

func TestPlanBalancedEdges(t *testing.T) {
	require.Empty(t, PlanBalanced(newRand(), 0, weights.Equal([]string{"a"})))

	absent := PlanBalanced(newRand(), 3, nil)
	require.Len(t, absent, 3)
	for _, a := range absent {
		require.Empty(t, a)
	}
}

func TestPlanBalancedShuffles(t *testing.T) {
	answers := PlanBalanced(newRand(), 100, weights.Map{{Key: "A", Percent: 50}, {Key: "B", Percent: 50}})
	sorted := sort.SliceIsSorted(answers, func(i, j int) bool {
		return answers[i][0] < answers[j][0]
	})
	require.False(t, sorted)
}

func TestPlanIndependent(t *testing.T) {
	answers := PlanIndependent(newRand(), 4, weights.Map{{Key: "X", Percent: 50}, {Key: "Y", Percent: 50}})
	require.Len(t, answers, 4)
	require.Equal(t, map[string]int{"X": 2, "Y": 2}, tally(answers))

	answers = PlanIndependent(newRand(), 10, weights.Map{
		{Key: "X", Percent: 100},
		{Key: "Y", Percent: 0},
		{Key: "Z", Percent: 25},
	})
	require.Equal(t, map[string]int{"X": 10, "Z": 2}, tally(answers))
	for _, a := range answers {
		require.Equal(t, "X", a[0])
	}
}

func TestPlanIndependentIsIndependent(t *testing.T) {
	// with identical arrays every submission would hold both keys or neither
	rng := newRand()
	mixed := false
	for trial := 0; trial < 20 && !mixed; trial++ {
		for _, a := range PlanIndependent(rng, 10, weights.Map{{Key: "X", Percent: 50}, {Key: "Y", Percent: 50}}) {
			if len(a) == 1 {
				mixed = true
			}
		}
	}
	require.True(t, mixed)
}

func gridItem(kind form.QuestionType, rows, cols int) form.FormItem {
	item := form.FormItem{ID: "grid", Type: kind, SubmissionID: "1"}
	for i := 0; i < rows; i++ {
		id := string(rune('1' + i))
		item.Rows = append(item.Rows, form.GridDimension{Label: "row " + id, ID: id})
	}
	for i := 0; i < cols; i++ {
		label := string(rune('A' + i))
		item.Columns = append(item.Columns, form.GridDimension{Label: label, ID: label})
	}
	return item
}

func TestResolveGridLimitOne(t *testing.T) {
	rng := newRand()
	item := gridItem(form.MULTIPLE_CHOICE_GRID, 3, 3)
	for i := 0; i < 50; i++ {
		answers := ResolveGrid(rng, item, true)
		require.Len(t, answers, 3)

		var columns []string
		for idx, a := range answers {
			require.Equal(t, item.Rows[idx].ID, a.RowID)
			columns = append(columns, a.Column)
		}
		sort.Strings(columns)
		require.Equal(t, []string{"A", "B", "C"}, columns)
	}
}

func TestResolveGridMoreRowsThanColumns(t *testing.T) {
	item := gridItem(form.MULTIPLE_CHOICE_GRID, 4, 2)
	answers := ResolveGrid(newRand(), item, true)
	require.Len(t, answers, 2)
	require.Equal(t, "1", answers[0].RowID)
	require.Equal(t, "2", answers[1].RowID)
}

func TestResolveGridFree(t *testing.T) {
	rng := newRand()
	item := gridItem(form.CHECKBOX_GRID, 3, 2)
	item.Rows = append(item.Rows, form.GridDimension{Label: "no id"})

	// limitOne does not apply to checkbox grids
	answers := ResolveGrid(rng, item, true)
	require.Len(t, answers, 3)
	for _, a := range answers {
		require.Contains(t, []string{"A", "B"}, a.Column)
	}

	require.Empty(t, ResolveGrid(rng, gridItem(form.MULTIPLE_CHOICE_GRID, 2, 0), false))
}

func TestCorrelate(t *testing.T) {
	rule := DefaultNameRule()
	categories := []string{"Female", "Male", "FEMALE", "Other", "male"}
	names := Correlate(newRand(), categories, rule)

	require.Contains(t, FemaleNames, names[0])
	require.Contains(t, MaleNames, names[1])
	require.Contains(t, FemaleNames, names[2])
	require.Equal(t, TextPlaceholder, names[3])
	require.Contains(t, MaleNames, names[4])
}

func TestStaticNames(t *testing.T) {
	names := StaticNames(newRand(), 10, DefaultNameRule())
	require.Len(t, names, 10)

	male := 0
	for _, n := range names {
		if contains(MaleNames, n) {
			male++
		} else {
			require.Contains(t, FemaleNames, n)
		}
	}
	require.Equal(t, 6, male)

	names = StaticNames(newRand(), 3, DefaultNameRule())
	male = 0
	for _, n := range names {
		if contains(MaleNames, n) {
			male++
		}
	}
	require.Equal(t, 1, male)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func TestValidateCount(t *testing.T) {
	require.NoError(t, ValidateCount(1))
	require.NoError(t, ValidateCount(1000))
	require.ErrorIs(t, ValidateCount(0), ErrCountOutOfRange)
	require.ErrorIs(t, ValidateCount(1001), ErrCountOutOfRange)
}

func buildForm() form.ParsedForm {
	return form.ParsedForm{Items: []form.FormItem{
		{ID: "name", Type: form.SHORT_ANSWER, SubmissionID: "10"},
		{ID: "gender", Type: form.MULTIPLE_CHOICE, SubmissionID: "20", Options: []form.ChoiceOption{
			{Label: "Female", ID: "Female"}, {Label: "Male", ID: "Male"}, {Label: "Other", ID: "Other"},
		}},
		{ID: "hobbies", Type: form.CHECKBOXES, SubmissionID: "30", Options: []form.ChoiceOption{
			{Label: "Chess"}, {Label: "Golf"},
		}},
		{ID: "notes", Type: form.PARAGRAPH, SubmissionID: "40"},
		{ID: "grid", Type: form.MULTIPLE_CHOICE_GRID, SubmissionID: "50"},
		{ID: "when", Type: form.DATE, SubmissionID: "60"},
		{ID: "header", Type: form.SECTION_HEADER, IsPageBreak: true},
	}}
}

func TestBuild(t *testing.T) {
	parsed := buildForm()
	model := weights.NewModel(parsed)
	require.NoError(t, model.Assign("gender", map[string]float64{"Female": 50, "Male": 30, "Other": 20}))

	schedule, err := Build(newRand(), parsed, model, 20, Options{})
	require.NoError(t, err)

	require.Len(t, schedule["gender"], 20)
	require.Equal(t, map[string]int{"Female": 10, "Male": 6, "Other": 4}, tally(schedule["gender"]))
	require.Equal(t, map[string]int{"Chess": 10, "Golf": 10}, tally(schedule["hobbies"]))
	require.Equal(t, map[string]int{"N/A": 20}, tally(schedule["name"]))
	require.Equal(t, map[string]int{"N/A": 20}, tally(schedule["notes"]))

	for _, id := range []string{"grid", "when", "header"} {
		_, ok := schedule[id]
		require.False(t, ok, id)
	}
	require.Nil(t, schedule.At("grid", 0))
	require.Equal(t, Answer{"N/A"}, schedule.At("name", 19))
	require.Nil(t, schedule.At("name", 20))
}

func TestBuildCorrelated(t *testing.T) {
	parsed := buildForm()
	model := weights.NewModel(parsed)
	require.NoError(t, model.Assign("gender", map[string]float64{"Female": 40, "Male": 40, "Other": 20}))

	n := 50
	schedule, err := Build(newRand(), parsed, model, n, Options{
		Correlation: &Correlation{CategoryItemID: "gender", NameItemID: "name"},
	})
	require.NoError(t, err)

	female, male := 0, 0
	for i := 0; i < n; i++ {
		category := schedule.At("gender", i)[0]
		name := schedule.At("name", i)[0]
		switch category {
		case "Female":
			female++
			require.Contains(t, FemaleNames, name)
		case "Male":
			male++
			require.Contains(t, MaleNames, name)
		default:
			require.Equal(t, TextPlaceholder, name)
		}
	}
	require.Equal(t, 20, female)
	require.Equal(t, 20, male)
}

func TestBuildStaticNames(t *testing.T) {
	parsed := buildForm()
	schedule, err := Build(newRand(), parsed, weights.NewModel(parsed), 10, Options{
		Correlation: &Correlation{NameItemID: "name"},
	})
	require.NoError(t, err)

	male := 0
	for _, a := range schedule["name"] {
		if contains(MaleNames, a[0]) {
			male++
		}
	}
	require.Equal(t, 6, male)
}

func TestBuildErrors(t *testing.T) {
	parsed := buildForm()
	model := weights.NewModel(parsed)

	_, err := Build(newRand(), parsed, model, 0, Options{})
	require.ErrorIs(t, err, ErrCountOutOfRange)

	_, err = Build(newRand(), parsed, model, 5, Options{
		Correlation: &Correlation{CategoryItemID: "gender", NameItemID: "notes"},
	})
	require.ErrorIs(t, err, ErrInvalidCorrelation)

	_, err = Build(newRand(), parsed, model, 5, Options{
		Correlation: &Correlation{CategoryItemID: "hobbies", NameItemID: "name"},
	})
	require.ErrorIs(t, err, ErrInvalidCorrelation)
}
