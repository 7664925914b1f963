package weights

import (
	"math"
	"math/rand"
	"testing"

	"formsim-backend/internal/form"

	"github.com/stretchr/testify/require"
)

func TestSetBalancedProportional(t *testing.T) {
	m := Map{{"a", 50}, {"b", 30}, {"c", 20}}
	require.NoError(t, m.SetBalanced("a", 80))

	a, _ := m.Get("a")
	b, _ := m.Get("b")
	c, _ := m.Get("c")
	require.InDelta(t, 80, a, 1e-9)
	require.InDelta(t, 12, b, 1e-9)
	require.InDelta(t, 8, c, 1e-9)
}

func TestSetBalancedOthersZero(t *testing.T) {
	m := Map{{"a", 100}, {"b", 0}, {"c", 0}}
	require.NoError(t, m.SetBalanced("a", 40))

	b, _ := m.Get("b")
	c, _ := m.Get("c")
	require.InDelta(t, 30, b, 1e-9)
	require.InDelta(t, 30, c, 1e-9)
}

func TestSetBalancedClampAndSingle(t *testing.T) {
	m := Map{{"a", 50}, {"b", 50}}
	require.NoError(t, m.SetBalanced("a", 140))
	require.Equal(t, Map{{"a", 100}, {"b", 0}}, m)

	require.NoError(t, m.SetBalanced("a", -3))
	b, _ := m.Get("b")
	require.InDelta(t, 100, b, 1e-9)

	single := Map{{"only", 20}}
	require.NoError(t, single.SetBalanced("only", 10))
	require.Equal(t, Map{{"only", 100}}, single)

	require.ErrorIs(t, m.SetBalanced("missing", 10), ErrUnknownKey)
}

func TestSetBalancedKeepsSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		size := 1 + rng.Intn(7)
		keys := make([]string, size)
		for i := range keys {
			keys[i] = string(rune('a' + i))
		}
		m := Equal(keys)
		for edit := 0; edit < 40; edit++ {
			key := keys[rng.Intn(size)]
			require.NoError(t, m.SetBalanced(key, rng.Float64()*120-10))
			require.InDelta(t, 100, m.Sum(), 1e-6)
		}
	}
}

func TestSetIndependent(t *testing.T) {
	m := Uniform([]string{"x", "y"}, 50)
	require.NoError(t, m.SetIndependent("x", 120))
	require.Equal(t, Map{{"x", 100}, {"y", 50}}, m)
}

func TestTop(t *testing.T) {
	key, ok := Map{{"a", 33}, {"b", 34}, {"c", 34}}.Top()
	require.True(t, ok)
	require.Equal(t, "b", key)

	_, ok = Map{}.Top()
	require.False(t, ok)
}

func sampleForm() form.ParsedForm {
	return form.ParsedForm{Items: []form.FormItem{
		{ID: "gender", Type: form.MULTIPLE_CHOICE, SubmissionID: "1", Options: []form.ChoiceOption{
			{Label: "Female", ID: "Female"}, {Label: "Male", ID: "Male"}, {Label: "Other", ID: "Other"},
		}},
		{ID: "hobbies", Type: form.CHECKBOXES, SubmissionID: "2", Options: []form.ChoiceOption{
			{Label: "Chess"}, {Label: "Golf"},
		}},
		{ID: "scale", Type: form.LINEAR_SCALE, SubmissionID: "3", ScaleStart: 0, ScaleEnd: 3},
		{ID: "grid", Type: form.MULTIPLE_CHOICE_GRID, SubmissionID: "4", LimitOneResponsePerColumn: true},
		{ID: "name", Type: form.SHORT_ANSWER, SubmissionID: "5"},
		{ID: "empty", Type: form.DROPDOWN, SubmissionID: "6"},
	}}
}

func TestNewModel(t *testing.T) {
	m := NewModel(sampleForm())

	gender, ok := m.Weights("gender")
	require.True(t, ok)
	require.Equal(t, []string{"Female", "Male", "Other"}, gender.Keys())
	require.InDelta(t, 100, gender.Sum(), 1e-9)

	hobbies, _ := m.Weights("hobbies")
	require.Equal(t, Map{{"Chess", 50}, {"Golf", 50}}, hobbies)

	scale, _ := m.Weights("scale")
	require.Equal(t, []string{"0", "1", "2", "3"}, scale.Keys())
	for _, e := range scale {
		require.InDelta(t, 25, e.Percent, 1e-9)
	}

	_, ok = m.Weights("name")
	require.False(t, ok)
	_, ok = m.Weights("empty")
	require.False(t, ok)

	require.True(t, m.LimitOne("grid"))
}

func TestModelEdits(t *testing.T) {
	m := NewModel(sampleForm())

	require.NoError(t, m.Set("gender", "Female", 70))
	gender, _ := m.Weights("gender")
	require.InDelta(t, 100, gender.Sum(), 1e-9)
	female, _ := gender.Get("Female")
	require.InDelta(t, 70, female, 1e-9)

	require.NoError(t, m.Set("hobbies", "Chess", 90))
	hobbies, _ := m.Weights("hobbies")
	require.Equal(t, Map{{"Chess", 90}, {"Golf", 50}}, hobbies)

	require.NoError(t, m.Assign("gender", map[string]float64{"Female": 3, "Male": 1}))
	gender, _ = m.Weights("gender")
	require.InDelta(t, 75, gender[0].Percent, 1e-9)
	require.InDelta(t, 25, gender[1].Percent, 1e-9)
	require.InDelta(t, 0, gender[2].Percent, 1e-9)

	require.ErrorIs(t, m.Assign("gender", map[string]float64{"Nope": 1}), ErrUnknownKey)
	require.ErrorIs(t, m.Set("name", "x", 1), ErrNotWeighted)
	require.ErrorIs(t, m.Set("missing", "x", 1), ErrUnknownItem)

	require.NoError(t, m.SetLimitOne("grid", false))
	require.False(t, m.LimitOne("grid"))
	require.ErrorIs(t, m.SetLimitOne("gender", true), ErrNotGrid)

	m.Reset()
	gender, _ = m.Weights("gender")
	require.InDelta(t, 100.0/3, gender[0].Percent, 1e-9)
	require.True(t, m.LimitOne("grid"))
}

func TestWeightsReturnsCopy(t *testing.T) {
	m := NewModel(sampleForm())
	w, _ := m.Weights("hobbies")
	w[0].Percent = 0

	again, _ := m.Weights("hobbies")
	require.Equal(t, float64(50), again[0].Percent)
}

func TestNewModelOutOfRangeScale(t *testing.T) {
	parsed := form.ParsedForm{Items: []form.FormItem{
		{ID: "wide", Type: form.LINEAR_SCALE, SubmissionID: "1", ScaleStart: 0, ScaleEnd: math.MaxInt},
		{ID: "negative", Type: form.LINEAR_SCALE, SubmissionID: "2", ScaleStart: math.MinInt, ScaleEnd: 3},
	}}

	m := NewModel(parsed)
	for _, id := range []string{"wide", "negative"} {
		scale, ok := m.Weights(id)
		require.True(t, ok, id)
		require.Equal(t, []string{"1", "2", "3", "4", "5"}, scale.Keys(), id)
	}
}
