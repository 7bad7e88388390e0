package recipe

import (
	"context"
	"testing"

	"fridgechef/internal/core/ai"
	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/core/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns canned content and counts calls.
type fakeClient struct {
	content string
	err     error
	calls   int
}

func (f *fakeClient) Generate(ctx context.Context, instructions, userContent string, temperature float64) (*ai.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Result{Content: f.content, Model: "fake"}, nil
}

func (f *fakeClient) GenerateStream(ctx context.Context, instructions, userContent string, temperature float64) (*ai.Stream, error) {
	return nil, nil
}

func (f *fakeClient) Model() string { return "fake" }
func (f *fakeClient) Close() error  { return nil }

func testAllowList() ingredient.AllowList {
	return ingredient.BuildAllowList(
		[]ingredient.Input{{Name: "egg"}, {Name: "onion"}, {Name: "pasta"}},
		[]string{"salt", "pepper", "oil", "water"},
	)
}

const validBatch = `{"recipes":[
	{"title":"Egg fried pasta","lead":"Quick dinner.","time":{"total_min":20},"servings":"2 servings",
	 "ingredients":[{"name":"pasta","quantity":"200 g"},{"name":"egg","quantity":"2 pcs"},{"name":"oil","quantity":"1 tbsp"}],
	 "equipment":["pan"],"steps":["Boil the pasta. Salt the water.","Fry the eggs","Combine and serve"],"tips":["Serve hot"]},
	{"title":"Onion omelette","time":{"prep_min":5,"cook_min":10},"servings":"2 servings",
	 "ingredients":[{"name":"egg","quantity":"3 pcs"},{"name":"onion","quantity":"1 pc"}],
	 "equipment":["pan"],"steps":["Chop the onion","Beat the eggs","Fry everything together"]},
	{"title":"Pasta salad","time":{"total_min":15},"servings":"2 servings",
	 "ingredients":[{"name":"pasta","quantity":"150 g"},{"name":"onion","quantity":"1 pc"}],
	 "equipment":["pot"],"steps":["Boil the pasta","Chop the onion","Mix and season"]}
]}`

func TestValidateHappyPath(t *testing.T) {
	v := NewValidator(nil, "2 servings")
	recipes, stats := v.Validate(context.Background(), validBatch, testAllowList(), []string{"egg", "onion", "pasta"}, prompt.VariantStandard, 3)

	require.Len(t, recipes, 3)
	assert.Equal(t, 3, stats.Parsed)
	assert.Equal(t, 0, stats.Fallbacks)
	assert.Equal(t, 0, stats.Discarded)

	first := recipes[0]
	assert.Equal(t, "Egg fried pasta", first.Title)
	assert.Equal(t, 20, first.TimeMin)
	assert.NotEmpty(t, first.ID)
	require.Len(t, first.Ingredients, 3)
	assert.Equal(t, "pasta", first.Ingredients[0].Name)
	assert.InDelta(t, 200, first.Ingredients[0].Amount, 1e-9)

	// Steps are ordered and prefixed numbers stripped.
	for i, s := range first.Steps {
		assert.Equal(t, i+1, s.Order)
		assert.NotEmpty(t, s.Action)
	}

	// prep+cook fallback when total is absent.
	assert.Equal(t, 15, recipes[1].TimeMin)
}

func TestValidateMalformedOutputYieldsFullFallbackBatch(t *testing.T) {
	v := NewValidator(nil, "2 servings")

	for _, raw := range []string{"", "I am sorry, I cannot help with that.", "{broken json", "<html>502</html>"} {
		recipes, stats := v.Validate(context.Background(), raw, testAllowList(), nil, prompt.VariantStandard, 3)

		require.Len(t, recipes, 3, "raw=%q", raw)
		assert.Equal(t, 3, stats.Fallbacks)
		for _, r := range recipes {
			assert.NotEmpty(t, r.Title)
			assert.NotEmpty(t, r.ID)
			assert.GreaterOrEqual(t, len(r.Steps), 3)
			assert.Greater(t, r.TimeMin, 0)
		}
	}
}

func TestValidateFencedJSON(t *testing.T) {
	v := NewValidator(nil, "2 servings")
	fenced := "Here is your menu:\n```json\n" + validBatch + "\n```\nEnjoy!"

	recipes, stats := v.Validate(context.Background(), fenced, testAllowList(), nil, prompt.VariantStandard, 3)
	require.Len(t, recipes, 3)
	assert.Equal(t, 0, stats.Fallbacks)
}

func TestValidateAllowListEnforced(t *testing.T) {
	// Provider smuggles in ingredients outside the allow-list, including
	// synonym and case variations that must still resolve.
	raw := `{"recipes":[{"title":"Dubious stew","time":{"total_min":30},"servings":"2",
		"ingredients":[
			{"name":"chicken","quantity":"300 g"},
			{"name":"truffle","quantity":"10 g"},
			{"name":"Spaghetti","quantity":"200 g"},
			{"name":"EGGS","quantity":"2 pcs"}
		],
		"equipment":["pot"],"steps":["Prepare everything","Cook it all","Serve warm"]}]}`

	v := NewValidator(nil, "2 servings")
	recipes, _ := v.Validate(context.Background(), raw, testAllowList(), nil, prompt.VariantStandard, 1)

	require.Len(t, recipes, 1)
	names := make([]string, 0)
	for _, ing := range recipes[0].Ingredients {
		names = append(names, ing.Name)
	}
	assert.ElementsMatch(t, []string{"pasta", "egg"}, names)
}

func TestValidateDraftWithNoAllowedIngredientsDiscarded(t *testing.T) {
	raw := `{"recipes":[{"title":"Forbidden feast","time":{"total_min":30},"servings":"2",
		"ingredients":[{"name":"lobster","quantity":"1 pc"},{"name":"caviar","quantity":"50 g"}],
		"equipment":["pot"],"steps":["Prepare","Cook","Serve"]}]}`

	v := NewValidator(nil, "2 servings")
	recipes, stats := v.Validate(context.Background(), raw, testAllowList(), nil, prompt.VariantStandard, 1)

	require.Len(t, recipes, 1)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 1, stats.Fallbacks)
}

func TestValidateStepBoundsDiscard(t *testing.T) {
	tooFew := `{"recipes":[{"title":"Lazy","time":{"total_min":10},"servings":"2",
		"ingredients":[{"name":"egg","quantity":"2 pcs"}],"equipment":[],
		"steps":["Fry the egg","Eat"]}]}`

	v := NewValidator(nil, "2 servings")
	recipes, stats := v.Validate(context.Background(), tooFew, testAllowList(), nil, prompt.VariantStandard, 1)

	require.Len(t, recipes, 1)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 1, stats.Fallbacks)
}

func TestValidateNumberOnlyStepsGetTemplate(t *testing.T) {
	// Step lines that are pure numbering survive the raw count bound but
	// strip to nothing; the recipe must still come back with real steps.
	raw := `{"recipes":[{"title":"Hollow recipe","time":{"total_min":20},"servings":"2",
		"ingredients":[{"name":"egg","quantity":"2 pcs"}],"equipment":["pan"],
		"steps":["1.","2.","3."]}]}`

	v := NewValidator(nil, "2 servings")
	recipes, stats := v.Validate(context.Background(), raw, testAllowList(), nil, prompt.VariantStandard, 1)

	require.Len(t, recipes, 1)
	assert.Equal(t, 0, stats.Discarded)
	require.Len(t, recipes[0].Steps, 3)
	assert.Equal(t, "Prepare the ingredients", recipes[0].Steps[0].Action)
	assert.Greater(t, recipes[0].TimeMin, 0)
}

const quickViolating = `{"recipes":[{"title":"Slow bake","time":{"total_min":45},"servings":"2",
	"ingredients":[{"name":"egg","quantity":"2 pcs"},{"name":"onion","quantity":"1 pc"}],
	"equipment":["oven"],"steps":["Chop the onion","Beat the eggs","Pour into a dish","Bake until set","Rest before serving","Slice","Serve"]}]}`

const quickConforming = `{"recipes":[{"title":"Fast scramble","time":{"total_min":8},"servings":"2",
	"ingredients":[{"name":"egg","quantity":"2 pcs"},{"name":"onion","quantity":"1 pc"}],
	"equipment":["pan"],"steps":["Chop the onion finely","Beat and fry the eggs","Serve immediately"]}]}`

func TestValidateQuickTriggersNarrowRegeneration(t *testing.T) {
	client := &fakeClient{content: quickConforming}
	v := NewValidator(client, "2 servings")

	recipes, stats := v.Validate(context.Background(), quickViolating, testAllowList(), []string{"egg", "onion"}, prompt.VariantQuick, 1)

	require.Len(t, recipes, 1)
	assert.Equal(t, 1, client.calls, "exactly one narrow regeneration call")
	assert.Equal(t, 1, stats.Regenerated)
	assert.Equal(t, "Fast scramble", recipes[0].Title)
	assert.LessOrEqual(t, len(recipes[0].Steps), 5)
}

func TestValidateQuickKeptBestEffortWhenRegenerationFails(t *testing.T) {
	// Regeneration returns another violating draft; the original is kept
	// rather than retried again.
	client := &fakeClient{content: quickViolating}
	v := NewValidator(client, "2 servings")

	recipes, stats := v.Validate(context.Background(), quickViolating, testAllowList(), []string{"egg", "onion"}, prompt.VariantQuick, 1)

	require.Len(t, recipes, 1)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 0, stats.Regenerated)
	assert.Equal(t, "Slow bake", recipes[0].Title)
}

func TestValidateNilClientSkipsRegeneration(t *testing.T) {
	v := NewValidator(nil, "2 servings")
	recipes, stats := v.Validate(context.Background(), quickViolating, testAllowList(), nil, prompt.VariantQuick, 1)

	require.Len(t, recipes, 1)
	assert.Equal(t, 0, stats.Regenerated)
	assert.Equal(t, "Slow bake", recipes[0].Title)
}

func TestSynthesizeFallbackDeterministicShape(t *testing.T) {
	allow := testAllowList()

	a := synthesizeFallback(allow, "2 servings")
	b := synthesizeFallback(allow, "2 servings")

	// Fresh id each time, identical content otherwise.
	assert.NotEqual(t, a.ID, b.ID)
	a.ID, b.ID = "", ""
	assert.Equal(t, a, b)

	assert.Equal(t, 25, a.TimeMin)
	assert.Len(t, a.Steps, 3)
	assert.Equal(t, "Prepare the ingredients", a.Steps[0].Action)

	// Pantry staples never drive the title.
	assert.NotContains(t, a.Title, "salt")
	assert.NotContains(t, a.Title, "water")
}

func TestSynthesizeBatchSize(t *testing.T) {
	v := NewValidator(nil, "2 servings")
	recipes := v.Synthesize(testAllowList(), 3)
	require.Len(t, recipes, 3)
	for _, r := range recipes {
		assert.NotEmpty(t, r.ID)
		assert.GreaterOrEqual(t, len(r.Ingredients), 1)
	}
}

func TestCheckConstraintsStepFloor(t *testing.T) {
	rec := Recipe{
		Title:   "Thin",
		TimeMin: 10,
		Steps: []Step{
			{Order: 1, Action: "Chop"},
			{Order: 2, Action: "Serve"},
		},
	}

	violation, ok := checkConstraints(rec, prompt.ProfileFor(prompt.VariantStandard))
	assert.False(t, ok)
	assert.Contains(t, violation, "too few steps")
}

func TestBuildStepsStripPrefixesAndDurations(t *testing.T) {
	steps := buildSteps([]string{
		"1. Boil the pasta for 10 minutes. Keep the water salted.",
		"Step 2: Fry the onion",
		"  ",
		"3) Combine everything; toss over high heat",
	})

	require.Len(t, steps, 3)
	assert.Equal(t, "Boil the pasta for 10 minutes", steps[0].Action)
	assert.Equal(t, "Keep the water salted.", steps[0].Detail)
	assert.Equal(t, 10, steps[0].DurationMin)
	assert.Equal(t, "Fry the onion", steps[1].Action)
	assert.Equal(t, 3, steps[2].Order)
	assert.Equal(t, "Combine everything", steps[2].Action)
}
