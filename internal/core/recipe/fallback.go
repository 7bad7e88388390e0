package recipe

import (
	"strings"

	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/infrastructure/metrics"

	"github.com/google/uuid"
)

// pantryNames are excluded from synthesized titles so "Pasta with sausage"
// never becomes "Pasta with salt and water".
var pantryNames = map[string]struct{}{
	"salt": {}, "pepper": {}, "oil": {}, "water": {}, "flour": {},
}

var defaultEquipment = []string{"pot 3 l", "frying pan", "knife", "cutting board", "colander"}

// titleFromIngredients builds a simple title from the non-pantry members.
func titleFromIngredients(ings []Ingredient) string {
	var core []string
	seen := map[string]struct{}{}
	for _, i := range ings {
		if _, pantry := pantryNames[i.Name]; pantry {
			continue
		}
		if _, dup := seen[i.Name]; dup {
			continue
		}
		seen[i.Name] = struct{}{}
		core = append(core, i.Name)
	}
	if len(core) == 0 {
		return "Simple dish"
	}
	if len(core) == 1 {
		return capitalize(core[0])
	}
	return capitalize(core[0]) + " with " + strings.Join(core[1:], " and ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// synthesizeFallback builds one deterministic recipe from the allow-list
// using the fixed prepare/cook/finish template. Content depends only on the
// allow-list; the id is fresh per synthesis, as for any other Recipe.
func synthesizeFallback(allow ingredient.AllowList, portion string) Recipe {
	metrics.FallbackSyntheses.Inc()

	var ings []Ingredient
	for _, name := range allow.Names() {
		if _, pantry := pantryNames[name]; pantry {
			continue
		}
		unit := defaultUnit(name)
		ings = append(ings, Ingredient{Name: name, Amount: defaultAmount(unit), Unit: unit})
		if len(ings) == 4 {
			break
		}
	}
	if allow.Contains("water") {
		ings = append(ings, Ingredient{Name: "water", Amount: 500, Unit: UnitMilliliter})
	}
	if allow.Contains("salt") {
		ings = append(ings, Ingredient{Name: "salt", Amount: 1, Unit: UnitTeaspoon})
	}
	if allow.Contains("oil") {
		ings = append(ings, Ingredient{Name: "oil", Amount: 1, Unit: UnitTablespoon})
	}
	if len(ings) == 0 {
		// Empty allow-list still yields a structurally complete recipe.
		ings = []Ingredient{{Name: "water", Amount: 500, Unit: UnitMilliliter}}
	}

	return Recipe{
		ID:          uuid.New().String(),
		Title:       titleFromIngredients(ings),
		Portion:     portion,
		TimeMin:     25,
		Equipment:   defaultEquipment,
		Ingredients: ings,
		Steps:       templateSteps(),
		Tips:        []string{"Taste before serving and adjust the seasoning."},
	}
}

// templateSteps is the fixed prepare/cook/finish sequence, also used to
// replace a draft whose own step lines are unusable.
func templateSteps() []Step {
	return []Step{
		{
			Order:       1,
			Action:      "Prepare the ingredients",
			Detail:      "Wash, peel and cut everything into even pieces.",
			DurationMin: 5,
		},
		{
			Order:       2,
			Action:      "Cook",
			Detail:      "Heat a pan with oil and cook the ingredients over medium heat, stirring occasionally.",
			DurationMin: 15,
		},
		{
			Order:       3,
			Action:      "Finish and serve",
			Detail:      "Season with salt and pepper, combine and serve hot.",
			DurationMin: 5,
		},
	}
}
