package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Quantity parsing is pattern matching over free provider text. The pattern
// set is kept as data so it stays independently testable.
var (
	// amountPattern matches a decimal number with an optional range tail
	// ("2", "1.5", "2-3", "2 – 3"). Ranges collapse to the lower bound.
	amountPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)(?:\s*[-–]\s*\d+(?:[.,]\d+)?)?`)

	// unitTokens maps free unit vocabulary onto the closed unit set; the
	// factor converts into the base unit (kg→g, l→ml).
	unitTokens = map[string]struct {
		unit   Unit
		factor float64
	}{
		"g":           {UnitGram, 1},
		"gr":          {UnitGram, 1},
		"gram":        {UnitGram, 1},
		"grams":       {UnitGram, 1},
		"kg":          {UnitGram, 1000},
		"ml":          {UnitMilliliter, 1},
		"l":           {UnitMilliliter, 1000},
		"liter":       {UnitMilliliter, 1000},
		"liters":      {UnitMilliliter, 1000},
		"litre":       {UnitMilliliter, 1000},
		"litres":      {UnitMilliliter, 1000},
		"cup":         {UnitMilliliter, 240},
		"cups":        {UnitMilliliter, 240},
		"tbsp":        {UnitTablespoon, 1},
		"tablespoon":  {UnitTablespoon, 1},
		"tablespoons": {UnitTablespoon, 1},
		"tsp":         {UnitTeaspoon, 1},
		"teaspoon":    {UnitTeaspoon, 1},
		"teaspoons":   {UnitTeaspoon, 1},
		"pc":          {UnitPiece, 1},
		"pcs":         {UnitPiece, 1},
		"piece":       {UnitPiece, 1},
		"pieces":      {UnitPiece, 1},
		"clove":       {UnitPiece, 1},
		"cloves":      {UnitPiece, 1},
		"pinch":       {UnitTeaspoon, 0.25},
	}

	// liquids get a volume default instead of mass.
	liquidNames = map[string]struct{}{
		"water": {}, "milk": {}, "broth": {}, "stock": {}, "cream": {}, "juice": {},
	}

	// spoonDefaults are seasonings measured in spoons rather than grams.
	spoonDefaults = map[string]Unit{
		"salt":   UnitTeaspoon,
		"pepper": UnitTeaspoon,
		"sugar":  UnitTeaspoon,
		"oil":    UnitTablespoon,
		"butter": UnitTablespoon,
		"flour":  UnitTablespoon,
	}

	// countables default to pieces.
	countableNames = map[string]struct{}{
		"egg": {}, "eggs": {}, "onion": {}, "garlic": {}, "tomato": {}, "potato": {},
	}
)

// per-unit sane maxima, defending against nonsensical provider output.
func clampAmount(name string, unit Unit, amount float64) float64 {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	amount = math.Round(amount*100) / 100

	var max float64
	switch unit {
	case UnitMilliliter:
		max = 2000
		if name == "water" {
			max = 5000
		}
	case UnitGram:
		max = 3000
	case UnitTablespoon, UnitTeaspoon:
		max = 5
	case UnitPiece:
		max = 24
	default:
		max = 3000
	}
	return math.Min(amount, max)
}

// defaultUnit assigns a unit from the name heuristic table when the
// provider omits or garbles one.
func defaultUnit(name string) Unit {
	n := strings.ToLower(name)
	if u, ok := spoonDefaults[n]; ok {
		return u
	}
	if _, ok := liquidNames[n]; ok {
		return UnitMilliliter
	}
	if _, ok := countableNames[n]; ok {
		return UnitPiece
	}
	return UnitGram
}

// defaultAmount is the quantity used when none can be parsed at all.
func defaultAmount(unit Unit) float64 {
	switch unit {
	case UnitTablespoon, UnitTeaspoon:
		return 1
	case UnitPiece:
		return 1
	case UnitMilliliter:
		return 200
	default:
		return 100
	}
}

// ParseQuantity turns a free-text quantity string into a clamped
// {amount, unit} pair. It never fails: unparseable input falls back to the
// per-name defaults.
func ParseQuantity(name, raw string) (float64, Unit) {
	text := strings.ToLower(strings.TrimSpace(raw))

	amount := 0.0
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			amount = v
		}
	}

	unit := Unit("")
	factor := 1.0
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if u, ok := unitTokens[tok]; ok {
			unit = u.unit
			factor = u.factor
			break
		}
	}

	if unit == "" {
		unit = defaultUnit(name)
	}
	if amount == 0 {
		amount = defaultAmount(unit)
	} else {
		amount *= factor
	}

	return clampAmount(strings.ToLower(name), unit, amount), unit
}
