package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name       string
		ingredient string
		raw        string
		wantAmount float64
		wantUnit   Unit
	}{
		{"grams", "chicken", "300 g", 300, UnitGram},
		{"kilograms converted", "potato", "1.5 kg", 1500, UnitGram},
		{"milliliters", "milk", "250 ml", 250, UnitMilliliter},
		{"liters converted", "broth", "1 l", 1000, UnitMilliliter},
		{"cups converted", "milk", "2 cups", 480, UnitMilliliter},
		{"tablespoons", "oil", "2 tbsp", 2, UnitTablespoon},
		{"teaspoons", "salt", "1 tsp", 1, UnitTeaspoon},
		{"pieces", "egg", "3 pcs", 3, UnitPiece},
		{"cloves as pieces", "garlic", "2 cloves", 2, UnitPiece},
		{"pinch as quarter tsp", "salt", "1 pinch", 0.25, UnitTeaspoon},
		{"decimal comma", "flour", "1,5 tbsp", 1.5, UnitTablespoon},
		{"range takes lower bound", "tomato", "2-3 pcs", 2, UnitPiece},
		{"range with en dash", "onion", "1 – 2 pcs", 1, UnitPiece},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, unit := ParseQuantity(tt.ingredient, tt.raw)
			assert.InDelta(t, tt.wantAmount, amount, 1e-9)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestParseQuantityDefaults(t *testing.T) {
	tests := []struct {
		name       string
		ingredient string
		raw        string
		wantAmount float64
		wantUnit   Unit
	}{
		{"empty falls to name heuristic", "salt", "", 1, UnitTeaspoon},
		{"oil defaults to tablespoons", "oil", "to taste", 1, UnitTablespoon},
		{"liquid defaults to ml", "water", "", 200, UnitMilliliter},
		{"countable defaults to pieces", "egg", "some", 1, UnitPiece},
		{"unknown defaults to grams", "chicken", "", 100, UnitGram},
		{"number without unit keeps heuristic unit", "egg", "4", 4, UnitPiece},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, unit := ParseQuantity(tt.ingredient, tt.raw)
			assert.InDelta(t, tt.wantAmount, amount, 1e-9)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestParseQuantityClamps(t *testing.T) {
	tests := []struct {
		name       string
		ingredient string
		raw        string
		wantAmount float64
		wantUnit   Unit
	}{
		{"water capped at 5000 ml", "water", "9 l", 5000, UnitMilliliter},
		{"other liquid capped at 2000 ml", "milk", "9 l", 2000, UnitMilliliter},
		{"grams capped at 3000", "chicken", "20 kg", 3000, UnitGram},
		{"spoons capped at 5", "salt", "12 tsp", 5, UnitTeaspoon},
		{"pieces capped at 24", "egg", "100 pcs", 24, UnitPiece},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, unit := ParseQuantity(tt.ingredient, tt.raw)
			assert.InDelta(t, tt.wantAmount, amount, 1e-9)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}
