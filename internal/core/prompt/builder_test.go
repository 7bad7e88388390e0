package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDeterministic(t *testing.T) {
	items := []string{"egg", "onion"}
	allow := []string{"egg", "oil", "onion", "salt"}

	a := Build(VariantStandard, items, allow, 3, "2 servings")
	b := Build(VariantStandard, items, allow, 3, "2 servings")

	assert.Equal(t, a, b)
}

func TestBuildEmbedsAllowListAndCount(t *testing.T) {
	p := Build(VariantStandard, []string{"egg"}, []string{"egg", "salt"}, 3, "2 servings")

	assert.Contains(t, p.Instructions, "Exactly 3 recipes")
	assert.Contains(t, p.Instructions, "egg, salt")
	assert.Contains(t, p.UserContent, "Allowed: egg, salt")
	assert.Contains(t, p.UserContent, "Available: egg")
	assert.InDelta(t, 0.4, p.Temperature, 1e-9)
}

func TestBuildQuickConstraints(t *testing.T) {
	p := Build(VariantQuick, []string{"egg"}, []string{"egg"}, 3, "2 servings")

	assert.Contains(t, p.Instructions, "total time 7-10 minutes")
	assert.Contains(t, p.Instructions, "at most 5 steps")
	assert.Contains(t, p.Instructions, "at most 8 ingredient lines")
	assert.Contains(t, p.Instructions, "bake, roast, marinate")
	assert.InDelta(t, 0.3, p.Temperature, 1e-9)
}

func TestBuildVariantTemperatures(t *testing.T) {
	tests := []struct {
		variant Variant
		want    float64
	}{
		{VariantStandard, 0.4},
		{VariantQuick, 0.3},
		{VariantCreative, 0.8},
		{VariantUpgrade, 0.7},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			p := Build(tt.variant, []string{"egg"}, []string{"egg"}, 3, "2 servings")
			assert.InDelta(t, tt.want, p.Temperature, 1e-9)
		})
	}
}

func TestBuildNarrowNamesViolation(t *testing.T) {
	p := BuildNarrow(VariantQuick, []string{"egg"}, []string{"egg"}, "step count 7 exceeds 5", "2 servings")

	assert.Contains(t, p.Instructions, "Exactly 1 recipe")
	assert.Contains(t, p.Instructions, "step count 7 exceeds 5")
	assert.Contains(t, p.UserContent, "Generate 1 recipe")
}

func TestBuildStreamIsFreeText(t *testing.T) {
	p := BuildStream(VariantStandard, []string{"egg", "onion"}, []string{"egg: 3", "onion: 1"})

	assert.NotContains(t, p.Instructions, `"recipes"`)
	assert.Contains(t, p.Instructions, "# Title")
	assert.Contains(t, p.UserContent, "Products: egg, onion.")
	assert.Contains(t, p.UserContent, "egg: 3")

	// Without stock lines the quantities block is omitted entirely.
	bare := BuildStream(VariantStandard, []string{"egg"}, nil)
	assert.False(t, strings.Contains(bare.UserContent, "quantities"))
}

func TestParseVariant(t *testing.T) {
	assert.Equal(t, VariantQuick, ParseVariant(" Quick "))
	assert.Equal(t, VariantCreative, ParseVariant("creative"))
	assert.Equal(t, VariantUpgrade, ParseVariant("UPGRADE"))
	assert.Equal(t, VariantStandard, ParseVariant(""))
	assert.Equal(t, VariantStandard, ParseVariant("bogus"))
}

func TestContainsBannedTechnique(t *testing.T) {
	p := ProfileFor(VariantQuick)

	kw, found := p.ContainsBannedTechnique("Bake at 180C until golden")
	assert.True(t, found)
	assert.Equal(t, "bake", kw)

	_, found = p.ContainsBannedTechnique("Fry the eggs quickly")
	assert.False(t, found)

	// Standard profile bans nothing.
	_, found = ProfileFor(VariantStandard).ContainsBannedTechnique("slow cook overnight")
	assert.False(t, found)
}
