package prompt

import "strings"

// Variant is one of the fixed recipe generation modes.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantQuick    Variant = "quick"
	VariantCreative Variant = "creative"
	VariantUpgrade  Variant = "upgrade"
)

// Profile is a variant's constraint set. Zero values mean "no bound"; the
// validator reads the same profile the builder encodes into instructions,
// kept in lockstep by contract.
type Profile struct {
	MaxSteps            int
	MinSteps            int
	TimeMinLow          int
	TimeMinHigh         int
	MaxIngredients      int
	MaxExtraIngredients int
	BannedTechniques    []string
	Temperature         float64
}

var profiles = map[Variant]Profile{
	VariantStandard: {
		MinSteps:    3,
		MaxSteps:    8,
		Temperature: 0.4,
	},
	VariantQuick: {
		MinSteps:         3,
		MaxSteps:         5,
		TimeMinLow:       7,
		TimeMinHigh:      10,
		MaxIngredients:   8,
		BannedTechniques: []string{"bake", "roast", "marinate", "braise", "slow cook", "sous vide", "ferment", "proof"},
		Temperature:      0.3,
	},
	VariantCreative: {
		MinSteps:    3,
		MaxSteps:    8,
		Temperature: 0.8,
	},
	VariantUpgrade: {
		MinSteps:            3,
		MaxSteps:            8,
		MaxExtraIngredients: 3,
		Temperature:         0.7,
	},
}

// ParseVariant maps a request string onto the closed variant set, falling
// back to standard.
func ParseVariant(s string) Variant {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantQuick:
		return VariantQuick
	case VariantCreative:
		return VariantCreative
	case VariantUpgrade:
		return VariantUpgrade
	default:
		return VariantStandard
	}
}

// ProfileFor returns the constraint profile of a variant.
func ProfileFor(v Variant) Profile {
	if p, ok := profiles[v]; ok {
		return p
	}
	return profiles[VariantStandard]
}

// ContainsBannedTechnique scans text for the variant's banned vocabulary
// (folded substring match). Returns the offending keyword.
func (p Profile) ContainsBannedTechnique(text string) (string, bool) {
	if len(p.BannedTechniques) == 0 {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, banned := range p.BannedTechniques {
		if strings.Contains(lower, banned) {
			return banned, true
		}
	}
	return "", false
}
