package prompt

import (
	"fmt"
	"strings"
)

// Prompt is a fully assembled instruction pair plus the sampling temperature
// the variant calls for. The builder itself injects no randomness.
type Prompt struct {
	Instructions string
	UserContent  string
	Temperature  float64
}

// batchShape declares the one output shape the validator parses. This
// instruction text is the single place the shape is stated.
const batchShape = `{"recipes":[{"title":"string","lead":"string","time":{"prep_min":0,"cook_min":0,"total_min":0},"servings":"string","ingredients":[{"name":"string","quantity":"string"}],"equipment":["string"],"steps":["string"],"tips":["string"]}]}`

// Build assembles the batch-mode instruction pair for a variant. The full
// allow-list is embedded verbatim and the provider is told never to use
// anything outside it.
func Build(variant Variant, canonicalItems []string, allowList []string, recipeCount int, defaultPortion string) Prompt {
	p := ProfileFor(variant)

	var sb strings.Builder
	sb.WriteString("You are a culinary assistant. Return STRICTLY VALID JSON matching this schema:\n")
	sb.WriteString(batchShape)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Exactly %d recipes.\n", recipeCount)
	fmt.Fprintf(&sb, "- Use ONLY ingredients from the allowed list: %s.\n", strings.Join(allowList, ", "))
	sb.WriteString("- Every recipe needs 3-8 concrete steps (heat level, timing, when to salt).\n")
	sb.WriteString("- State servings and total time explicitly in every recipe.\n")
	sb.WriteString("- No text outside the JSON.\n")
	sb.WriteString(variantInstructions(variant, p))

	var user strings.Builder
	fmt.Fprintf(&user, "Allowed: %s\n", strings.Join(allowList, ", "))
	fmt.Fprintf(&user, "Available: %s\n", strings.Join(canonicalItems, ", "))
	fmt.Fprintf(&user, "Servings default: %s\n", defaultPortion)
	fmt.Fprintf(&user, "Generate %d recipes strictly following the schema above.", recipeCount)

	return Prompt{
		Instructions: sb.String(),
		UserContent:  user.String(),
		Temperature:  p.Temperature,
	}
}

// BuildNarrow assembles the single-recipe regeneration prompt used after a
// draft fails its variant constraints. It names the violation so the
// provider can correct course.
func BuildNarrow(variant Variant, canonicalItems []string, allowList []string, violation string, defaultPortion string) Prompt {
	p := ProfileFor(variant)

	var sb strings.Builder
	sb.WriteString("You are a culinary assistant. Return STRICTLY VALID JSON matching this schema:\n")
	sb.WriteString(batchShape)
	sb.WriteString("\n- Exactly 1 recipe.\n")
	fmt.Fprintf(&sb, "- Use ONLY ingredients from the allowed list: %s.\n", strings.Join(allowList, ", "))
	sb.WriteString("- No text outside the JSON.\n")
	sb.WriteString(variantInstructions(variant, p))
	fmt.Fprintf(&sb, "- The previous attempt was rejected: %s. Fix exactly that.\n", violation)

	var user strings.Builder
	fmt.Fprintf(&user, "Allowed: %s\n", strings.Join(allowList, ", "))
	fmt.Fprintf(&user, "Available: %s\n", strings.Join(canonicalItems, ", "))
	fmt.Fprintf(&user, "Servings default: %s\n", defaultPortion)
	user.WriteString("Generate 1 recipe strictly following the schema above.")

	return Prompt{
		Instructions: sb.String(),
		UserContent:  user.String(),
		Temperature:  p.Temperature,
	}
}

// BuildStream assembles the free-text prompt for the streaming path, which
// is presentation-only and never parsed structurally.
func BuildStream(variant Variant, canonicalItems []string, stockLines []string) Prompt {
	p := ProfileFor(variant)

	var sb strings.Builder
	sb.WriteString("You are a culinary assistant. Write ONE recipe from the given products, step by step.\n")
	sb.WriteString("If the user has quantities, respect them and never exceed the stated stock.\n")
	sb.WriteString("Right under the title add a line: \"⏱ <minutes> • <servings>\".\n")
	sb.WriteString("No service text. Output format (plain text):\n")
	sb.WriteString("# Title\nShort lead (2-3 sentences)\nStep 1 — ...\nStep 2 — ...\nStep 3 — ...\n")
	sb.WriteString(variantInstructions(variant, p))

	var user strings.Builder
	fmt.Fprintf(&user, "Products: %s.", strings.Join(canonicalItems, ", "))
	if len(stockLines) > 0 {
		user.WriteString("\nWith quantities in mind:\n")
		user.WriteString(strings.Join(stockLines, "\n"))
	}

	return Prompt{
		Instructions: sb.String(),
		UserContent:  user.String(),
		Temperature:  p.Temperature,
	}
}

// variantInstructions encodes a profile as explicit, falsifiable constraint
// lines.
func variantInstructions(variant Variant, p Profile) string {
	var sb strings.Builder

	switch variant {
	case VariantQuick:
		fmt.Fprintf(&sb, "- Quick mode: total time %d-%d minutes, at most %d steps, at most %d ingredient lines.\n",
			p.TimeMinLow, p.TimeMinHigh, p.MaxSteps, p.MaxIngredients)
		fmt.Fprintf(&sb, "- Forbidden techniques: %s.\n", strings.Join(p.BannedTechniques, ", "))
		sb.WriteString("- Minimum number of actions, no extra purchases.\n")
	case VariantCreative:
		sb.WriteString("- Creative mode: an interesting dish using a new form or technique (sauce, caramelization, plating).\n")
		sb.WriteString("- Only the user's products plus pantry staples. No new purchases.\n")
		sb.WriteString("- Avoid overlapping with an everyday baseline dish.\n")
	case VariantUpgrade:
		fmt.Fprintf(&sb, "- Upgrade mode: a tastier dish allowed to add at most %d extra ingredients beyond the list.\n",
			p.MaxExtraIngredients)
		sb.WriteString("- First design the recipe, then weave in the extras; list them at the end as: Extra: <one>, <two>, <three>.\n")
	default:
		sb.WriteString("- Standard mode: an everyday dish, fast, few actions, no exotic techniques.\n")
		sb.WriteString("- Only the user's products plus pantry staples. No extra purchases.\n")
	}

	return sb.String()
}
