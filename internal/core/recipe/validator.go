package recipe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fridgechef/internal/core/ai"
	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/core/prompt"
	"fridgechef/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Validator turns raw provider text into validated recipes. Every Recipe it
// returns satisfies the full output invariants regardless of what the
// provider produced, including adversarial output.
type Validator struct {
	client  ai.Client // nil disables the narrow regeneration attempt
	portion string
}

// NewValidator creates a validator. client may be nil, in which case drafts
// failing variant constraints are accepted best-effort without regeneration.
func NewValidator(client ai.Client, defaultPortion string) *Validator {
	return &Validator{client: client, portion: defaultPortion}
}

// Stats counts what happened during one validation pass.
type Stats struct {
	Parsed      int
	Discarded   int
	Regenerated int
	Fallbacks   int
}

// Validate runs the full pipeline: parse, schema check, ingredient filter,
// normalization, constraint enforcement with one narrow regeneration, and
// fallback synthesis padding the batch to want recipes.
func (v *Validator) Validate(ctx context.Context, rawText string, allow ingredient.AllowList, items []string, variant prompt.Variant, want int) ([]Recipe, Stats) {
	var stats Stats

	drafts := parseDrafts(rawText)
	stats.Parsed = len(drafts)
	if len(drafts) == 0 && rawText != "" {
		common.LogWarn("provider output unparseable, falling back",
			zap.Int("raw_length", len(rawText)),
		)
	}

	profile := prompt.ProfileFor(variant)
	recipes := make([]Recipe, 0, want)

	for _, d := range drafts {
		rec, ok := v.sanitizeDraft(d, allow)
		if !ok {
			stats.Discarded++
			continue
		}

		if violation, ok := checkConstraints(rec, profile); !ok {
			regenerated := v.regenerate(ctx, allow, items, variant, violation)
			if regenerated != nil {
				stats.Regenerated++
				rec = *regenerated
			} else {
				// Best-effort: the draft stays in the batch rather than
				// silently disappearing.
				common.LogWarn("recipe kept best-effort after constraint violation",
					zap.String("violation", violation),
					zap.String("title", rec.Title),
				)
			}
		}

		recipes = append(recipes, rec)
		if len(recipes) == want {
			break
		}
	}

	for len(recipes) < want {
		recipes = append(recipes, synthesizeFallback(allow, v.portion))
		stats.Fallbacks++
	}

	return recipes, stats
}

// Synthesize produces a complete batch of fallback recipes, used when the
// provider is unavailable outright.
func (v *Validator) Synthesize(allow ingredient.AllowList, want int) []Recipe {
	recipes := make([]Recipe, 0, want)
	for i := 0; i < want; i++ {
		recipes = append(recipes, synthesizeFallback(allow, v.portion))
	}
	return recipes
}

// parseDrafts attempts a strict structural parse, then retries on the
// largest well-formed JSON substring. Returns nil on total failure.
func parseDrafts(rawText string) []Draft {
	txt := common.ExtractJSON(rawText)
	if txt == "" {
		return nil
	}

	var batch draftBatch
	if err := common.ParseJSON(txt, &batch); err == nil && len(batch.Recipes) > 0 {
		return batch.Recipes
	}

	// Some providers return a bare array.
	var list []Draft
	if err := common.ParseJSON(txt, &list); err == nil && len(list) > 0 {
		return list
	}

	// Single object without the wrapper.
	var single Draft
	if err := common.ParseJSON(txt, &single); err == nil && single.Title != "" {
		return []Draft{single}
	}

	return nil
}

// sanitizeDraft applies the schema check, allow-list filter and
// normalization to one draft. ok is false when the draft must be discarded.
func (v *Validator) sanitizeDraft(d Draft, allow ingredient.AllowList) (Recipe, bool) {
	// Schema check: required fields, structural step bounds, at least one
	// ingredient line.
	if strings.TrimSpace(d.Title) == "" && len(d.Ingredients) == 0 {
		return Recipe{}, false
	}
	if len(d.Steps) < 3 || len(d.Steps) > 8 {
		return Recipe{}, false
	}
	if len(d.Ingredients) == 0 {
		return Recipe{}, false
	}

	// Ingredient filter: only allow-list members survive, under folded
	// comparison. Names are stored canonical.
	var ings []Ingredient
	seen := map[string]struct{}{}
	for _, di := range d.Ingredients {
		canon := ingredient.Canonical(di.Name)
		if canon == "" || !allow.Contains(canon) {
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}

		amount, unit := ParseQuantity(canon, di.Quantity)
		if amount <= 0 {
			continue
		}
		ings = append(ings, Ingredient{Name: canon, Amount: amount, Unit: unit})
	}
	if len(ings) == 0 {
		return Recipe{}, false
	}

	steps := buildSteps(d.Steps)
	if len(steps) < 3 {
		// Step lines that were only numbering or whitespace vanish above;
		// the template keeps the recipe structurally complete.
		steps = templateSteps()
	}

	timeMin := d.Time.TotalMin
	if timeMin <= 0 {
		timeMin = d.Time.PrepMin + d.Time.CookMin
	}
	if timeMin <= 0 {
		for _, s := range steps {
			timeMin += s.DurationMin
		}
	}
	if timeMin <= 0 {
		timeMin = 25
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = titleFromIngredients(ings)
	}

	portion := strings.TrimSpace(d.Servings)
	if portion == "" {
		portion = v.portion
	}

	equipment := d.Equipment
	if len(equipment) == 0 {
		equipment = defaultEquipment
	}

	tips := d.Tips
	if len(tips) > 3 {
		tips = tips[:3]
	}

	return Recipe{
		ID:          uuid.New().String(),
		Title:       title,
		Lead:        strings.TrimSpace(d.Lead),
		Portion:     portion,
		TimeMin:     timeMin,
		Equipment:   equipment,
		Ingredients: ings,
		Steps:       steps,
		Tips:        tips,
	}, true
}

var (
	stepNumberPrefix = regexp.MustCompile(`(?i)^\s*(?:step\s*)?\d+\s*[).:\-—]\s*`)
	stepDuration     = regexp.MustCompile(`(\d+)\s*(?:min|minute|minutes)\b`)
)

// buildSteps converts provider step strings into ordered structured steps.
// The action is the first clause; the remainder becomes the detail unless it
// just repeats the action.
func buildSteps(raw []string) []Step {
	steps := make([]Step, 0, len(raw))
	for _, line := range raw {
		text := stepNumberPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if text == "" {
			continue
		}

		action := text
		detail := ""
		if idx := strings.IndexAny(text, ".;"); idx > 0 && idx < len(text)-1 {
			action = strings.TrimSpace(text[:idx])
			detail = strings.TrimSpace(text[idx+1:])
		}
		if strings.EqualFold(detail, action) {
			detail = ""
		}

		durationMin := 0
		if m := stepDuration.FindStringSubmatch(strings.ToLower(text)); m != nil {
			fmt.Sscanf(m[1], "%d", &durationMin)
		}

		steps = append(steps, Step{
			Order:       len(steps) + 1,
			Action:      action,
			Detail:      detail,
			DurationMin: durationMin,
		})
	}
	return steps
}

// checkConstraints verifies the variant profile against a sanitized recipe.
// Returns the human-readable violation when the recipe fails.
func checkConstraints(rec Recipe, p prompt.Profile) (string, bool) {
	if p.MinSteps > 0 && len(rec.Steps) < p.MinSteps {
		return fmt.Sprintf("too few steps: %d < %d", len(rec.Steps), p.MinSteps), false
	}
	if p.MaxSteps > 0 && len(rec.Steps) > p.MaxSteps {
		return fmt.Sprintf("too many steps: %d > %d", len(rec.Steps), p.MaxSteps), false
	}
	if p.TimeMinLow > 0 && rec.TimeMin < p.TimeMinLow {
		return fmt.Sprintf("total time %d below %d minutes", rec.TimeMin, p.TimeMinLow), false
	}
	if p.TimeMinHigh > 0 && rec.TimeMin > p.TimeMinHigh {
		return fmt.Sprintf("total time %d above %d minutes", rec.TimeMin, p.TimeMinHigh), false
	}
	if p.MaxIngredients > 0 && len(rec.Ingredients) > p.MaxIngredients {
		return fmt.Sprintf("too many ingredients: %d > %d", len(rec.Ingredients), p.MaxIngredients), false
	}

	var text strings.Builder
	text.WriteString(rec.Title)
	for _, s := range rec.Steps {
		text.WriteString(" " + s.Action + " " + s.Detail)
	}
	for _, t := range rec.Tips {
		text.WriteString(" " + t)
	}
	if banned, found := p.ContainsBannedTechnique(text.String()); found {
		return fmt.Sprintf("banned technique: %s", banned), false
	}

	return "", true
}

// regenerate performs the single narrow regeneration attempt for a draft
// that failed its variant constraints. Returns nil when the attempt does
// not yield a conforming recipe.
func (v *Validator) regenerate(ctx context.Context, allow ingredient.AllowList, items []string, variant prompt.Variant, violation string) *Recipe {
	if v.client == nil {
		return nil
	}

	p := prompt.BuildNarrow(variant, items, allow.Names(), violation, v.portion)
	result, err := v.client.Generate(ctx, p.Instructions, p.UserContent, p.Temperature)
	if err != nil {
		common.LogWarn("narrow regeneration failed", zap.Error(err))
		return nil
	}

	drafts := parseDrafts(result.Content)
	if len(drafts) == 0 {
		return nil
	}

	rec, ok := v.sanitizeDraft(drafts[0], allow)
	if !ok {
		return nil
	}
	if _, ok := checkConstraints(rec, prompt.ProfileFor(variant)); !ok {
		return nil
	}
	return &rec
}
