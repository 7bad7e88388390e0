package ingredient

import (
	"fmt"
	"sort"
	"strings"
)

// KeyVersion is the cache key schema version. Bumping it is the only
// supported cache invalidation mechanism: entries written under an older
// version are simply never addressed again.
const KeyVersion = "v4"

// Unit is the closed set of measurement kinds an input may carry.
type Unit string

const (
	UnitMass   Unit = "mass"
	UnitVolume Unit = "volume"
	UnitCount  Unit = "count"
)

// Input is a caller-supplied ingredient. Name is free text; Quantity and
// Unit are optional.
type Input struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     Unit     `json:"unit,omitempty"`
}

// synonyms folds common aliases to one canonical name so "spaghetti" and
// "penne" address the same cache entry as "pasta".
var synonyms = map[string]string{
	"spaghetti":       "pasta",
	"penne":           "pasta",
	"macaroni":        "pasta",
	"noodles":         "pasta",
	"tomatoes":        "tomato",
	"cherry tomatoes": "tomato",
	"onions":          "onion",
	"red onion":       "onion",
	"eggs":            "egg",
	"cucumbers":       "cucumber",
	"champignons":     "mushrooms",
	"button mushrooms": "mushrooms",
	"sausages":        "sausage",
	"wiener":          "sausage",
	"olive oil":       "oil",
	"sunflower oil":   "oil",
	"vegetable oil":   "oil",
	"black pepper":    "pepper",
	"ground pepper":   "pepper",
	"drinking water":  "water",
}

// diacritics maps accented runes to their base form. The set is fixed and
// covers the Latin accents that show up in food names.
var diacritics = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ñ': 'n', 'ç': 'c', 'ý': 'y',
}

func foldDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if base, ok := diacritics[r]; ok {
			b.WriteRune(base)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize lowercases, trims, collapses internal whitespace and folds
// accented characters for a single ingredient name.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), " ")
	return foldDiacritics(s)
}

// Canonical normalizes a name and resolves it through the synonym table.
func Canonical(raw string) string {
	s := Normalize(raw)
	if canon, ok := synonyms[s]; ok {
		return canon
	}
	return s
}

// CanonicalNames normalizes, canonicalizes and deduplicates a list of names,
// preserving nothing of the input order: the result is sorted.
func CanonicalNames(items []Input) []string {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		c := Canonical(it.Name)
		if c == "" {
			continue
		}
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Canonicalize derives the cache key for an ingredient set. Inputs differing
// only in order, case or whitespace yield the same key. Entries whose name
// normalizes to empty are dropped. With quantity tracking enabled the
// last-seen quantity per name wins and is embedded alongside the name.
func Canonicalize(items []Input, withQuantity bool) string {
	type entry struct {
		quantity *float64
		unit     Unit
	}
	byName := make(map[string]entry, len(items))
	for _, it := range items {
		c := Canonical(it.Name)
		if c == "" {
			continue
		}
		byName[c] = entry{quantity: it.Quantity, unit: it.Unit}
	}

	if len(byName) == 0 {
		return ""
	}

	parts := make([]string, 0, len(byName))
	for name, e := range byName {
		if withQuantity && e.quantity != nil {
			parts = append(parts, fmt.Sprintf("%s:%g:%s", name, *e.quantity, e.unit))
		} else {
			parts = append(parts, name)
		}
	}
	sort.Strings(parts)

	return KeyVersion + "::" + strings.Join(parts, "|")
}

// AllowList is a folded-name membership set.
type AllowList map[string]struct{}

// BuildAllowList unions the canonical user items with the fixed pantry
// staples. Only members of this set may appear in validated recipes.
func BuildAllowList(items []Input, pantry []string) AllowList {
	allowed := make(AllowList)
	for _, name := range CanonicalNames(items) {
		allowed[name] = struct{}{}
	}
	for _, p := range pantry {
		if c := Canonical(p); c != "" {
			allowed[c] = struct{}{}
		}
	}
	return allowed
}

// Contains reports membership under folded comparison.
func (a AllowList) Contains(name string) bool {
	_, ok := a[Canonical(name)]
	return ok
}

// Names returns the sorted member list, for embedding into prompts.
func (a AllowList) Names() []string {
	out := make([]string, 0, len(a))
	for name := range a {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
