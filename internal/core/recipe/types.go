package recipe

// Unit is the closed set of measurement units a validated ingredient may
// carry.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
	UnitTablespoon Unit = "tbsp"
	UnitTeaspoon   Unit = "tsp"
	UnitPiece      Unit = "pcs"
)

// Draft is the provider's raw structured output before validation. It is
// untrusted and must never be returned to a caller as-is.
type Draft struct {
	Title       string            `json:"title"`
	Lead        string            `json:"lead,omitempty"`
	Time        DraftTime         `json:"time"`
	Servings    string            `json:"servings"`
	Ingredients []DraftIngredient `json:"ingredients"`
	Equipment   []string          `json:"equipment"`
	Steps       []string          `json:"steps"`
	Tips        []string          `json:"tips,omitempty"`
}

// DraftTime is the provider's time breakdown in minutes.
type DraftTime struct {
	PrepMin  int `json:"prep_min"`
	CookMin  int `json:"cook_min"`
	TotalMin int `json:"total_min"`
}

// DraftIngredient pairs a name with a free-text quantity string.
type DraftIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// draftBatch is the one output shape the prompt instructions declare.
type draftBatch struct {
	Recipes []Draft `json:"recipes"`
}

// Recipe is the sanitized, caller-facing entity. Constructed once per
// generation and immutable thereafter; regeneration produces a new Recipe
// with a new id.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Lead        string       `json:"lead,omitempty"`
	Portion     string       `json:"portion"`
	TimeMin     int          `json:"time_min"`
	Equipment   []string     `json:"equipment"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	Tips        []string     `json:"tips,omitempty"`
}

// Ingredient is a validated ingredient line. Name is always a member of the
// request's allow-list; Amount is clamped to per-unit sane bounds.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
}

// Step is one ordered instruction. Detail is omitted when degenerate or a
// duplicate of Action.
type Step struct {
	Order       int    `json:"order"`
	Action      string `json:"action"`
	Detail      string `json:"detail,omitempty"`
	DurationMin int    `json:"duration_min,omitempty"`
}

// Batch is the cached and returned payload shape.
type Batch struct {
	Recipes []Recipe `json:"recipes"`
}

// Origins for the response trace.
const (
	OriginCache    = "cache"
	OriginProvider = "provider"
	OriginFallback = "fallback"
)

// Trace describes where a batch came from.
type Trace struct {
	Model    string   `json:"model"`
	Origin   string   `json:"origin"`
	Leads    []string `json:"leads"`
	CacheKey string   `json:"cache_key,omitempty"`
}
