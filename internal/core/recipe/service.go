package recipe

import (
	"context"
	"encoding/json"
	"time"

	"fridgechef/internal/core/ai"
	"fridgechef/internal/core/analytics"
	"fridgechef/internal/core/cache"
	"fridgechef/internal/core/ingredient"
	"fridgechef/internal/core/prompt"
	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/infrastructure/metrics"
	"fridgechef/internal/pkg/common"

	"go.uber.org/zap"
)

// Service runs the batch generation pipeline: canonicalize, cache lookup,
// prompt, provider call, validation, cache write.
type Service struct {
	client    ai.Client
	tier      *cache.Tier
	validator *Validator
	sink      *analytics.Sink
	cfg       *config.Config
}

// NewService wires the pipeline.
func NewService(client ai.Client, tier *cache.Tier, sink *analytics.Sink, cfg *config.Config) *Service {
	return &Service{
		client:    client,
		tier:      tier,
		validator: NewValidator(client, cfg.Generation.DefaultPortion),
		sink:      sink,
		cfg:       cfg,
	}
}

// GenerateRequest is the batch pipeline input.
type GenerateRequest struct {
	Products  []ingredient.Input
	Variant   prompt.Variant
	SessionID string
	NoCache   bool
	Debug     bool
}

// GenerateResponse always carries exactly the configured number of recipes.
type GenerateResponse struct {
	Recipes []Recipe `json:"recipes"`
	Trace   Trace    `json:"trace"`
}

// Generate runs the full pipeline. It never returns an empty batch: provider
// failure and malformed output both degrade to synthesized fallbacks.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	items := req.Products
	canonicalItems := ingredient.CanonicalNames(items)
	if len(canonicalItems) == 0 {
		// Empty input gets the fixed default set, not an error.
		items = defaultInputs(s.cfg.Generation.DefaultItems)
		canonicalItems = ingredient.CanonicalNames(items)
	}
	allow := ingredient.BuildAllowList(items, s.cfg.Pantry.Staples)
	key := ingredient.Canonicalize(items, false) + "::" + string(req.Variant)
	want := s.cfg.Generation.RecipeCount

	s.sink.Track(analytics.EventRecipesRequested, map[string]interface{}{
		"items":   len(canonicalItems),
		"variant": string(req.Variant),
	}, req.SessionID)

	if !req.NoCache {
		if data, ok := s.tier.Get(ctx, key); ok {
			var batch Batch
			if err := json.Unmarshal(data, &batch); err == nil {
				metrics.GenerationRequests.WithLabelValues(string(req.Variant), OriginCache).Inc()
				common.LogInfo("batch served from cache",
					zap.String("variant", string(req.Variant)),
				)
				return s.respond(batch.Recipes, OriginCache, key, req.Debug), nil
			}
		}
	}

	p := prompt.Build(req.Variant, canonicalItems, allow.Names(), want, s.cfg.Generation.DefaultPortion)

	start := time.Now()
	result, err := s.client.Generate(ctx, p.Instructions, p.UserContent, p.Temperature)
	latency := time.Since(start)
	metrics.ProviderLatency.WithLabelValues("batch").Observe(latency.Seconds())

	if err != nil {
		// Always return something usable; a hard error would need the
		// fallback itself to be impossible.
		common.LogWarn("provider unavailable, synthesizing batch",
			zap.Error(err),
			zap.String("variant", string(req.Variant)),
		)
		recipes := s.validator.Synthesize(allow, want)
		metrics.GenerationRequests.WithLabelValues(string(req.Variant), OriginFallback).Inc()
		return s.respond(recipes, OriginFallback, key, req.Debug), nil
	}

	recipes, stats := s.validator.Validate(ctx, result.Content, allow, canonicalItems, req.Variant, want)

	s.sink.Track(analytics.EventGenerationCompleted, map[string]interface{}{
		"variant":      string(req.Variant),
		"latency_ms":   latency.Milliseconds(),
		"total_tokens": result.Usage.TotalTokens,
		"parsed":       stats.Parsed,
		"fallbacks":    stats.Fallbacks,
	}, req.SessionID)

	origin := OriginProvider
	if stats.Fallbacks == want {
		origin = OriginFallback
	}
	metrics.GenerationRequests.WithLabelValues(string(req.Variant), origin).Inc()

	// Fallback-only batches are never cached.
	if origin == OriginProvider {
		if data, err := json.Marshal(Batch{Recipes: recipes}); err == nil {
			s.tier.Set(ctx, key, data)
		}
	}

	common.LogInfo("batch generated",
		zap.String("variant", string(req.Variant)),
		zap.Duration("latency", latency),
		zap.Int("parsed_drafts", stats.Parsed),
		zap.Int("discarded", stats.Discarded),
		zap.Int("regenerated", stats.Regenerated),
		zap.Int("fallbacks", stats.Fallbacks),
	)

	return s.respond(recipes, origin, key, req.Debug), nil
}

func (s *Service) respond(recipes []Recipe, origin, key string, debug bool) *GenerateResponse {
	leads := make([]string, 0, len(recipes))
	for _, r := range recipes {
		if r.Lead != "" {
			leads = append(leads, r.Lead)
		}
	}

	trace := Trace{
		Model:  s.client.Model(),
		Origin: origin,
		Leads:  leads,
	}
	if debug {
		trace.CacheKey = key
	}

	return &GenerateResponse{Recipes: recipes, Trace: trace}
}

func defaultInputs(names []string) []ingredient.Input {
	items := make([]ingredient.Input, 0, len(names))
	for _, n := range names {
		items = append(items, ingredient.Input{Name: n})
	}
	return items
}
