// Package cascade implements §4.C: the directed probabilistic inference
// pipeline that turns a raw metric bag into a full prediction record —
// environmental risk cascaded into the health feature vector, food scored
// in parallel, resilience aggregated, and per-domain confidence blended
// from distribution entropy and top-two margin.
package cascade

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"riskcore/internal/classifier"
	"riskcore/internal/domain"
	"riskcore/internal/preprocessor"
)

// ResilienceWeights are the fixed coefficients in the resilience formula
// (§3): resilience = round(100*(1 - wEnv*P_env_high - wHealth*P_health_high
// - wFood*P_food_high)). The open-question discrepancy in the source
// ({0.35,0.40,0.25} vs {0.35,0.45,0.20}) is resolved in favor of the
// former — see DESIGN.md.
type ResilienceWeights struct {
	Env    float64
	Health float64
	Food   float64
}

// DefaultResilienceWeights returns the weights fixed by the specification.
func DefaultResilienceWeights() ResilienceWeights {
	return ResilienceWeights{Env: 0.35, Health: 0.40, Food: 0.25}
}

// ConfidenceWeights blend normalized negentropy and top-two margin into a
// single per-domain confidence score.
type ConfidenceWeights struct {
	Negentropy float64
	Margin     float64
}

// DefaultConfidenceWeights returns the weights fixed by the specification.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{Negentropy: 0.6, Margin: 0.4}
}

// Engine runs the cascading inference pipeline. It holds only configuration
// and collaborators — no request-scoped state — so a single Engine is
// shared read-only across all callers, same as the classifier bundle it
// wraps (§5).
type Engine struct {
	pre               *preprocessor.Preprocessor
	classifiers       *classifier.Bundle
	resilienceWeights ResilienceWeights
	confidenceWeights ConfidenceWeights
	now               func() time.Time
	newID             func() string
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithResilienceWeights overrides the default resilience weights.
func WithResilienceWeights(w ResilienceWeights) Option {
	return func(e *Engine) { e.resilienceWeights = w }
}

// WithConfidenceWeights overrides the default confidence blend weights.
func WithConfidenceWeights(w ConfidenceWeights) Option {
	return func(e *Engine) { e.confidenceWeights = w }
}

// WithClock overrides the engine's time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc overrides the engine's prediction-ID generator, for
// deterministic tests.
func WithIDFunc(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New constructs a cascade Engine over the given preprocessor and
// classifier bundle.
func New(pre *preprocessor.Preprocessor, classifiers *classifier.Bundle, opts ...Option) *Engine {
	e := &Engine{
		pre:               pre,
		classifiers:       classifiers,
		resilienceWeights: DefaultResilienceWeights(),
		confidenceWeights: DefaultConfidenceWeights(),
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Infer runs the full cascade over a raw metric bag and produces a
// prediction record. It never fails — the classifier abstraction is a
// total function over its feature vectors (§4.B) — so callers that need
// ClassifierFailure semantics (§7) wrap a classifier implementation that
// can itself fail, not this engine.
func (e *Engine) Infer(raw domain.RawMetrics) domain.Prediction {
	envFeat, envAssumptions := e.pre.Environmental(raw)
	healthFeat, healthAssumptions := e.pre.Health(raw)
	foodFeat, foodAssumptions := e.pre.Food(raw)

	envLevel, envDist := e.classifiers.Env.PredictProba(envFeat)
	pEnvHigh := envDist.High

	healthFeat.EnvironmentalRiskProb = pEnvHigh
	healthLevel, healthDist := e.classifiers.Health.PredictProba(healthFeat)

	foodLevel, foodDist := e.classifiers.Food.PredictProba(foodFeat)

	resilience := Resilience(pEnvHigh, healthDist.High, foodDist.High, e.resilienceWeights)

	envConfidence := e.confidence(envDist)
	if classifier.EnvOverridden(envFeat.AQI) {
		envConfidence = classifier.OverrideConfidence
	}
	healthConfidence := e.confidence(healthDist)
	foodConfidence := e.confidence(foodDist)
	if classifier.FoodOverridden(foodFeat.CropSupplyIndex) {
		foodConfidence = classifier.OverrideConfidence
	}

	assumptions := dedupeAssumptions(envAssumptions, healthAssumptions, foodAssumptions)

	overallConfidence := round3((envConfidence + healthConfidence + foodConfidence) / 3)

	return domain.Prediction{
		ID:        e.newID(),
		Timestamp: e.now(),
		Environmental: domain.DomainResult{
			RiskLevel:         envLevel,
			ProbabilityOfHigh: envDist.High,
			Distribution:      envDist,
			Confidence:        envConfidence,
		},
		Health: domain.DomainResult{
			RiskLevel:         healthLevel,
			ProbabilityOfHigh: healthDist.High,
			Distribution:      healthDist,
			Confidence:        healthConfidence,
		},
		Food: domain.DomainResult{
			RiskLevel:         foodLevel,
			ProbabilityOfHigh: foodDist.High,
			Distribution:      foodDist,
			Confidence:        foodConfidence,
		},
		ResilienceScore: resilience,
		Cascade: domain.CascadeInfo{
			EnvProbInjectedIntoHealth: pEnvHigh,
		},
		Assumptions:       assumptions,
		OverallConfidence: overallConfidence,
	}
}

// Resilience computes the resilience score formula from §3.
func Resilience(pEnvHigh, pHealthHigh, pFoodHigh float64, w ResilienceWeights) int {
	raw := 100 * (1 - w.Env*pEnvHigh - w.Health*pHealthHigh - w.Food*pFoodHigh)
	rounded := math.Round(raw)
	return int(domain.Clamp(rounded, 0, 100))
}

// confidence blends normalized negentropy and top-two margin per §4.C.6.
func (e *Engine) confidence(d domain.Distribution) float64 {
	negentropy := 1 - entropy(d)/math.Log(3)
	margin := topTwoMargin(d)
	blended := e.confidenceWeights.Negentropy*negentropy + e.confidenceWeights.Margin*margin
	return round3(domain.Clamp(blended, 0, 1))
}

// entropy computes the Shannon entropy H(p) = -Σ p_i ln(p_i), treating
// zero-probability classes as contributing zero.
func entropy(d domain.Distribution) float64 {
	h := 0.0
	for _, p := range []float64{d.Low, d.Medium, d.High} {
		if p <= 0 {
			continue
		}
		h -= p * math.Log(p)
	}
	return h
}

// topTwoMargin returns the gap between the largest and second-largest
// class probabilities.
func topTwoMargin(d domain.Distribution) float64 {
	ps := []float64{d.Low, d.Medium, d.High}
	sort.Sort(sort.Reverse(sort.Float64Slice(ps)))
	return ps[0] - ps[1]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// dedupeAssumptions merges assumption lists from multiple preprocessing
// passes, dropping exact duplicates (the same raw field, e.g. aqi, is
// preprocessed once per domain that uses it and would otherwise be
// reported once per domain).
func dedupeAssumptions(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, a := range list {
			if seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
