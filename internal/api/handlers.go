package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"riskcore/internal/cascade"
	"riskcore/internal/domain"
	"riskcore/internal/policy"
	"riskcore/internal/scenario"
)

// handleSnapshot answers the current-snapshot query endpoint (§6 bullet 1).
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	locality := chi.URLParam(r, "locality")
	snap := s.mgr.GetSnapshot()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locality":                locality,
		"metrics":                 snap.Metrics,
		"environmental_freshness": snap.EnvironmentalFreshness,
		"health_freshness":        snap.HealthFreshness,
		"food_freshness":          snap.FoodFreshness,
		"overall_confidence":      snap.OverallConfidence,
	})
}

// handleRiskAssessment answers the risk-assessment query endpoint (§6
// bullet 2): a stateless cascade inference over the currently merged state,
// plus deterministic causal explanations (§12 supplemented feature 3).
func (s *Server) handleRiskAssessment(w http.ResponseWriter, r *http.Request) {
	locality := chi.URLParam(r, "locality")
	merged, _ := s.mgr.GetMergedState()
	pred := s.engine.Infer(merged)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locality":         locality,
		"environmental":    pred.Environmental,
		"health":           pred.Health,
		"food":             pred.Food,
		"resilience_score": pred.ResilienceScore,
		"cascade_info":     pred.Cascade,
		"assumptions":      pred.Assumptions,
		"explanations":     explainPrediction(pred),
	})
}

// explainPrediction generates short, deterministic, human-readable causal
// explanations from a prediction's risk levels and cascade info (§12
// supplemented feature 3). It never calls out to an external model — the
// text is templated from the prediction record alone.
func explainPrediction(pred domain.Prediction) []string {
	var lines []string

	lines = append(lines, fmt.Sprintf(
		"Environmental risk is %s (probability of high = %.2f), driven by air quality, traffic, heat, and rainfall readings.",
		pred.Environmental.RiskLevel, pred.Environmental.ProbabilityOfHigh,
	))

	lines = append(lines, fmt.Sprintf(
		"Environmental conditions feed into the health model as a %.2f probability-of-high input, %s hospital-system risk, which is currently %s.",
		pred.Cascade.EnvProbInjectedIntoHealth,
		cascadeVerb(pred.Cascade.EnvProbInjectedIntoHealth),
		pred.Health.RiskLevel,
	))

	lines = append(lines, fmt.Sprintf(
		"Food-system risk is %s (probability of high = %.2f), based on crop supply, food prices, rainfall, and supply disruption counts.",
		pred.Food.RiskLevel, pred.Food.ProbabilityOfHigh,
	))

	lines = append(lines, fmt.Sprintf(
		"Overall city resilience score is %d/100, weighted 35%% environmental, 40%% health, 25%% food.",
		pred.ResilienceScore,
	))

	return lines
}

func cascadeVerb(envProb float64) string {
	if envProb >= 0.6 {
		return "raising"
	}
	if envProb <= 0.3 {
		return "easing"
	}
	return "holding steady"
}

// scenarioDeltaRequest is the scenario simulation (delta-based) request
// shape (§6 bullet 3).
type scenarioDeltaRequest struct {
	PresetID       string         `json:"preset_id,omitempty"`
	CustomPrompt   string         `json:"custom_prompt,omitempty"`
	ExplicitDeltas *domain.Deltas `json:"explicit_deltas,omitempty"`
}

// handleScenarioDelta answers the scenario simulation (delta-based) query
// endpoint (§6 bullet 3).
func (s *Server) handleScenarioDelta(w http.ResponseWriter, r *http.Request) {
	locality := chi.URLParam(r, "locality")

	var req scenarioDeltaRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", "malformed request body: "+err.Error()))
			return
		}
	}
	if req.PresetID != "" {
		if _, ok := scenario.PresetSignals(req.PresetID); !ok {
			writeDomainError(w, http.StatusBadRequest, fmt.Errorf("%q: %w", req.PresetID, domain.ErrUnknownPreset))
			return
		}
	}

	merged, _ := s.mgr.GetMergedState()
	baseline, assumptions, usedLiveData := toBaseline(s, merged)

	deltas, source, signals := scenario.Resolve(scenario.Mode{
		Custom: req.ExplicitDeltas,
		Prompt: req.CustomPrompt,
		Preset: req.PresetID,
	})

	sim := scenario.Apply(baseline, deltas)
	simulatedRaw := applySimulatedBaseline(merged, sim.Simulated)
	risks := s.engine.Infer(simulatedRaw)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locality": locality,
		"baseline": sim.Baseline,
		"deltas": map[string]interface{}{
			"values":      sim.Deltas,
			"source":      source,
			"signals":     signals,
			"description": describeSignals(signals, source),
		},
		"simulated": sim.Simulated,
		"breakdown": sim.Breakdown,
		"risks":     risks,
		"validation": map[string]bool{
			"used_live_data": usedLiveData,
			"fallback_used":  len(assumptions) > 0,
			"deltas_applied": deltas != domain.Deltas{},
			"ml_executed":    true,
		},
	})
}

// describeSignals renders a one-line human-readable description of the
// resolved scenario deltas' origin (§6 bullet 3 "description").
func describeSignals(signals *domain.ScenarioSignals, source domain.DeltaSource) string {
	if signals == nil {
		return fmt.Sprintf("deltas sourced from %s, no scenario signals extracted", source)
	}

	var events []string
	for _, e := range signals.PrimaryEvents {
		events = append(events, string(e))
	}
	eventList := "none"
	if len(events) > 0 {
		eventList = strings.Join(events, ", ")
	}

	var impacts []string
	for _, imp := range signals.SecondaryImpacts {
		impacts = append(impacts, string(imp))
	}
	impactList := "none"
	if len(impacts) > 0 {
		impactList = strings.Join(impacts, ", ")
	}

	return fmt.Sprintf(
		"%s severity, %s duration %s event(s) with %s secondary impact(s); extraction confidence %s",
		signals.Severity, signals.Duration, eventList, impactList, signals.ExtractionConfidence,
	)
}

// handleScenarioPolicy answers the scenario simulation (policy-based) query
// endpoint (§6 bullet 4).
func (s *Server) handleScenarioPolicy(w http.ResponseWriter, r *http.Request) {
	locality := chi.URLParam(r, "locality")

	var mods policy.Modifications
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&mods); err != nil && err.Error() != "EOF" {
			writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", "malformed modifications body: "+err.Error()))
			return
		}
	}

	merged, _ := s.mgr.GetMergedState()
	result := policy.Evaluate(s.engine, merged, mods)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locality": locality,
		"result":   result,
	})
}

// cascadeAnalysisRequest is the cascade-analysis request shape (§6
// bullet 5).
type cascadeAnalysisRequest struct {
	Trigger  string  `json:"trigger"`
	Severity float64 `json:"severity"`
}

// handleCascadeAnalysis answers the cascade-analysis query endpoint (§6
// bullet 5, §12 supplemented feature 1).
func (s *Server) handleCascadeAnalysis(w http.ResponseWriter, r *http.Request) {
	var req cascadeAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", "malformed cascade analysis request: "+err.Error()))
		return
	}
	if !cascade.ValidTrigger(req.Trigger) {
		writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", fmt.Sprintf("unrecognized trigger system %q", req.Trigger)))
		return
	}
	if req.Severity < 0 || req.Severity > 1 {
		writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", "severity must be in [0, 1]"))
		return
	}

	writeJSON(w, http.StatusOK, cascade.Analyze(req.Trigger, req.Severity))
}

// presetDisplay pairs a preset's canonical signals with display metadata
// (§12 supplemented feature 2).
type presetDisplay struct {
	ID              string          `json:"id"`
	Label           string          `json:"label"`
	Description     string          `json:"description"`
	DefaultSeverity domain.Severity `json:"default_severity"`
	DefaultDuration domain.Duration `json:"default_duration"`
}

var presetLabels = map[string]struct {
	Label       string
	Description string
}{
	"heatwave": {"Heatwave", "Sustained high temperatures raising environmental and health risk."},
	"drought":  {"Drought", "Prolonged rainfall deficit straining food supply."},
	"flood":    {"Flood", "Acute flooding disrupting transport, hospitals, and crops."},
	"crisis":   {"Compound Crisis", "Severe, multi-domain event with the broadest secondary impacts."},
}

// handleScenarioPresets answers the scenario-presets-list query endpoint
// (§6 bullet 6, §12 supplemented feature 2).
func (s *Server) handleScenarioPresets(w http.ResponseWriter, r *http.Request) {
	presets := scenario.Presets()
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]presetDisplay, 0, len(ids))
	for _, id := range ids {
		signals := presets[id]
		meta := presetLabels[id]
		out = append(out, presetDisplay{
			ID:              id,
			Label:           meta.Label,
			Description:     meta.Description,
			DefaultSeverity: signals.Severity,
			DefaultDuration: signals.Duration,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": out})
}
