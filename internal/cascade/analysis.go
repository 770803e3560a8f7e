package cascade

import (
	"fmt"

	"riskcore/internal/domain"
)

// Edge is one directed link in the fixed cross-system propagation graph
// used by cascade analysis (§6 "Cascade analysis", §12 supplemented
// feature 1). This graph is distinct from the per-prediction env→health
// feature injection Infer performs — it models system-level knock-on
// severity, not probability.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// propagationEdges is the fixed edge set named in the specification.
var propagationEdges = []Edge{
	{From: "environmental", To: "health", Weight: 0.7},
	{From: "environmental", To: "food", Weight: 0.5},
	{From: "health", To: "economy", Weight: 0.35},
	{From: "food", To: "economy", Weight: 0.4},
}

// affectedThreshold is the severity floor a node must clear to be reported
// as affected.
const affectedThreshold = 0.1

// StageEntry records one node's severity as of one propagation stage.
type StageEntry struct {
	Stage    int     `json:"stage"`
	Node     string  `json:"node"`
	Severity float64 `json:"severity"`
}

// AnalysisResult is the cascade-analysis response shape (§12 supplemented
// feature 1).
type AnalysisResult struct {
	Trigger  string       `json:"trigger"`
	Severity float64      `json:"severity"`
	Edges    []Edge       `json:"edges"`
	Stages   []StageEntry `json:"stages"`
	Affected []string     `json:"affected"`
	Summary  string       `json:"summary"`
}

// knownNodes is the fixed set of system names the propagation graph spans.
var knownNodes = map[string]bool{
	"environmental": true,
	"health":        true,
	"food":          true,
	"economy":       true,
}

// ValidTrigger reports whether name names a node in the propagation graph.
func ValidTrigger(name string) bool { return knownNodes[name] }

// Analyze runs the three-stage cascade-analysis propagation: stage 1 sets
// the trigger's own severity, stage 2 sets its direct successors by
// severity*edge_weight, stage 3 sums incoming weighted severities into
// downstream nodes, clamped to [0,1] (§6).
func Analyze(trigger string, severity float64) AnalysisResult {
	severity = domain.Clamp(severity, 0, 1)
	severities := map[string]float64{trigger: severity}

	stages := []StageEntry{{Stage: 1, Node: trigger, Severity: severity}}

	var directTargets []string
	for _, e := range propagationEdges {
		if e.From != trigger {
			continue
		}
		v := severity * e.Weight
		severities[e.To] = v
		stages = append(stages, StageEntry{Stage: 2, Node: e.To, Severity: v})
		directTargets = append(directTargets, e.To)
	}

	var downstreamOrder []string
	downstreamSeen := make(map[string]bool)
	downstream := make(map[string]float64)
	for _, e := range propagationEdges {
		if e.From == trigger {
			continue
		}
		fromVal, ok := severities[e.From]
		if !ok {
			continue
		}
		if !downstreamSeen[e.To] {
			downstreamSeen[e.To] = true
			downstreamOrder = append(downstreamOrder, e.To)
		}
		downstream[e.To] += fromVal * e.Weight
	}
	for _, node := range downstreamOrder {
		v := domain.Clamp(downstream[node], 0, 1)
		severities[node] = v
		stages = append(stages, StageEntry{Stage: 3, Node: node, Severity: v})
	}

	order := append([]string{trigger}, append(directTargets, downstreamOrder...)...)
	seen := make(map[string]bool)
	var affected []string
	for _, node := range order {
		if seen[node] {
			continue
		}
		seen[node] = true
		if severities[node] > affectedThreshold {
			affected = append(affected, node)
		}
	}

	return AnalysisResult{
		Trigger:  trigger,
		Severity: severity,
		Edges:    propagationEdges,
		Stages:   stages,
		Affected: affected,
		Summary: fmt.Sprintf(
			"%s triggered at severity %.2f propagates through %d stage(s), affecting %d node(s): %v",
			trigger, severity, 3, len(affected), affected,
		),
	}
}
