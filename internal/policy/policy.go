// Package policy implements §4.F: named interventions that modify a metric
// baseline before delegating to internal/cascade for rescoring, reporting
// per-domain absolute and percentage differences.
package policy

import (
	"riskcore/internal/cascade"
	"riskcore/internal/domain"
)

// Modifications is the named-intervention map from §6: each key is an
// intervention name, each value a scalar in [0,1].
type Modifications map[string]float64

// Intervention names (§4.F).
const (
	TrafficReduction       = "traffic_reduction"
	AQICap                 = "aqi_cap"
	EmissionControl        = "emission_control"
	SurgeCapacity          = "surge_capacity"
	EmergencyStaffing      = "emergency_staffing"
	Infrastructure         = "infrastructure"
	ImportStabilization    = "import_stabilization"
	SubsidyRate            = "subsidy_rate"
	SupplyChainResilience  = "supply_chain_resilience"
)

// Apply applies the named interventions to a raw metric bag, returning a
// modified copy. Unrecognized keys are ignored — the orchestrator layer is
// responsible for request validation (§7 ValidationError); this function
// focuses purely on the documented transformation rules.
func Apply(raw domain.RawMetrics, mods Modifications) domain.RawMetrics {
	out := raw

	if reduction, ok := mods[TrafficReduction]; ok {
		out.TrafficDensity = applyTrafficReduction(out.TrafficDensity, reduction)
		out.AQI = scale(out.AQI, 1-0.3*reduction)
	}
	if cap, ok := mods[AQICap]; ok {
		out.AQI = upperClamp(out.AQI, cap)
	}
	if factor, ok := mods[EmissionControl]; ok {
		out.AQI = scale(out.AQI, 1-factor)
	}
	if factor, ok := mods[SurgeCapacity]; ok {
		out.HospitalLoad = divideClamp(out.HospitalLoad, 1+factor, 0.4, 0.95)
	}
	if factor, ok := mods[EmergencyStaffing]; ok {
		out.HospitalLoad = scale(out.HospitalLoad, 1-0.5*factor)
	}
	if factor, ok := mods[Infrastructure]; ok {
		out.HospitalLoad = scale(out.HospitalLoad, 1-0.4*factor)
		out.RespiratoryCases = scale(out.RespiratoryCases, 1-0.3*factor)
	}
	if factor, ok := mods[ImportStabilization]; ok {
		out.CropSupplyIndex = upperClamp(scalePtr(out.CropSupplyIndex, 1+factor), 100)
	}
	if factor, ok := mods[SubsidyRate]; ok {
		out.FoodPriceIndex = lowerClamp(scalePtr(out.FoodPriceIndex, 1-factor), 80)
	}
	if factor, ok := mods[SupplyChainResilience]; ok {
		out.SupplyDisruptionEvents = scale(out.SupplyDisruptionEvents, 1-0.6*factor)
		out.FoodPriceIndex = scale(out.FoodPriceIndex, 1-0.2*factor)
	}

	return out
}

// applyTrafficReduction lowers traffic_density by one step at >=0.25
// reduction and two steps at >=0.50, clamped at zero (§4.F).
func applyTrafficReduction(traffic *float64, reduction float64) *float64 {
	v := 1.0
	if traffic != nil {
		v = *traffic
	}
	steps := 0.0
	switch {
	case reduction >= 0.50:
		steps = 2
	case reduction >= 0.25:
		steps = 1
	}
	result := domain.Clamp(v-steps, 0, v)
	return &result
}

// scale multiplies a possibly-nil field by a factor, leaving nil untouched
// (the preprocessor will substitute the domain default downstream).
func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	result := *v * factor
	return &result
}

// scalePtr is used by the import/subsidy interventions and behaves exactly
// like scale: a nil field stays nil. Those interventions normally receive
// the state manager's merged bag, whose crop_supply_index is always set.
func scalePtr(v *float64, factor float64) *float64 {
	return scale(v, factor)
}

func upperClamp(v *float64, ceiling float64) *float64 {
	if v == nil {
		return nil
	}
	result := *v
	if result > ceiling {
		result = ceiling
	}
	return &result
}

func lowerClamp(v *float64, floor float64) *float64 {
	if v == nil {
		return nil
	}
	result := *v
	if result < floor {
		result = floor
	}
	return &result
}

func divideClamp(v *float64, divisor, lo, hi float64) *float64 {
	base := 0.5
	if v != nil {
		base = *v
	}
	result := domain.Clamp(base/divisor, lo, hi)
	return &result
}

// DomainComparison reports one domain's before/after probability-of-high
// and the derived improvement.
type DomainComparison struct {
	BaselineProbabilityOfHigh     float64 `json:"baseline_probability_of_high"`
	InterventionProbabilityOfHigh float64 `json:"intervention_probability_of_high"`
	AbsoluteChange                float64 `json:"absolute_change"`
	PercentChange                 float64 `json:"percent_change"`
}

// Result is the full policy-scenario response (§6).
type Result struct {
	Baseline             domain.Prediction            `json:"baseline"`
	Intervention         domain.Prediction             `json:"intervention"`
	Environmental        DomainComparison              `json:"environmental"`
	Health               DomainComparison              `json:"health"`
	Food                 DomainComparison               `json:"food"`
	ResilienceDelta       int                            `json:"resilience_delta"`
	OverallImprovementPct float64                        `json:"overall_improvement_pct"`
}

// Evaluate applies modifications to a baseline metric bag, reruns the
// cascade on both the unmodified and modified bags, and reports per-domain
// and overall improvement (§4.F, §6 policy-based scenario simulation).
func Evaluate(engine *cascade.Engine, raw domain.RawMetrics, mods Modifications) Result {
	baselinePrediction := engine.Infer(raw)
	modified := Apply(raw, mods)
	interventionPrediction := engine.Infer(modified)

	compare := func(base, after domain.DomainResult) DomainComparison {
		abs := base.ProbabilityOfHigh - after.ProbabilityOfHigh
		pct := 0.0
		if base.ProbabilityOfHigh != 0 {
			pct = abs / base.ProbabilityOfHigh * 100
		}
		return DomainComparison{
			BaselineProbabilityOfHigh:     base.ProbabilityOfHigh,
			InterventionProbabilityOfHigh: after.ProbabilityOfHigh,
			AbsoluteChange:                abs,
			PercentChange:                 pct,
		}
	}

	envCompare := compare(baselinePrediction.Environmental, interventionPrediction.Environmental)
	healthCompare := compare(baselinePrediction.Health, interventionPrediction.Health)
	foodCompare := compare(baselinePrediction.Food, interventionPrediction.Food)

	resilienceDelta := interventionPrediction.ResilienceScore - baselinePrediction.ResilienceScore
	overallImprovement := (envCompare.PercentChange + healthCompare.PercentChange + foodCompare.PercentChange) / 3

	return Result{
		Baseline:              baselinePrediction,
		Intervention:          interventionPrediction,
		Environmental:         envCompare,
		Health:                healthCompare,
		Food:                  foodCompare,
		ResilienceDelta:       resilienceDelta,
		OverallImprovementPct: overallImprovement,
	}
}
