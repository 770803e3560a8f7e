// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import "time"

// ─── Risk Level & Probability ──────────────────────────────────────────────

// RiskLevel is the ordered classification a domain model returns.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Distribution is a three-class probability vector. Probabilities must sum
// to 1 within SumTolerance; callers should validate with Valid().
type Distribution struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// SumTolerance is the slack allowed around a sum-to-one distribution.
const SumTolerance = 0.01

// Sum returns Low+Medium+High.
func (d Distribution) Sum() float64 { return d.Low + d.Medium + d.High }

// Valid reports whether the distribution sums to 1 within SumTolerance and
// has no negative components.
func (d Distribution) Valid() bool {
	if d.Low < 0 || d.Medium < 0 || d.High < 0 {
		return false
	}
	s := d.Sum()
	return s >= 1-SumTolerance && s <= 1+SumTolerance
}

// ArgMax returns the risk level with the highest probability. Ties are
// resolved in High > Medium > Low order, per the "class label equals
// argmax" contract under symmetric ties (§4.B).
func (d Distribution) ArgMax() RiskLevel {
	switch {
	case d.High >= d.Medium && d.High >= d.Low:
		return RiskHigh
	case d.Medium >= d.Low:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ─── Metric Bag (external, permissive) ─────────────────────────────────────

// RawMetrics is the permissive external input shape: every field is
// optional. Missing or unparseable fields are replaced by preprocessor
// defaults; nil never survives past the preprocessor boundary.
type RawMetrics struct {
	AQI                    *float64 `json:"aqi,omitempty"`
	TrafficDensity         *float64 `json:"traffic_density,omitempty"`
	Temperature            *float64 `json:"temperature,omitempty"`
	Rainfall               *float64 `json:"rainfall,omitempty"`
	HospitalLoad           *float64 `json:"hospital_load,omitempty"`
	RespiratoryCases       *float64 `json:"respiratory_cases,omitempty"`
	CropSupplyIndex        *float64 `json:"crop_supply_index,omitempty"`
	FoodPriceIndex         *float64 `json:"food_price_index,omitempty"`
	SupplyDisruptionEvents *float64 `json:"supply_disruption_events,omitempty"`
}

// Merge overlays non-nil fields from other onto a copy of r.
func (r RawMetrics) Merge(other RawMetrics) RawMetrics {
	out := r
	if other.AQI != nil {
		out.AQI = other.AQI
	}
	if other.TrafficDensity != nil {
		out.TrafficDensity = other.TrafficDensity
	}
	if other.Temperature != nil {
		out.Temperature = other.Temperature
	}
	if other.Rainfall != nil {
		out.Rainfall = other.Rainfall
	}
	if other.HospitalLoad != nil {
		out.HospitalLoad = other.HospitalLoad
	}
	if other.RespiratoryCases != nil {
		out.RespiratoryCases = other.RespiratoryCases
	}
	if other.CropSupplyIndex != nil {
		out.CropSupplyIndex = other.CropSupplyIndex
	}
	if other.FoodPriceIndex != nil {
		out.FoodPriceIndex = other.FoodPriceIndex
	}
	if other.SupplyDisruptionEvents != nil {
		out.SupplyDisruptionEvents = other.SupplyDisruptionEvents
	}
	return out
}

// ─── Feature Vectors (internal, closed) ────────────────────────────────────

// EnvFeatures is the fully-populated, bounded feature vector for the
// environmental domain.
type EnvFeatures struct {
	AQI            float64
	TrafficDensity float64
	Temperature    float64
	Rainfall       float64
}

// HealthFeatures is the fully-populated, bounded feature vector for the
// health domain. EnvironmentalRiskProb is never supplied by a caller — it
// is injected by the cascade (internal/cascade) from the environmental
// domain's probability-of-high.
type HealthFeatures struct {
	AQI                   float64
	HospitalLoad          float64
	RespiratoryCases      float64
	Temperature           float64
	EnvironmentalRiskProb float64
}

// FoodFeatures is the fully-populated, bounded feature vector for the food
// domain.
type FoodFeatures struct {
	CropSupplyIndex        float64
	FoodPriceIndex         float64
	Rainfall               float64
	Temperature            float64
	SupplyDisruptionEvents float64
}

// ─── Prediction Record ──────────────────────────────────────────────────────

// DomainResult is one domain's slice of a prediction record.
type DomainResult struct {
	RiskLevel         RiskLevel    `json:"risk_level"`
	ProbabilityOfHigh float64      `json:"probability_of_high"`
	Distribution      Distribution `json:"distribution"`
	Confidence        float64      `json:"confidence"`
}

// CascadeInfo records the value actually injected from environmental risk
// into the health feature vector, so callers can verify the cascade echo
// invariant without re-deriving it.
type CascadeInfo struct {
	EnvProbInjectedIntoHealth float64 `json:"env_prob_injected_into_health"`
}

// Prediction is an immutable, timestamped inference result.
type Prediction struct {
	ID                  string       `json:"id"`
	Timestamp           time.Time    `json:"timestamp"`
	Environmental       DomainResult `json:"environmental"`
	Health              DomainResult `json:"health"`
	Food                DomainResult `json:"food"`
	ResilienceScore     int          `json:"resilience_score"`
	InferenceDurationMs int64        `json:"inference_duration_ms"`
	Cascade             CascadeInfo  `json:"cascade_info"`
	Assumptions         []string     `json:"assumptions,omitempty"`
	// OverallConfidence is set by the cascade engine to the mean of the
	// three per-domain confidences; the real-time state manager overwrites
	// it with the data-freshness confidence (§4.G) for predictions it
	// appends to rolling history.
	OverallConfidence float64 `json:"overall_confidence,omitempty"`
}

// ─── Scenario Signals ───────────────────────────────────────────────────────

// PrimaryEvent is a multi-select scenario trigger.
type PrimaryEvent string

const (
	EventFlood     PrimaryEvent = "flood"
	EventHeatwave  PrimaryEvent = "heatwave"
	EventDrought   PrimaryEvent = "drought"
	EventPollution PrimaryEvent = "pollution"
	EventCyclone   PrimaryEvent = "cyclone"
	EventNone      PrimaryEvent = "none"
)

// Severity is a single-select scenario intensity.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Duration is a single-select scenario timespan.
type Duration string

const (
	DurationShort     Duration = "short"
	DurationModerate  Duration = "moderate"
	DurationProlonged Duration = "prolonged"
)

// SecondaryImpact is a multi-select knock-on effect.
type SecondaryImpact string

const (
	ImpactTransportDisruption    SecondaryImpact = "transport_disruption"
	ImpactHospitalAccessReduced  SecondaryImpact = "hospital_access_reduction"
	ImpactPowerOutage            SecondaryImpact = "power_outage"
	ImpactWaterShortage          SecondaryImpact = "water_shortage"
	ImpactFoodSupplyDisruption   SecondaryImpact = "food_supply_disruption"
)

// ExtractionConfidence grades how much signal the extractor found.
type ExtractionConfidence string

const (
	ExtractionLow    ExtractionConfidence = "low"
	ExtractionMedium ExtractionConfidence = "medium"
	ExtractionHigh   ExtractionConfidence = "high"
)

// ScenarioSignals is the closed, structured description of a what-if
// scenario, derived deterministically from free text or a preset ID.
type ScenarioSignals struct {
	PrimaryEvents        []PrimaryEvent        `json:"primary_events"`
	Severity             Severity              `json:"severity"`
	Duration             Duration              `json:"duration"`
	SecondaryImpacts      []SecondaryImpact     `json:"secondary_impacts"`
	ExtractionConfidence ExtractionConfidence  `json:"extraction_confidence"`
}

// ─── Deltas ─────────────────────────────────────────────────────────────────

// Deltas is a signed change to the four simulated metrics.
type Deltas struct {
	AQIDelta          float64 `json:"aqi_delta"`
	TemperatureDelta  float64 `json:"temperature_delta"`
	HospitalLoadDelta float64 `json:"hospital_load_delta"`
	CropSupplyDelta   float64 `json:"crop_supply_delta"`
}

// Add returns the element-wise sum of two deltas.
func (d Deltas) Add(o Deltas) Deltas {
	return Deltas{
		AQIDelta:          d.AQIDelta + o.AQIDelta,
		TemperatureDelta:  d.TemperatureDelta + o.TemperatureDelta,
		HospitalLoadDelta: d.HospitalLoadDelta + o.HospitalLoadDelta,
		CropSupplyDelta:   d.CropSupplyDelta + o.CropSupplyDelta,
	}
}

// DeltaSource tags where a set of deltas came from, for response transparency.
type DeltaSource string

const (
	SourceCustom         DeltaSource = "custom"
	SourcePromptInferred DeltaSource = "prompt_inference"
	SourcePreset         DeltaSource = "preset"
	SourceDefault        DeltaSource = "default"
)

// ─── Clamp helper ───────────────────────────────────────────────────────────

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
