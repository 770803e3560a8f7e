// Package classifier implements §4.B: opaque per-domain models exposing
// PredictProba(features) → (risk_level, distribution). Each model is a
// deterministic, smooth function of its feature vector — no randomness, no
// external calls — so cascade inference stays a total, repeatable function
// of its inputs. Models are "trained parameters" in name only: the weights
// below play the role of an opaque classifier's learned coefficients (§9
// "Singleton model access" — a configuration struct holds them, constructed
// once at process start).
package classifier

import (
	"math"

	"riskcore/internal/domain"
)

// softmaxGain controls how sharply the three-way score separates into a
// dominant class as risk moves away from the midpoint. Fixed at model
// construction time, analogous to a trained temperature parameter.
const softmaxGain = 10.0

// overrideAQI is the AQI value above which the environmental model's output
// is bypassed in favor of a pinned high-risk distribution (§4.C, §9
// "Threshold overrides" — guards against extrapolating outside the training
// support of a classifier that has never seen such extreme inputs).
const overrideAQI = 300.0

// overrideCropSupply is the crop_supply_index value below which the food
// model's output is pinned to high-risk for the same reason.
const overrideCropSupply = 30.0

// pinnedOverrideDistribution is the exact override distribution named in
// §4.C's testable scenario 3.
var pinnedOverrideDistribution = domain.Distribution{Low: 0.02, Medium: 0.08, High: 0.90}

// OverrideConfidence is the fixed confidence reported alongside a pinned
// override distribution — the model isn't being consulted, so its usual
// entropy/margin-derived confidence doesn't apply.
const OverrideConfidence = 0.99

// softmax3 turns a 0..1 "risk_raw" score into a smooth three-class
// distribution, biased toward low at risk_raw=0 and high at risk_raw=1.
// The medium logit is fixed at half the gain, so medium peaks at 1/3 at
// risk_raw=0.5 (a three-way tie) and never exceeds both low and high.
func softmax3(riskRaw float64) domain.Distribution {
	logitLow := softmaxGain * (1 - riskRaw)
	logitMedium := softmaxGain * 0.5
	logitHigh := softmaxGain * riskRaw

	expLow := math.Exp(logitLow)
	expMedium := math.Exp(logitMedium)
	expHigh := math.Exp(logitHigh)
	sum := expLow + expMedium + expHigh

	return domain.Distribution{
		Low:    expLow / sum,
		Medium: expMedium / sum,
		High:   expHigh / sum,
	}
}

// ─── Environmental Model ────────────────────────────────────────────────────

// EnvModel is the trained environmental-domain classifier.
type EnvModel struct{}

// NewEnvModel constructs the environmental model.
func NewEnvModel() *EnvModel { return &EnvModel{} }

// PredictProba implements domain.EnvClassifier.
func (m *EnvModel) PredictProba(f domain.EnvFeatures) (domain.RiskLevel, domain.Distribution) {
	if f.AQI > overrideAQI {
		return domain.RiskHigh, pinnedOverrideDistribution
	}

	aqiNorm := f.AQI / 500.0
	trafficNorm := f.TrafficDensity / 2.0
	tempNorm := f.Temperature / 50.0
	rainReliefNorm := 1 - f.Rainfall/200.0

	riskRaw := 0.5*aqiNorm + 0.2*trafficNorm + 0.2*tempNorm + 0.1*rainReliefNorm
	riskRaw = domain.Clamp(riskRaw, 0, 1)

	dist := softmax3(riskRaw)
	return dist.ArgMax(), dist
}

// ─── Health Model ───────────────────────────────────────────────────────────

// HealthModel is the trained health-domain classifier. It is the cascade
// target: its feature vector carries EnvironmentalRiskProb, injected by the
// cascade from the environmental model's probability-of-high.
type HealthModel struct{}

// NewHealthModel constructs the health model.
func NewHealthModel() *HealthModel { return &HealthModel{} }

// PredictProba implements domain.HealthClassifier.
func (m *HealthModel) PredictProba(f domain.HealthFeatures) (domain.RiskLevel, domain.Distribution) {
	hospitalNorm := f.HospitalLoad
	respiratoryNorm := domain.Clamp(f.RespiratoryCases/2000.0, 0, 1)
	aqiNorm := f.AQI / 500.0
	tempNorm := f.Temperature / 50.0
	envProb := domain.Clamp(f.EnvironmentalRiskProb, 0, 1)

	riskRaw := 0.40*hospitalNorm + 0.20*respiratoryNorm + 0.15*aqiNorm + 0.10*tempNorm + 0.15*envProb
	riskRaw = domain.Clamp(riskRaw, 0, 1)

	dist := softmax3(riskRaw)
	return dist.ArgMax(), dist
}

// ─── Food Model ─────────────────────────────────────────────────────────────

// FoodModel is the trained food-domain classifier.
type FoodModel struct{}

// NewFoodModel constructs the food model.
func NewFoodModel() *FoodModel { return &FoodModel{} }

// PredictProba implements domain.FoodClassifier.
func (m *FoodModel) PredictProba(f domain.FoodFeatures) (domain.RiskLevel, domain.Distribution) {
	if f.CropSupplyIndex < overrideCropSupply {
		return domain.RiskHigh, pinnedOverrideDistribution
	}

	supplyShortfallNorm := 1 - f.CropSupplyIndex/100.0
	priceNorm := domain.Clamp((f.FoodPriceIndex-50.0)/150.0, 0, 1)
	disruptionNorm := f.SupplyDisruptionEvents / 10.0
	tempExtremeNorm := domain.Clamp(math.Abs(f.Temperature-25.0)/25.0, 0, 1)

	riskRaw := 0.40*supplyShortfallNorm + 0.25*priceNorm + 0.25*disruptionNorm + 0.10*tempExtremeNorm
	riskRaw = domain.Clamp(riskRaw, 0, 1)

	dist := softmax3(riskRaw)
	return dist.ArgMax(), dist
}

// ─── Bundle ─────────────────────────────────────────────────────────────────

// Bundle holds one classifier per domain. It is constructed once at process
// start and shared read-only across requests (§5 "the classifier is shared
// and must be thread-safe... stateless w.r.t. request content"). All three
// models here hold no mutable state, so the Bundle returned by New is
// already safe for concurrent use.
type Bundle struct {
	Env    domain.EnvClassifier
	Health domain.HealthClassifier
	Food   domain.FoodClassifier
}

// New constructs the default classifier bundle.
func New() *Bundle {
	return &Bundle{
		Env:    NewEnvModel(),
		Health: NewHealthModel(),
		Food:   NewFoodModel(),
	}
}

// EnvOverridden reports whether the given environmental AQI triggers the
// pinned-high override, for callers that want to surface this as an
// assumption/explanation without re-running PredictProba.
func EnvOverridden(aqi float64) bool { return aqi > overrideAQI }

// FoodOverridden reports whether the given crop supply index triggers the
// pinned-high override.
func FoodOverridden(cropSupply float64) bool { return cropSupply < overrideCropSupply }
