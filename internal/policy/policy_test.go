package policy

import (
	"testing"

	"riskcore/internal/cascade"
	"riskcore/internal/classifier"
	"riskcore/internal/domain"
	"riskcore/internal/preprocessor"
)

func f(v float64) *float64 { return &v }

func ptrVal(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func TestApply_TrafficReduction(t *testing.T) {
	raw := domain.RawMetrics{TrafficDensity: f(2), AQI: f(200)}

	oneStep := Apply(raw, Modifications{TrafficReduction: 0.25})
	if ptrVal(oneStep.TrafficDensity) != 1 {
		t.Errorf("traffic_density = %v, want 1 after one-step reduction", ptrVal(oneStep.TrafficDensity))
	}
	wantAQI := 200 * (1 - 0.3*0.25)
	if ptrVal(oneStep.AQI) != wantAQI {
		t.Errorf("aqi = %v, want %v", ptrVal(oneStep.AQI), wantAQI)
	}

	twoStep := Apply(raw, Modifications{TrafficReduction: 0.50})
	if ptrVal(twoStep.TrafficDensity) != 0 {
		t.Errorf("traffic_density = %v, want 0 after two-step reduction", ptrVal(twoStep.TrafficDensity))
	}
}

func TestApply_TrafficReductionClampsAtZero(t *testing.T) {
	raw := domain.RawMetrics{TrafficDensity: f(1)}
	modified := Apply(raw, Modifications{TrafficReduction: 0.50})
	if ptrVal(modified.TrafficDensity) != 0 {
		t.Errorf("traffic_density = %v, want clamped to 0", ptrVal(modified.TrafficDensity))
	}
}

func TestApply_AQICap(t *testing.T) {
	raw := domain.RawMetrics{AQI: f(400)}
	modified := Apply(raw, Modifications{AQICap: 150})
	if ptrVal(modified.AQI) != 150 {
		t.Errorf("aqi = %v, want capped to 150", ptrVal(modified.AQI))
	}
}

func TestApply_EmissionControl(t *testing.T) {
	raw := domain.RawMetrics{AQI: f(200)}
	modified := Apply(raw, Modifications{EmissionControl: 0.3})
	want := 200 * 0.7
	if ptrVal(modified.AQI) != want {
		t.Errorf("aqi = %v, want %v", ptrVal(modified.AQI), want)
	}
}

func TestApply_SurgeCapacityDividesAndClamps(t *testing.T) {
	raw := domain.RawMetrics{HospitalLoad: f(0.9)}
	modified := Apply(raw, Modifications{SurgeCapacity: 0.5})
	want := domain.Clamp(0.9/1.5, 0.4, 0.95)
	if ptrVal(modified.HospitalLoad) != want {
		t.Errorf("hospital_load = %v, want %v", ptrVal(modified.HospitalLoad), want)
	}
}

func TestApply_SurgeCapacityClampsLowerBound(t *testing.T) {
	raw := domain.RawMetrics{HospitalLoad: f(0.3)}
	modified := Apply(raw, Modifications{SurgeCapacity: 0.1})
	if ptrVal(modified.HospitalLoad) != 0.4 {
		t.Errorf("hospital_load = %v, want clamped to floor 0.4", ptrVal(modified.HospitalLoad))
	}
}

func TestApply_EmergencyStaffing(t *testing.T) {
	raw := domain.RawMetrics{HospitalLoad: f(0.8)}
	modified := Apply(raw, Modifications{EmergencyStaffing: 0.4})
	want := 0.8 * (1 - 0.5*0.4)
	if ptrVal(modified.HospitalLoad) != want {
		t.Errorf("hospital_load = %v, want %v", ptrVal(modified.HospitalLoad), want)
	}
}

func TestApply_Infrastructure(t *testing.T) {
	raw := domain.RawMetrics{HospitalLoad: f(0.8), RespiratoryCases: f(500)}
	modified := Apply(raw, Modifications{Infrastructure: 0.5})
	wantHospital := 0.8 * (1 - 0.4*0.5)
	wantRespiratory := 500.0 * (1 - 0.3*0.5)
	if ptrVal(modified.HospitalLoad) != wantHospital {
		t.Errorf("hospital_load = %v, want %v", ptrVal(modified.HospitalLoad), wantHospital)
	}
	if ptrVal(modified.RespiratoryCases) != wantRespiratory {
		t.Errorf("respiratory_cases = %v, want %v", ptrVal(modified.RespiratoryCases), wantRespiratory)
	}
}

func TestApply_ImportStabilizationUpperClamps(t *testing.T) {
	raw := domain.RawMetrics{CropSupplyIndex: f(90)}
	modified := Apply(raw, Modifications{ImportStabilization: 0.5})
	if ptrVal(modified.CropSupplyIndex) != 100 {
		t.Errorf("crop_supply_index = %v, want clamped to 100", ptrVal(modified.CropSupplyIndex))
	}
}

func TestApply_SubsidyRateLowerClamps(t *testing.T) {
	raw := domain.RawMetrics{FoodPriceIndex: f(90)}
	modified := Apply(raw, Modifications{SubsidyRate: 0.5})
	if ptrVal(modified.FoodPriceIndex) != 80 {
		t.Errorf("food_price_index = %v, want clamped to floor 80", ptrVal(modified.FoodPriceIndex))
	}
}

func TestApply_SupplyChainResilience(t *testing.T) {
	raw := domain.RawMetrics{SupplyDisruptionEvents: f(5), FoodPriceIndex: f(120)}
	modified := Apply(raw, Modifications{SupplyChainResilience: 0.5})
	wantDisruption := 5.0 * (1 - 0.6*0.5)
	wantPrice := 120.0 * (1 - 0.2*0.5)
	if ptrVal(modified.SupplyDisruptionEvents) != wantDisruption {
		t.Errorf("supply_disruption_events = %v, want %v", ptrVal(modified.SupplyDisruptionEvents), wantDisruption)
	}
	if ptrVal(modified.FoodPriceIndex) != wantPrice {
		t.Errorf("food_price_index = %v, want %v", ptrVal(modified.FoodPriceIndex), wantPrice)
	}
}

// TestEvaluate_PolicyImprovementScenario reproduces §8 scenario 5: applying
// a bundle of interventions to a high-stress baseline must report a
// resilience delta equal to intervention minus baseline resilience, and
// per-domain absolute_change values equal to baseline minus intervention
// probability-of-high.
func TestEvaluate_PolicyImprovementScenario(t *testing.T) {
	engine := cascade.New(preprocessor.New(), classifier.New())
	raw := domain.RawMetrics{
		AQI:                    f(220),
		TrafficDensity:         f(2),
		Temperature:            f(35),
		Rainfall:               f(5),
		HospitalLoad:           f(0.85),
		RespiratoryCases:       f(500),
		CropSupplyIndex:        f(55),
		FoodPriceIndex:         f(140),
		SupplyDisruptionEvents: f(4),
	}
	mods := Modifications{
		TrafficReduction: 0.35,
		SurgeCapacity:    0.25,
		SubsidyRate:      0.15,
	}

	result := Evaluate(engine, raw, mods)

	wantResilienceDelta := result.Intervention.ResilienceScore - result.Baseline.ResilienceScore
	if result.ResilienceDelta != wantResilienceDelta {
		t.Errorf("resilience_delta = %v, want %v", result.ResilienceDelta, wantResilienceDelta)
	}

	wantEnvAbs := result.Baseline.Environmental.ProbabilityOfHigh - result.Intervention.Environmental.ProbabilityOfHigh
	if result.Environmental.AbsoluteChange != wantEnvAbs {
		t.Errorf("environmental absolute_change = %v, want %v (baseline - intervention)", result.Environmental.AbsoluteChange, wantEnvAbs)
	}
	wantHealthAbs := result.Baseline.Health.ProbabilityOfHigh - result.Intervention.Health.ProbabilityOfHigh
	if result.Health.AbsoluteChange != wantHealthAbs {
		t.Errorf("health absolute_change = %v, want %v", result.Health.AbsoluteChange, wantHealthAbs)
	}
	wantFoodAbs := result.Baseline.Food.ProbabilityOfHigh - result.Intervention.Food.ProbabilityOfHigh
	if result.Food.AbsoluteChange != wantFoodAbs {
		t.Errorf("food absolute_change = %v, want %v", result.Food.AbsoluteChange, wantFoodAbs)
	}
}

func TestApply_UnrecognizedInterventionIgnored(t *testing.T) {
	raw := domain.RawMetrics{AQI: f(100)}
	modified := Apply(raw, Modifications{"not_a_real_intervention": 0.5})
	if ptrVal(modified.AQI) != 100 {
		t.Errorf("aqi = %v, want unchanged for an unrecognized intervention", ptrVal(modified.AQI))
	}
}
