package api

import (
	"riskcore/internal/domain"
	"riskcore/internal/scenario"
)

// toBaseline converts the merged raw metric bag into the delta engine's
// Baseline shape (§4.E), expressing hospital_load as a percent on this
// interface per internal/scenario's documented boundary. raw always carries
// the fields get_merged_state defaults (aqi, temperature, hospital_load,
// respiratory_cases, crop_supply_index), so usedLiveData is reported
// separately, from the state manager's per-slot update history rather than
// from any field's nil-ness.
func toBaseline(s *Server, raw domain.RawMetrics) (scenario.Baseline, []string, bool) {
	envFeat, envAssumptions := s.pre.Environmental(raw)
	healthFeat, healthAssumptions := s.pre.Health(raw)
	foodFeat, foodAssumptions := s.pre.Food(raw)

	assumptions := append(append(envAssumptions, healthAssumptions...), foodAssumptions...)

	baseline := scenario.Baseline{
		AQI:          envFeat.AQI,
		Temperature:  envFeat.Temperature,
		HospitalLoad: healthFeat.HospitalLoad * 100,
		CropSupply:   foodFeat.CropSupplyIndex,
	}

	return baseline, assumptions, s.mgr.HasLiveData()
}

// applySimulatedBaseline overlays a simulated Baseline's four fields onto a
// copy of the current merged metric bag, converting hospital_load back from
// percent to the raw-metric shape (the preprocessor auto-detects the scale
// on the way back in, so a plain percent value is sufficient here).
func applySimulatedBaseline(merged domain.RawMetrics, sim scenario.Baseline) domain.RawMetrics {
	aqi := sim.AQI
	temp := sim.Temperature
	hospital := sim.HospitalLoad
	crop := sim.CropSupply

	return merged.Merge(domain.RawMetrics{
		AQI:             &aqi,
		Temperature:     &temp,
		HospitalLoad:    &hospital,
		CropSupplyIndex: &crop,
	})
}
