package scenario

import "riskcore/internal/domain"

// Baseline is the delta engine's metric shape (§4.E). Note hospital_load is
// expressed as a percent ([0,100]) on this interface — distinct from the
// [0,1] ratio internal/preprocessor and internal/classifier operate on.
// internal/api converts at the boundary when composing with the cascade.
type Baseline struct {
	AQI          float64 `json:"aqi"`
	Temperature  float64 `json:"temperature"`
	HospitalLoad float64 `json:"hospital_load"`
	CropSupply   float64 `json:"crop_supply"`
}

// Clamp bounds for the delta-application interface (§4.E).
const (
	minAQI, maxAQI                 = 0.0, 500.0
	minTemperature, maxTemperature = -10.0, 55.0
	minHospitalLoad, maxHospitalLoad = 0.0, 100.0
	minCropSupply, maxCropSupply    = 10.0, 100.0
)

// Severity and duration multipliers (§4.E).
var severityMultiplier = map[domain.Severity]float64{
	domain.SeverityLow:      0.5,
	domain.SeverityModerate: 1.0,
	domain.SeverityHigh:     1.5,
}

var durationMultiplier = map[domain.Duration]float64{
	domain.DurationShort:     0.8,
	domain.DurationModerate:  1.0,
	domain.DurationProlonged: 1.5,
}

// baseImpactRow is the canonical per-event impact before multipliers.
type baseImpactRow struct {
	AQI, Temp, Hospital, Food float64
}

var baseImpactTable = map[domain.PrimaryEvent]baseImpactRow{
	domain.EventFlood:     {AQI: -10, Temp: -4, Hospital: 12, Food: -8},
	domain.EventHeatwave:  {AQI: 25, Temp: 5, Hospital: 15, Food: -10},
	domain.EventPollution: {AQI: 100, Temp: 1, Hospital: 10, Food: -2},
	domain.EventDrought:   {AQI: 15, Temp: 3, Hospital: 8, Food: -25},
	domain.EventCyclone:   {AQI: -15, Temp: -3, Hospital: 20, Food: -15},
}

// secondaryImpactRow is the fixed per-impact delta contribution (§4.E).
type secondaryImpactRow struct {
	Hospital, Food float64
}

var secondaryImpactTable = map[domain.SecondaryImpact]secondaryImpactRow{
	domain.ImpactTransportDisruption:   {Hospital: 15, Food: -5},
	domain.ImpactHospitalAccessReduced: {Hospital: 25},
	domain.ImpactFoodSupplyDisruption:  {Food: -10},
}

// heatwaveHighSeverityTempBonus is the multiplicative bonus applied to the
// heatwave temperature component when severity is high (§4.E).
const heatwaveHighSeverityTempBonus = 1.2

// presetTable maps named presets to a canonical ScenarioSignals value
// (§4.E). `crisis` has no single primary driver — it represents a
// compound, severity-high event with the broadest secondary impacts.
var presetTable = map[string]domain.ScenarioSignals{
	"heatwave": {
		PrimaryEvents:        []domain.PrimaryEvent{domain.EventHeatwave},
		Severity:             domain.SeverityModerate,
		Duration:             domain.DurationModerate,
		ExtractionConfidence: domain.ExtractionHigh,
	},
	"drought": {
		PrimaryEvents:        []domain.PrimaryEvent{domain.EventDrought},
		Severity:             domain.SeverityModerate,
		Duration:             domain.DurationProlonged,
		SecondaryImpacts:     []domain.SecondaryImpact{domain.ImpactWaterShortage, domain.ImpactFoodSupplyDisruption},
		ExtractionConfidence: domain.ExtractionHigh,
	},
	"flood": {
		PrimaryEvents:        []domain.PrimaryEvent{domain.EventFlood},
		Severity:             domain.SeverityModerate,
		Duration:             domain.DurationModerate,
		SecondaryImpacts:     []domain.SecondaryImpact{domain.ImpactTransportDisruption},
		ExtractionConfidence: domain.ExtractionHigh,
	},
	"crisis": {
		PrimaryEvents:        []domain.PrimaryEvent{domain.EventNone},
		Severity:             domain.SeverityHigh,
		Duration:             domain.DurationProlonged,
		SecondaryImpacts:     []domain.SecondaryImpact{domain.ImpactTransportDisruption, domain.ImpactHospitalAccessReduced},
		ExtractionConfidence: domain.ExtractionHigh,
	},
}

// Presets returns the fixed preset table, for listing endpoints.
func Presets() map[string]domain.ScenarioSignals {
	out := make(map[string]domain.ScenarioSignals, len(presetTable))
	for k, v := range presetTable {
		out[k] = v
	}
	return out
}

// PresetSignals looks up a named preset's canonical signals.
func PresetSignals(name string) (domain.ScenarioSignals, bool) {
	s, ok := presetTable[name]
	return s, ok
}

// SignalsToDeltas composes a ScenarioSignals value into metric deltas
// (§4.E): base impact rows per primary event, scaled by severity and
// duration multipliers (duration only affects the hospital and food
// components), summed across events, plus fixed per-secondary-impact
// contributions. The deltas are not clamped; Apply bounds the simulated
// values.
func SignalsToDeltas(s domain.ScenarioSignals) domain.Deltas {
	sevMult := severityMultiplier[s.Severity]
	durMult := durationMultiplier[s.Duration]

	var total domain.Deltas
	for _, event := range s.PrimaryEvents {
		row, ok := baseImpactTable[event]
		if !ok {
			continue
		}
		tempBonus := 1.0
		if event == domain.EventHeatwave && s.Severity == domain.SeverityHigh {
			tempBonus = heatwaveHighSeverityTempBonus
		}
		total = total.Add(domain.Deltas{
			AQIDelta:          row.AQI * sevMult,
			TemperatureDelta:  row.Temp * sevMult * tempBonus,
			HospitalLoadDelta: row.Hospital * sevMult * durMult,
			CropSupplyDelta:   row.Food * sevMult * durMult,
		})
	}

	for _, impact := range s.SecondaryImpacts {
		row, ok := secondaryImpactTable[impact]
		if !ok {
			continue
		}
		total = total.Add(domain.Deltas{
			HospitalLoadDelta: row.Hospital,
			CropSupplyDelta:   row.Food,
		})
	}

	return total
}

// FieldBreakdown reports one field's baseline, delta, and clamped final
// value.
type FieldBreakdown struct {
	Baseline float64 `json:"baseline"`
	Delta    float64 `json:"delta"`
	Final    float64 `json:"final"`
}

// Simulation is the delta engine's full output (§4.E outputs,
// §6 scenario-simulation-by-delta response shape).
type Simulation struct {
	Baseline  Baseline                  `json:"baseline"`
	Deltas    domain.Deltas             `json:"deltas"`
	Simulated Baseline                  `json:"simulated"`
	Breakdown map[string]FieldBreakdown `json:"breakdown"`
}

// Apply adds deltas to a baseline and clamps each field to its documented
// range (§4.E "Application to baseline"). Deltas themselves are never
// clamped — only the resulting simulated value is.
func Apply(baseline Baseline, deltas domain.Deltas) Simulation {
	finalAQI := domain.Clamp(baseline.AQI+deltas.AQIDelta, minAQI, maxAQI)
	finalTemp := domain.Clamp(baseline.Temperature+deltas.TemperatureDelta, minTemperature, maxTemperature)
	finalHospital := domain.Clamp(baseline.HospitalLoad+deltas.HospitalLoadDelta, minHospitalLoad, maxHospitalLoad)
	finalCrop := domain.Clamp(baseline.CropSupply+deltas.CropSupplyDelta, minCropSupply, maxCropSupply)

	simulated := Baseline{
		AQI:          finalAQI,
		Temperature:  finalTemp,
		HospitalLoad: finalHospital,
		CropSupply:   finalCrop,
	}

	return Simulation{
		Baseline:  baseline,
		Deltas:    deltas,
		Simulated: simulated,
		Breakdown: map[string]FieldBreakdown{
			"aqi":           {Baseline: baseline.AQI, Delta: deltas.AQIDelta, Final: finalAQI},
			"temperature":   {Baseline: baseline.Temperature, Delta: deltas.TemperatureDelta, Final: finalTemp},
			"hospital_load": {Baseline: baseline.HospitalLoad, Delta: deltas.HospitalLoadDelta, Final: finalHospital},
			"crop_supply":   {Baseline: baseline.CropSupply, Delta: deltas.CropSupplyDelta, Final: finalCrop},
		},
	}
}

// Mode selects which of the three delta-source priorities produced a
// simulation's deltas (§4.E "three input modes, in priority order").
type Mode struct {
	Custom       *domain.Deltas
	Prompt       string
	Preset       string
}

// Resolve picks deltas and a source tag from a request following the fixed
// priority order: explicit custom_deltas > custom_prompt > named preset >
// default (all zero). It also returns the ScenarioSignals used, when any
// (nil for the custom and default paths, since those bypass extraction).
func Resolve(m Mode) (domain.Deltas, domain.DeltaSource, *domain.ScenarioSignals) {
	if m.Custom != nil {
		return *m.Custom, domain.SourceCustom, nil
	}
	if m.Prompt != "" {
		signals := ExtractSignals(m.Prompt)
		return SignalsToDeltas(signals), domain.SourcePromptInferred, &signals
	}
	if m.Preset != "" {
		if signals, ok := PresetSignals(m.Preset); ok {
			return SignalsToDeltas(signals), domain.SourcePreset, &signals
		}
	}
	return domain.Deltas{}, domain.SourceDefault, nil
}
