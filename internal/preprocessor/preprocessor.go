// Package preprocessor implements §4.A of the risk model: normalizing,
// defaulting, clipping, and unit-converting per-domain metric bags into
// fully-populated, bounded feature vectors. It is a total function — it
// never fails, and it is deterministic.
package preprocessor

import (
	"fmt"

	"riskcore/internal/domain"
)

// Domain defaults, chosen to mirror a calm/neutral urban baseline. These are
// also the values the real-time state manager (§4.G) substitutes for an
// empty domain slot, so a freshly booted process and a never-updated domain
// score identically.
const (
	DefaultAQI                    = 100.0
	DefaultTrafficDensity         = 1.0
	DefaultTemperature            = 25.0
	DefaultRainfall               = 20.0
	DefaultHospitalLoad           = 0.5
	DefaultRespiratoryCases       = 100.0
	DefaultCropSupplyIndex        = 80.0
	DefaultFoodPriceIndex         = 100.0
	DefaultSupplyDisruptionEvents = 0.0
)

// Bounds, per §3.
const (
	minAQI, maxAQI                             = 0.0, 500.0
	minTrafficDensity, maxTrafficDensity       = 0.0, 2.0
	minTemperature, maxTemperature             = 0.0, 50.0
	minRainfall, maxRainfall                   = 0.0, 200.0
	minHospitalLoad, maxHospitalLoad           = 0.0, 1.0
	minRespiratoryCases, maxRespiratoryCases   = 0.0, 10000.0
	minCropSupplyIndex, maxCropSupplyIndex     = 0.0, 100.0
	minFoodPriceIndex, maxFoodPriceIndex       = 50.0, 200.0
	minSupplyDisruption, maxSupplyDisruption   = 0.0, 10.0

	// kelvinThreshold: a temperature reading above this is assumed to be
	// given in Kelvin rather than Celsius.
	kelvinThreshold = 200.0
	kelvinOffset    = 273.15

	// percentThreshold: a hospital_load reading above this is assumed to be
	// a percentage rather than a [0,1] ratio.
	percentThreshold = 1.0
)

// Preprocessor turns permissive raw metric bags into closed, bounded
// feature vectors, one domain at a time.
type Preprocessor struct{}

// New creates a Preprocessor. It holds no state — preprocessing is a pure
// function of its inputs.
func New() *Preprocessor { return &Preprocessor{} }

// Environmental produces the environmental domain's feature vector.
func (p *Preprocessor) Environmental(raw domain.RawMetrics) (domain.EnvFeatures, []string) {
	var assumptions []string

	aqi, a := resolve(raw.AQI, DefaultAQI, "aqi")
	assumptions = appendIf(assumptions, a)
	aqi, a = clip(aqi, minAQI, maxAQI, "aqi")
	assumptions = appendIf(assumptions, a)

	traffic, a := resolve(raw.TrafficDensity, DefaultTrafficDensity, "traffic_density")
	assumptions = appendIf(assumptions, a)
	traffic, a = clip(traffic, minTrafficDensity, maxTrafficDensity, "traffic_density")
	assumptions = appendIf(assumptions, a)

	temp, a := resolve(raw.Temperature, DefaultTemperature, "temperature")
	assumptions = appendIf(assumptions, a)
	temp, a = convertKelvin(temp)
	assumptions = appendIf(assumptions, a)
	temp, a = clip(temp, minTemperature, maxTemperature, "temperature")
	assumptions = appendIf(assumptions, a)

	rain, a := resolve(raw.Rainfall, DefaultRainfall, "rainfall")
	assumptions = appendIf(assumptions, a)
	rain, a = clip(rain, minRainfall, maxRainfall, "rainfall")
	assumptions = appendIf(assumptions, a)

	return domain.EnvFeatures{
		AQI:            aqi,
		TrafficDensity: traffic,
		Temperature:    temp,
		Rainfall:       rain,
	}, assumptions
}

// Health produces the health domain's feature vector. EnvironmentalRiskProb
// is left at zero — it is supplied exclusively by the cascade (§4.C step 3),
// never by the caller, so the preprocessor has nothing to default there.
func (p *Preprocessor) Health(raw domain.RawMetrics) (domain.HealthFeatures, []string) {
	var assumptions []string

	aqi, a := resolve(raw.AQI, DefaultAQI, "aqi")
	assumptions = appendIf(assumptions, a)
	aqi, a = clip(aqi, minAQI, maxAQI, "aqi")
	assumptions = appendIf(assumptions, a)

	load, a := resolve(raw.HospitalLoad, DefaultHospitalLoad, "hospital_load")
	assumptions = appendIf(assumptions, a)
	load, a = convertPercent(load)
	assumptions = appendIf(assumptions, a)
	load, a = clip(load, minHospitalLoad, maxHospitalLoad, "hospital_load")
	assumptions = appendIf(assumptions, a)

	cases, a := resolve(raw.RespiratoryCases, DefaultRespiratoryCases, "respiratory_cases")
	assumptions = appendIf(assumptions, a)
	cases, a = clip(cases, minRespiratoryCases, maxRespiratoryCases, "respiratory_cases")
	assumptions = appendIf(assumptions, a)

	temp, a := resolve(raw.Temperature, DefaultTemperature, "temperature")
	assumptions = appendIf(assumptions, a)
	temp, a = convertKelvin(temp)
	assumptions = appendIf(assumptions, a)
	temp, a = clip(temp, minTemperature, maxTemperature, "temperature")
	assumptions = appendIf(assumptions, a)

	return domain.HealthFeatures{
		AQI:              aqi,
		HospitalLoad:     load,
		RespiratoryCases: cases,
		Temperature:      temp,
	}, assumptions
}

// Food produces the food domain's feature vector.
func (p *Preprocessor) Food(raw domain.RawMetrics) (domain.FoodFeatures, []string) {
	var assumptions []string

	crop, a := resolve(raw.CropSupplyIndex, DefaultCropSupplyIndex, "crop_supply_index")
	assumptions = appendIf(assumptions, a)
	crop, a = clip(crop, minCropSupplyIndex, maxCropSupplyIndex, "crop_supply_index")
	assumptions = appendIf(assumptions, a)

	price, a := resolve(raw.FoodPriceIndex, DefaultFoodPriceIndex, "food_price_index")
	assumptions = appendIf(assumptions, a)
	price, a = clip(price, minFoodPriceIndex, maxFoodPriceIndex, "food_price_index")
	assumptions = appendIf(assumptions, a)

	rain, a := resolve(raw.Rainfall, DefaultRainfall, "rainfall")
	assumptions = appendIf(assumptions, a)
	rain, a = clip(rain, minRainfall, maxRainfall, "rainfall")
	assumptions = appendIf(assumptions, a)

	temp, a := resolve(raw.Temperature, DefaultTemperature, "temperature")
	assumptions = appendIf(assumptions, a)
	temp, a = convertKelvin(temp)
	assumptions = appendIf(assumptions, a)
	temp, a = clip(temp, minTemperature, maxTemperature, "temperature")
	assumptions = appendIf(assumptions, a)

	disruption, a := resolve(raw.SupplyDisruptionEvents, DefaultSupplyDisruptionEvents, "supply_disruption_events")
	assumptions = appendIf(assumptions, a)
	disruption, a = clip(disruption, minSupplyDisruption, maxSupplyDisruption, "supply_disruption_events")
	assumptions = appendIf(assumptions, a)

	return domain.FoodFeatures{
		CropSupplyIndex:        crop,
		FoodPriceIndex:         price,
		Rainfall:               rain,
		Temperature:            temp,
		SupplyDisruptionEvents: disruption,
	}, assumptions
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// resolve returns *v if present, otherwise the default, recording an
// assumption in the latter case.
func resolve(v *float64, def float64, field string) (float64, string) {
	if v == nil {
		return def, fmt.Sprintf("%s defaulted to %v (missing)", field, def)
	}
	return *v, ""
}

// clip restricts v to [lo, hi], recording an assumption if it changed v.
func clip(v, lo, hi float64, field string) (float64, string) {
	c := domain.Clamp(v, lo, hi)
	if c != v {
		return c, fmt.Sprintf("%s clipped from %v to %v", field, v, c)
	}
	return c, ""
}

// convertKelvin converts a Kelvin reading to Celsius when it looks like one.
func convertKelvin(temp float64) (float64, string) {
	if temp > kelvinThreshold {
		return temp - kelvinOffset, fmt.Sprintf("temperature %.1f interpreted as Kelvin, converted to Celsius", temp)
	}
	return temp, ""
}

// convertPercent converts a hospital_load reading given as a percent (>1)
// into a [0,1] ratio.
func convertPercent(load float64) (float64, string) {
	if load > percentThreshold {
		return load / 100.0, fmt.Sprintf("hospital_load %.2f interpreted as percent, converted to ratio", load)
	}
	return load, ""
}

func appendIf(assumptions []string, a string) []string {
	if a == "" {
		return assumptions
	}
	return append(assumptions, a)
}
