package preprocessor

import (
	"math"
	"testing"

	"riskcore/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestEnvironmentalDefaults(t *testing.T) {
	p := New()
	feat, assumptions := p.Environmental(domain.RawMetrics{})

	if feat.AQI != DefaultAQI {
		t.Errorf("AQI = %v, want default %v", feat.AQI, DefaultAQI)
	}
	if feat.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v, want default %v", feat.Temperature, DefaultTemperature)
	}
	if len(assumptions) == 0 {
		t.Errorf("expected assumptions to be recorded for an empty metric bag")
	}
}

func TestEnvironmentalKelvinConversion(t *testing.T) {
	p := New()
	feat, assumptions := p.Environmental(domain.RawMetrics{Temperature: f(300)})

	want := 300 - kelvinOffset
	if math.Abs(feat.Temperature-want) > 1e-9 {
		t.Errorf("Temperature = %v, want %v", feat.Temperature, want)
	}
	if len(assumptions) == 0 {
		t.Errorf("expected a Kelvin-conversion assumption")
	}
}

func TestEnvironmentalClipsAQI(t *testing.T) {
	p := New()
	feat, assumptions := p.Environmental(domain.RawMetrics{AQI: f(9000)})
	if feat.AQI != maxAQI {
		t.Errorf("AQI = %v, want clipped to %v", feat.AQI, maxAQI)
	}
	if len(assumptions) == 0 {
		t.Errorf("expected a clip assumption")
	}
}

func TestHealthPercentConversion(t *testing.T) {
	p := New()
	feat, assumptions := p.Health(domain.RawMetrics{HospitalLoad: f(82)})
	if math.Abs(feat.HospitalLoad-0.82) > 1e-9 {
		t.Errorf("HospitalLoad = %v, want 0.82", feat.HospitalLoad)
	}
	if len(assumptions) == 0 {
		t.Errorf("expected a percent-conversion assumption")
	}
}

func TestHealthRatioPassesThroughUnchanged(t *testing.T) {
	p := New()
	feat, _ := p.Health(domain.RawMetrics{HospitalLoad: f(0.45)})
	if feat.HospitalLoad != 0.45 {
		t.Errorf("HospitalLoad = %v, want 0.45 unchanged", feat.HospitalLoad)
	}
}

func TestFoodBoundsAllFields(t *testing.T) {
	p := New()
	feat, _ := p.Food(domain.RawMetrics{
		CropSupplyIndex:        f(-50),
		FoodPriceIndex:         f(9999),
		SupplyDisruptionEvents: f(999),
	})
	if feat.CropSupplyIndex < minCropSupplyIndex || feat.CropSupplyIndex > maxCropSupplyIndex {
		t.Errorf("CropSupplyIndex out of bounds: %v", feat.CropSupplyIndex)
	}
	if feat.FoodPriceIndex < minFoodPriceIndex || feat.FoodPriceIndex > maxFoodPriceIndex {
		t.Errorf("FoodPriceIndex out of bounds: %v", feat.FoodPriceIndex)
	}
	if feat.SupplyDisruptionEvents < minSupplyDisruption || feat.SupplyDisruptionEvents > maxSupplyDisruption {
		t.Errorf("SupplyDisruptionEvents out of bounds: %v", feat.SupplyDisruptionEvents)
	}
}

func TestValidInputsPassThroughUnchanged(t *testing.T) {
	p := New()
	feat, assumptions := p.Environmental(domain.RawMetrics{
		AQI:            f(60),
		TrafficDensity: f(1),
		Temperature:    f(22),
		Rainfall:       f(10),
	})
	if len(assumptions) != 0 {
		t.Errorf("expected no assumptions for already-valid input, got %v", assumptions)
	}
	if feat.AQI != 60 || feat.TrafficDensity != 1 || feat.Temperature != 22 || feat.Rainfall != 10 {
		t.Errorf("valid input was mutated: %+v", feat)
	}
}
