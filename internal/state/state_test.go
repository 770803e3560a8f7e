package state

import (
	"testing"
	"time"

	"riskcore/internal/cascade"
	"riskcore/internal/classifier"
	"riskcore/internal/domain"
	"riskcore/internal/preprocessor"
)

func f(v float64) *float64 { return &v }

func testManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	engine := cascade.New(preprocessor.New(), classifier.New(), cascade.WithClock(clock.Now))
	return New(engine, DefaultConfig(), WithClock(clock.Now))
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)}
}

func TestUpdateEnvironmental_ReportsChange(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	changed := m.UpdateEnvironmental(domain.RawMetrics{AQI: f(120)})
	if !changed {
		t.Errorf("expected first update to report changed=true")
	}

	unchanged := m.UpdateEnvironmental(domain.RawMetrics{AQI: f(120)})
	if unchanged {
		t.Errorf("expected repeating the same value to report changed=false")
	}

	changedAgain := m.UpdateEnvironmental(domain.RawMetrics{AQI: f(200)})
	if !changedAgain {
		t.Errorf("expected a different value to report changed=true")
	}
}

func TestGetMergedState_DefaultsEmptySlots(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	merged, confidence := m.GetMergedState()
	if merged.AQI == nil || *merged.AQI != preprocessor.DefaultAQI {
		t.Errorf("AQI = %v, want the documented default %v for a never-updated slot", merged.AQI, preprocessor.DefaultAQI)
	}
	if merged.Temperature == nil || *merged.Temperature != preprocessor.DefaultTemperature {
		t.Errorf("Temperature = %v, want the documented default %v", merged.Temperature, preprocessor.DefaultTemperature)
	}
	if merged.HospitalLoad == nil || *merged.HospitalLoad != preprocessor.DefaultHospitalLoad {
		t.Errorf("HospitalLoad = %v, want the documented default %v", merged.HospitalLoad, preprocessor.DefaultHospitalLoad)
	}
	if merged.RespiratoryCases == nil || *merged.RespiratoryCases != preprocessor.DefaultRespiratoryCases {
		t.Errorf("RespiratoryCases = %v, want the documented default %v", merged.RespiratoryCases, preprocessor.DefaultRespiratoryCases)
	}
	if merged.CropSupplyIndex == nil || *merged.CropSupplyIndex != preprocessor.DefaultCropSupplyIndex {
		t.Errorf("CropSupplyIndex = %v, want the documented default %v", merged.CropSupplyIndex, preprocessor.DefaultCropSupplyIndex)
	}
	if confidence != 0.5 {
		t.Errorf("confidence for never-updated slots = %v, want 0.5", confidence)
	}
}

func TestHasLiveData_FalseUntilAnySlotUpdated(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	if m.HasLiveData() {
		t.Errorf("expected HasLiveData=false before any update")
	}
	m.UpdateFood(domain.RawMetrics{CropSupplyIndex: f(55)})
	if !m.HasLiveData() {
		t.Errorf("expected HasLiveData=true after an update")
	}
}

func TestGetMergedState_CombinesAllSlots(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	m.UpdateEnvironmental(domain.RawMetrics{AQI: f(150), Temperature: f(30)})
	m.UpdateHealth(domain.RawMetrics{HospitalLoad: f(0.7)})
	m.UpdateFood(domain.RawMetrics{CropSupplyIndex: f(60)})

	merged, _ := m.GetMergedState()
	if merged.AQI == nil || *merged.AQI != 150 {
		t.Errorf("AQI = %v, want 150 from env slot", merged.AQI)
	}
	if merged.HospitalLoad == nil || *merged.HospitalLoad != 0.7 {
		t.Errorf("HospitalLoad = %v, want 0.7 from health slot", merged.HospitalLoad)
	}
	if merged.CropSupplyIndex == nil || *merged.CropSupplyIndex != 60 {
		t.Errorf("CropSupplyIndex = %v, want 60 from food slot", merged.CropSupplyIndex)
	}
}

// TestFreshnessMonotonicity is the §8 quantified invariant: with now fixed,
// freshness is a monotone non-increasing function of age.
func TestFreshnessMonotonicity(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	ages := []time.Duration{
		30 * time.Second,
		10 * time.Minute,
		3 * 24 * time.Hour,
		10 * 24 * time.Hour,
	}
	rank := map[Freshness]int{FreshnessLive: 3, FreshnessRecent: 2, FreshnessCached: 1, FreshnessEstimated: 0}

	prevRank := 4
	for _, age := range ages {
		label := FreshnessLabel(now, now.Add(-age), true)
		r := rank[label]
		if r > prevRank {
			t.Errorf("freshness rank increased with age %v: %v", age, label)
		}
		prevRank = r
	}
}

func TestFreshnessConfidence_Bands(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)
	m.UpdateEnvironmental(domain.RawMetrics{AQI: f(100)})

	_, confidence := m.GetMergedState()
	if confidence != (1.0+0.5+0.5)/3 {
		t.Errorf("confidence = %v, want averaged 1.0 for env and 0.5 for never-updated health/food", confidence)
	}

	clock.Advance(90 * time.Second)
	_, confidence = m.GetMergedState()
	if confidence != (0.8+0.5+0.5)/3 {
		t.Errorf("confidence after 90s = %v, want 0.8 for env band", confidence)
	}
}

// TestRateGate is the §8 quantified invariant: across any 1s window, the
// number of inferences executed is <= MAX_INFERENCE_RATE.
func TestRateGate(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	admitted := 0
	for i := 0; i < 10; i++ {
		m.UpdateEnvironmental(domain.RawMetrics{AQI: f(100 + float64(i))})
		outcome := m.RunInference()
		if !outcome.RateLimited {
			admitted++
		}
	}

	if admitted > 2 {
		t.Errorf("inferences admitted within 1s = %v, want <= 2 (MAX_INFERENCE_RATE)", admitted)
	}
	if len(m.GetPredictionHistory()) != admitted {
		t.Errorf("history length = %v, want to equal admitted count %v", len(m.GetPredictionHistory()), admitted)
	}
}

func TestRateGate_AdmitsAfterMinInterval(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	m.UpdateEnvironmental(domain.RawMetrics{AQI: f(100)})
	first := m.RunInference()
	if first.RateLimited {
		t.Fatalf("expected first inference to be admitted")
	}

	clock.Advance(600 * time.Millisecond)
	m.UpdateEnvironmental(domain.RawMetrics{AQI: f(110)})
	second := m.RunInference()
	if second.RateLimited {
		t.Errorf("expected inference to be admitted after the minimum interval elapsed")
	}
}

// TestRollingHistoryBound is the §8 quantified invariant: history length is
// always <= WINDOW_SIZE.
func TestRollingHistoryBound(t *testing.T) {
	clock := newFakeClock()
	engine := cascade.New(preprocessor.New(), classifier.New(), cascade.WithClock(clock.Now))
	m := New(engine, Config{WindowSize: 3, MaxInferenceRate: 1000}, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		m.UpdateEnvironmental(domain.RawMetrics{AQI: f(100 + float64(i))})
		m.RunInference()
	}

	history := m.GetPredictionHistory()
	if len(history) != 3 {
		t.Errorf("history length = %v, want bounded at WindowSize=3", len(history))
	}
}

func TestGetTrendSummary_InsufficientHistory(t *testing.T) {
	clock := newFakeClock()
	m := testManager(t, clock)

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		m.UpdateEnvironmental(domain.RawMetrics{AQI: f(100)})
		m.RunInference()
	}

	summary := m.GetTrendSummary()
	if summary.Available {
		t.Errorf("expected trend summary to be unavailable with fewer than 5 records")
	}
}

func TestGetTrendSummary_DetectsIncreasingTrend(t *testing.T) {
	clock := newFakeClock()
	engine := cascade.New(preprocessor.New(), classifier.New(), cascade.WithClock(clock.Now))
	m := New(engine, Config{WindowSize: 60, MaxInferenceRate: 1000}, WithClock(clock.Now))

	// Ten calm updates, then five sharply escalating ones: recent mean
	// probability-of-high should rise well above the prior window's mean.
	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		m.UpdateEnvironmental(domain.RawMetrics{AQI: f(60), TrafficDensity: f(0), Temperature: f(22), Rainfall: f(40)})
		m.RunInference()
	}
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		m.UpdateEnvironmental(domain.RawMetrics{AQI: f(320)})
		m.RunInference()
	}

	summary := m.GetTrendSummary()
	if !summary.Available {
		t.Fatalf("expected trend summary to be available with 15 records")
	}
	if summary.Environmental.Direction != TrendIncreasing {
		t.Errorf("environmental trend direction = %v, want increasing", summary.Environmental.Direction)
	}
	if summary.Environmental.Change <= 0 {
		t.Errorf("environmental trend change = %v, want positive", summary.Environmental.Change)
	}
}

type recordingBroadcaster struct {
	received []domain.Prediction
}

func (r *recordingBroadcaster) Broadcast(p domain.Prediction) {
	r.received = append(r.received, p)
}

func TestRunInference_BroadcastsOnlyAdmittedPredictions(t *testing.T) {
	clock := newFakeClock()
	engine := cascade.New(preprocessor.New(), classifier.New(), cascade.WithClock(clock.Now))
	rec := &recordingBroadcaster{}
	m := New(engine, DefaultConfig(), WithClock(clock.Now), WithBroadcaster(rec))

	for i := 0; i < 10; i++ {
		m.UpdateEnvironmental(domain.RawMetrics{AQI: f(100 + float64(i))})
		m.RunInference()
	}

	if len(rec.received) > 2 {
		t.Errorf("broadcast count = %v, want <= 2 matching the rate gate", len(rec.received))
	}
}
