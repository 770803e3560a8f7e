// Package state implements §4.G: the real-time state manager. It owns the
// three per-domain latest-observation slots and the bounded rolling history
// of predictions, enforces the rate gate on inference, and computes
// data-freshness-driven confidence and trend summaries.
//
// Concurrency follows §5's shared-state realization: a single mutex guards
// the slots, the rolling history, and the rate-gate timestamp. The lock is
// never held across a classifier call or a subscriber delivery — Broadcast
// is invoked after the lock is released.
package state

import (
	"sync"
	"time"

	"riskcore/internal/cascade"
	"riskcore/internal/domain"
	"riskcore/internal/infra/observability"
	"riskcore/internal/preprocessor"
)

// Config holds the tunable constants named in §6 ("Environment/configuration").
type Config struct {
	// WindowSize bounds the rolling history (§3 WINDOW_SIZE).
	WindowSize int
	// MaxInferenceRate is the maximum number of inferences per second the
	// rate gate admits (§4.G MAX_INFERENCE_RATE).
	MaxInferenceRate float64
}

// DefaultConfig returns the configuration fixed by the specification.
func DefaultConfig() Config {
	return Config{WindowSize: 60, MaxInferenceRate: 2.0}
}

func (c Config) minInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.MaxInferenceRate)
}

// Freshness labels (§3).
type Freshness string

const (
	FreshnessLive      Freshness = "live"
	FreshnessRecent    Freshness = "recent"
	FreshnessCached    Freshness = "cached"
	FreshnessEstimated Freshness = "estimated"
)

// slot is one domain's latest observation.
type slot struct {
	metrics   domain.RawMetrics
	updatedAt time.Time
	hasData   bool
}

// Broadcaster delivers a freshly produced prediction to fan-out subscribers
// (§4.H). It is invoked outside the state manager's lock.
type Broadcaster interface {
	Broadcast(domain.Prediction)
}

// noopBroadcaster is used when no broadcaster has been attached.
type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(domain.Prediction) {}

// Manager is the single logical owner of per-domain state and rolling
// history (§3 "Ownership"). All other components are stateless.
type Manager struct {
	mu sync.Mutex

	env, health, food slot
	history           []domain.Prediction
	lastInferenceAt   time.Time

	config      Config
	engine      *cascade.Engine
	now         func() time.Time
	broadcaster Broadcaster
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithClock overrides the manager's time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithBroadcaster attaches the fan-out hub that receives every new
// prediction.
func WithBroadcaster(b Broadcaster) Option {
	return func(m *Manager) { m.broadcaster = b }
}

// SetBroadcaster attaches a broadcaster after construction — the fan-out
// hub itself is typically constructed from a *Manager, so the two cannot
// always be wired through functional options alone.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcaster = b
}

// New constructs a Manager over the given cascade engine.
func New(engine *cascade.Engine, config Config, opts ...Option) *Manager {
	m := &Manager{
		config:      config,
		engine:      engine,
		now:         time.Now,
		broadcaster: noopBroadcaster{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UpdateEnvironmental merges non-nil environmental fields into the env slot,
// stamping with now. Returns whether anything changed.
func (m *Manager) UpdateEnvironmental(fields domain.RawMetrics) bool {
	return m.update(&m.env, fields)
}

// UpdateHealth merges non-nil health fields into the health slot.
func (m *Manager) UpdateHealth(fields domain.RawMetrics) bool {
	return m.update(&m.health, fields)
}

// UpdateFood merges non-nil food fields into the food slot.
func (m *Manager) UpdateFood(fields domain.RawMetrics) bool {
	return m.update(&m.food, fields)
}

func (m *Manager) update(s *slot, fields domain.RawMetrics) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := s.metrics
	merged := s.metrics.Merge(fields)
	changed := !rawMetricsEqual(before, merged)
	s.metrics = merged
	s.updatedAt = m.now()
	s.hasData = true
	return changed
}

// rawMetricsEqual compares two metric bags by value, dereferencing
// pointers rather than comparing addresses (the struct's pointer fields
// make `==` compare identity, not content).
func rawMetricsEqual(a, b domain.RawMetrics) bool {
	return floatPtrEqual(a.AQI, b.AQI) &&
		floatPtrEqual(a.TrafficDensity, b.TrafficDensity) &&
		floatPtrEqual(a.Temperature, b.Temperature) &&
		floatPtrEqual(a.Rainfall, b.Rainfall) &&
		floatPtrEqual(a.HospitalLoad, b.HospitalLoad) &&
		floatPtrEqual(a.RespiratoryCases, b.RespiratoryCases) &&
		floatPtrEqual(a.CropSupplyIndex, b.CropSupplyIndex) &&
		floatPtrEqual(a.FoodPriceIndex, b.FoodPriceIndex) &&
		floatPtrEqual(a.SupplyDisruptionEvents, b.SupplyDisruptionEvents)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// GetMergedState combines all three slots into one metric bag, substituting
// documented defaults for any slot that has never been updated, plus the
// aggregate data-freshness confidence averaged across the three domains.
func (m *Manager) GetMergedState() (domain.RawMetrics, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mergedStateLocked(m.now())
}

// freshnessConfidence computes a single slot's data-freshness confidence
// per §4.G's fixed bands.
func freshnessConfidence(now time.Time, s slot) float64 {
	if !s.hasData {
		return 0.5
	}
	age := now.Sub(s.updatedAt)
	switch {
	case age < 60*time.Second:
		return 1.0
	case age < 120*time.Second:
		return 0.8
	case age < 300*time.Second:
		return 0.5
	default:
		return 0.3
	}
}

// FreshnessLabel classifies an observation's age (§3).
func FreshnessLabel(now, observedAt time.Time, hasTimestamp bool) Freshness {
	if !hasTimestamp {
		return FreshnessEstimated
	}
	age := now.Sub(observedAt)
	switch {
	case age < time.Hour:
		return FreshnessLive
	case age < 24*time.Hour:
		return FreshnessRecent
	case age < 7*24*time.Hour:
		return FreshnessCached
	default:
		return FreshnessEstimated
	}
}

// InferenceOutcome reports what RunInference did.
type InferenceOutcome struct {
	RateLimited bool
	Prediction  domain.Prediction
}

// RunInference enforces the rate gate (§4.G) and, if admitted, runs the
// cascade over the merged state, attaches data-freshness confidence,
// appends to the rolling history, and broadcasts to subscribers.
//
// The rate gate rejects rather than queues: a request denied here produces
// no prediction and is not retried internally (§7 RateGateRejection).
func (m *Manager) RunInference() InferenceOutcome {
	m.mu.Lock()
	now := m.now()
	if !m.lastInferenceAt.IsZero() && now.Sub(m.lastInferenceAt) < m.config.minInterval() {
		m.mu.Unlock()
		observability.ObserveRateGate(false)
		return InferenceOutcome{RateLimited: true}
	}
	m.lastInferenceAt = now

	merged, freshness := m.mergedStateLocked(now)
	m.mu.Unlock()
	observability.ObserveRateGate(true)

	start := m.now()
	pred := m.engine.Infer(merged)
	pred.InferenceDurationMs = m.now().Sub(start).Milliseconds()
	pred.OverallConfidence = freshness

	m.mu.Lock()
	m.history = append(m.history, pred)
	if len(m.history) > m.config.WindowSize {
		m.history = m.history[len(m.history)-m.config.WindowSize:]
	}
	historyLen := len(m.history)
	m.mu.Unlock()

	observability.ObserveInference(
		float64(pred.InferenceDurationMs),
		pred.ResilienceScore,
		pred.Environmental.ProbabilityOfHigh,
		pred.Health.ProbabilityOfHigh,
		pred.Food.ProbabilityOfHigh,
	)
	observability.RollingHistoryLength.Set(float64(historyLen))
	observability.DataFreshnessConfidence.Set(freshness)

	m.broadcaster.Broadcast(pred)

	return InferenceOutcome{Prediction: pred}
}

// mergedStateLocked is GetMergedState's body, callable while already
// holding the lock.
func (m *Manager) mergedStateLocked(now time.Time) (domain.RawMetrics, float64) {
	merged := domain.RawMetrics{}.Merge(m.env.metrics).Merge(m.health.metrics).Merge(m.food.metrics)
	merged = withStateDefaults(merged)
	confidences := [3]float64{
		freshnessConfidence(now, m.env),
		freshnessConfidence(now, m.health),
		freshnessConfidence(now, m.food),
	}
	return merged, (confidences[0] + confidences[1] + confidences[2]) / 3
}

// withStateDefaults substitutes the documented §4.G defaults (aqi 100,
// temperature 25, hospital_load 0.5, respiratory_cases 100, supply_index
// 80) for any field still empty after merging the three slots, so
// get_merged_state always returns a fully-populated bag. The values match
// the preprocessor's own defaults, so downstream scoring is unaffected.
func withStateDefaults(m domain.RawMetrics) domain.RawMetrics {
	if m.AQI == nil {
		v := preprocessor.DefaultAQI
		m.AQI = &v
	}
	if m.Temperature == nil {
		v := preprocessor.DefaultTemperature
		m.Temperature = &v
	}
	if m.HospitalLoad == nil {
		v := preprocessor.DefaultHospitalLoad
		m.HospitalLoad = &v
	}
	if m.RespiratoryCases == nil {
		v := preprocessor.DefaultRespiratoryCases
		m.RespiratoryCases = &v
	}
	if m.CropSupplyIndex == nil {
		v := preprocessor.DefaultCropSupplyIndex
		m.CropSupplyIndex = &v
	}
	return m
}

// Snapshot is the current-state query response (§6 "current snapshot"): the
// merged metric bag plus a freshness label per domain slot and the blended
// data-freshness confidence.
type Snapshot struct {
	Metrics                domain.RawMetrics `json:"metrics"`
	EnvironmentalFreshness Freshness         `json:"environmental_freshness"`
	HealthFreshness        Freshness         `json:"health_freshness"`
	FoodFreshness          Freshness         `json:"food_freshness"`
	OverallConfidence      float64           `json:"overall_confidence"`
}

// HasLiveData reports whether any of the three domain slots has ever
// received a real update, as opposed to running entirely on
// get_merged_state's substituted defaults.
func (m *Manager) HasLiveData() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.env.hasData || m.health.hasData || m.food.hasData
}

// GetSnapshot reports the merged state together with per-domain freshness
// labels, for the current-snapshot query endpoint.
func (m *Manager) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	merged, confidence := m.mergedStateLocked(now)
	return Snapshot{
		Metrics:                merged,
		EnvironmentalFreshness: FreshnessLabel(now, m.env.updatedAt, m.env.hasData),
		HealthFreshness:        FreshnessLabel(now, m.health.updatedAt, m.health.hasData),
		FoodFreshness:          FreshnessLabel(now, m.food.updatedAt, m.food.hasData),
		OverallConfidence:      confidence,
	}
}

// GetPredictionHistory returns a read-only snapshot of the rolling history.
func (m *Manager) GetPredictionHistory() []domain.Prediction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Prediction, len(m.history))
	copy(out, m.history)
	return out
}

// TrendDirection classifies the change in mean probability-of-high between
// two windows (§4.G).
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// DomainTrend is one domain's trend summary.
type DomainTrend struct {
	Current   float64        `json:"current"`
	Change    float64        `json:"change"`
	Direction TrendDirection `json:"direction"`
}

// TrendSummary is the trend report across all three domains.
type TrendSummary struct {
	Available     bool        `json:"available"`
	Environmental DomainTrend `json:"environmental"`
	Health        DomainTrend `json:"health"`
	Food          DomainTrend `json:"food"`
}

const trendThreshold = 0.05

// GetTrendSummary compares the mean probability-of-high of the latest 5
// records against the mean of the prior 5-to-15 records (§4.G). Requires
// at least 5 records; returns Available=false otherwise.
func (m *Manager) GetTrendSummary() TrendSummary {
	m.mu.Lock()
	history := make([]domain.Prediction, len(m.history))
	copy(history, m.history)
	m.mu.Unlock()

	if len(history) < 5 {
		return TrendSummary{Available: false}
	}

	latest := history[len(history)-5:]
	priorStart := len(history) - 15
	if priorStart < 0 {
		priorStart = 0
	}
	priorEnd := len(history) - 5
	prior := history[priorStart:priorEnd]

	return TrendSummary{
		Available:     true,
		Environmental: domainTrend(latest, prior, func(p domain.Prediction) float64 { return p.Environmental.ProbabilityOfHigh }),
		Health:        domainTrend(latest, prior, func(p domain.Prediction) float64 { return p.Health.ProbabilityOfHigh }),
		Food:          domainTrend(latest, prior, func(p domain.Prediction) float64 { return p.Food.ProbabilityOfHigh }),
	}
}

func domainTrend(latest, prior []domain.Prediction, extract func(domain.Prediction) float64) DomainTrend {
	currentMean := mean(latest, extract)
	change := 0.0
	if len(prior) > 0 {
		change = currentMean - mean(prior, extract)
	}

	direction := TrendStable
	switch {
	case change > trendThreshold:
		direction = TrendIncreasing
	case change < -trendThreshold:
		direction = TrendDecreasing
	}

	return DomainTrend{Current: currentMean, Change: change, Direction: direction}
}

func mean(preds []domain.Prediction, extract func(domain.Prediction) float64) float64 {
	if len(preds) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range preds {
		sum += extract(p)
	}
	return sum / float64(len(preds))
}
