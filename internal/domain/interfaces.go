package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers. Infrastructure
// implements them; the cascade and orchestration layers depend on them.

// EnvClassifier abstracts the opaque environmental-domain model (§4.B).
type EnvClassifier interface {
	PredictProba(f EnvFeatures) (RiskLevel, Distribution)
}

// HealthClassifier abstracts the opaque health-domain model (§4.B).
type HealthClassifier interface {
	PredictProba(f HealthFeatures) (RiskLevel, Distribution)
}

// FoodClassifier abstracts the opaque food-domain model (§4.B).
type FoodClassifier interface {
	PredictProba(f FoodFeatures) (RiskLevel, Distribution)
}
