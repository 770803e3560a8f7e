package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveInference_UpdatesResilienceGauge(t *testing.T) {
	ObserveInference(3.5, 72, 0.2, 0.3, 0.1)

	if got := testutil.ToFloat64(ResilienceScore); got != 72 {
		t.Errorf("ResilienceScore = %v, want 72", got)
	}
	if got := testutil.ToFloat64(DomainProbabilityOfHigh.WithLabelValues("environmental")); got != 0.2 {
		t.Errorf("environmental probability_of_high = %v, want 0.2", got)
	}
	if got := testutil.ToFloat64(DomainProbabilityOfHigh.WithLabelValues("health")); got != 0.3 {
		t.Errorf("health probability_of_high = %v, want 0.3", got)
	}
	if got := testutil.ToFloat64(DomainProbabilityOfHigh.WithLabelValues("food")); got != 0.1 {
		t.Errorf("food probability_of_high = %v, want 0.1", got)
	}
}

func TestObserveRateGate_IncrementsCorrectCounter(t *testing.T) {
	before := testutil.ToFloat64(RateGateAdmitted)
	ObserveRateGate(true)
	if got := testutil.ToFloat64(RateGateAdmitted); got != before+1 {
		t.Errorf("RateGateAdmitted = %v, want %v", got, before+1)
	}

	beforeRejected := testutil.ToFloat64(RateGateRejected)
	ObserveRateGate(false)
	if got := testutil.ToFloat64(RateGateRejected); got != beforeRejected+1 {
		t.Errorf("RateGateRejected = %v, want %v", got, beforeRejected+1)
	}
}

func TestSubscriberGaugeAndCounters(t *testing.T) {
	SubscriberCount.Set(3)
	if got := testutil.ToFloat64(SubscriberCount); got != 3 {
		t.Errorf("SubscriberCount = %v, want 3", got)
	}

	before := testutil.ToFloat64(SubscriberDrops)
	SubscriberDrops.Inc()
	if got := testutil.ToFloat64(SubscriberDrops); got != before+1 {
		t.Errorf("SubscriberDrops = %v, want %v", got, before+1)
	}
}
