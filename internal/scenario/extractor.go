// Package scenario implements §4.D (deterministic signal extraction from
// free text) and §4.E (the delta engine that composes signals, presets, and
// custom overrides into bounded metric deltas applied to a live baseline).
package scenario

import (
	"strings"

	"riskcore/internal/domain"
)

// eventKeyword pairs a primary event with the substrings that trigger it.
// Order is fixed so extraction is deterministic and reproducible across
// runs, independent of any map iteration order.
type eventKeyword struct {
	event    domain.PrimaryEvent
	keywords []string
}

var eventKeywords = []eventKeyword{
	{domain.EventFlood, []string{"flood", "flooding", "monsoon", "inundat"}},
	{domain.EventHeatwave, []string{"heatwave", "heat wave", "scorching", "extreme heat"}},
	{domain.EventDrought, []string{"drought", "dry spell", "water scarcity"}},
	{domain.EventPollution, []string{"smog", "pollution", "haze", "toxic air"}},
	{domain.EventCyclone, []string{"cyclone", "hurricane", "typhoon", "storm surge"}},
}

var highSeverityKeywords = []string{"severe", "extreme", "catastrophic", "critical", "intense"}
var lowSeverityKeywords = []string{"mild", "minor", "slight", "limited"}

var prolongedDurationKeywords = []string{"prolonged", "extended", "weeks", "long-term", "sustained"}
var shortDurationKeywords = []string{"brief", "short-lived", "sudden", "temporary"}

type impactKeyword struct {
	impact   domain.SecondaryImpact
	keywords []string
}

var impactKeywords = []impactKeyword{
	{domain.ImpactTransportDisruption, []string{"transport disruption", "disrupts transport", "road closure", "traffic disruption", "transportation"}},
	{domain.ImpactHospitalAccessReduced, []string{"hospital access", "hospital capacity", "medical access", "healthcare access"}},
	{domain.ImpactPowerOutage, []string{"power outage", "blackout", "power failure", "electricity disruption"}},
	{domain.ImpactWaterShortage, []string{"water shortage", "water crisis"}},
	{domain.ImpactFoodSupplyDisruption, []string{"food supply", "food shortage", "food disruption"}},
}

// ExtractSignals deterministically maps free text to ScenarioSignals
// (§4.D). It is a pure function of its input: case-folded substring
// matching against fixed keyword tables, no randomness, no external
// lookups.
func ExtractSignals(prompt string) domain.ScenarioSignals {
	text := strings.ToLower(prompt)

	var primary []domain.PrimaryEvent
	for _, ek := range eventKeywords {
		if containsAny(text, ek.keywords) {
			primary = append(primary, ek.event)
		}
	}
	eventMatches := len(primary)
	if len(primary) == 0 {
		primary = []domain.PrimaryEvent{domain.EventNone}
	}

	severity := domain.SeverityModerate
	switch {
	case containsAny(text, highSeverityKeywords):
		severity = domain.SeverityHigh
	case containsAny(text, lowSeverityKeywords):
		severity = domain.SeverityLow
	}

	duration := domain.DurationModerate
	switch {
	case containsAny(text, prolongedDurationKeywords):
		duration = domain.DurationProlonged
	case containsAny(text, shortDurationKeywords):
		duration = domain.DurationShort
	}

	var secondary []domain.SecondaryImpact
	for _, ik := range impactKeywords {
		if containsAny(text, ik.keywords) {
			secondary = append(secondary, ik.impact)
		}
	}

	totalMatches := eventMatches + len(secondary)
	confidence := domain.ExtractionLow
	switch {
	case totalMatches >= 2:
		confidence = domain.ExtractionHigh
	case totalMatches == 1:
		confidence = domain.ExtractionMedium
	}

	return domain.ScenarioSignals{
		PrimaryEvents:        primary,
		Severity:             severity,
		Duration:             duration,
		SecondaryImpacts:     secondary,
		ExtractionConfidence: confidence,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
