// Package signals classifies cloud events into weighted signals and rolls
// activity entries up into a per-cloud summary for the Security page.
package signals

import "github.com/matthewbaird/cloudconsole/internal/event"

// WeightOrder maps signal weights to numeric severity (lower = more severe).
var WeightOrder = map[string]int{
	"critical": 1,
	"strong":   2,
	"moderate": 3,
	"weak":     4,
	"info":     5,
}

// Registration maps an event type, optionally narrowed by a condition on the
// cloud payload, to a signal classification.
type Registration struct {
	ID          string
	EventType   string
	Condition   func(event.CloudPayload) bool
	Category    string
	Weight      string
	Polarity    string
	Description string
	Escalations []EscalationRule
}

// EscalationRule raises the weight of a signal when it repeats.
type EscalationRule struct {
	ID                   string
	Description          string
	SignalCategory       string
	SignalPolarity       string
	Count                int
	WithinDays           int
	EscalatedWeight      string
	EscalatedDescription string
	RecommendedAction    string
}

// Registry holds every cloud signal registration.
var Registry = []Registration{
	{
		ID:          "cloud_connected",
		EventType:   event.TypeCloudCreated,
		Category:    "inventory",
		Weight:      "info",
		Polarity:    "positive",
		Description: "Cloud account connected",
	},
	{
		ID:          "cloud_events_disabled",
		EventType:   event.TypeCloudUpdated,
		Condition:   func(p event.CloudPayload) bool { return !p.EventProcessEnabled },
		Category:    "monitoring",
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Event processing disabled",
		Escalations: []EscalationRule{
			{
				ID:                   "monitoring_gap",
				Description:          "Monitoring switched off repeatedly",
				SignalCategory:       "monitoring",
				SignalPolarity:       "negative",
				Count:                3,
				WithinDays:           7,
				EscalatedWeight:      "strong",
				EscalatedDescription: "Event processing disabled 3+ times in a week.",
				RecommendedAction:    "Review who is changing the account's event settings.",
			},
		},
	},
	{
		ID:          "cloud_scan_disabled",
		EventType:   event.TypeCloudUpdated,
		Condition:   func(p event.CloudPayload) bool { return !p.ScheduleScanEnabled },
		Category:    "scanning",
		Weight:      "weak",
		Polarity:    "negative",
		Description: "Scheduled scan disabled",
	},
	{
		ID:          "cloud_updated",
		EventType:   event.TypeCloudUpdated,
		Category:    "inventory",
		Weight:      "info",
		Polarity:    "neutral",
		Description: "Cloud account updated",
	},
	{
		ID:          "cloud_disconnected",
		EventType:   event.TypeCloudDeleted,
		Category:    "inventory",
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Cloud account disconnected",
		Escalations: []EscalationRule{
			{
				ID:                   "inventory_churn",
				Description:          "Many accounts disconnected in a short time",
				SignalCategory:       "inventory",
				SignalPolarity:       "negative",
				Count:                3,
				WithinDays:           1,
				EscalatedWeight:      "critical",
				EscalatedDescription: "3+ cloud accounts disconnected within a day.",
				RecommendedAction:    "Confirm the disconnections were intended.",
			},
		},
	},
}

var registryByEventType = index(Registry)

func index(regs []Registration) map[string][]Registration {
	out := make(map[string][]Registration, len(regs))
	for _, reg := range regs {
		out[reg.EventType] = append(out[reg.EventType], reg)
	}
	return out
}

// LookupSignals returns all registrations matching the given event type.
func LookupSignals(eventType string) []Registration {
	return registryByEventType[eventType]
}

// WeightSeverity returns the numeric severity for a weight (lower = more severe).
// Returns 6 for unknown weights.
func WeightSeverity(weight string) int {
	if s, ok := WeightOrder[weight]; ok {
		return s
	}
	return 6
}

// IsAtLeastWeight returns true if actual is at least as severe as minimum.
func IsAtLeastWeight(actual, minimum string) bool {
	return WeightSeverity(actual) <= WeightSeverity(minimum)
}
