package signals

import (
	"sort"
	"time"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

// CategorySummary aggregates signals within a single category.
type CategorySummary struct {
	Category         string         `json:"category"`
	SignalCount      int            `json:"signal_count"`
	ByWeight         map[string]int `json:"by_weight"`
	ByPolarity       map[string]int `json:"by_polarity"`
	DominantPolarity string         `json:"dominant_polarity"`
}

// EscalatedSignal is an escalation rule that fired.
type EscalatedSignal struct {
	Rule             EscalationRule `json:"rule"`
	TriggeringCount  int            `json:"triggering_count"`
	EarliestOccurred time.Time      `json:"earliest_occurred"`
	LatestOccurred   time.Time      `json:"latest_occurred"`
}

// Summary is the signal overview for a set of activity entries.
type Summary struct {
	Categories       map[string]CategorySummary `json:"categories"`
	OverallSentiment string                     `json:"overall_sentiment"` // positive, mixed, concerning, critical
	SentimentReason  string                     `json:"sentiment_reason"`
	Escalations      []EscalatedSignal          `json:"escalations"`
}

// Aggregate summarises entries as of now.
func Aggregate(entries []types.ActivityEntry, now time.Time) Summary {
	categories := make(map[string]*CategorySummary)
	for _, entry := range entries {
		cs, exists := categories[entry.Category]
		if !exists {
			cs = &CategorySummary{
				Category:   entry.Category,
				ByWeight:   make(map[string]int),
				ByPolarity: make(map[string]int),
			}
			categories[entry.Category] = cs
		}
		cs.SignalCount++
		cs.ByWeight[entry.Weight]++
		cs.ByPolarity[entry.Polarity]++
	}

	result := make(map[string]CategorySummary, len(categories))
	for cat, cs := range categories {
		cs.DominantPolarity = dominantPolarity(cs.ByPolarity)
		result[cat] = *cs
	}

	escalations := EvaluateEscalations(entries, now)
	sentiment, reason := computeSentiment(result, escalations)
	return Summary{
		Categories:       result,
		OverallSentiment: sentiment,
		SentimentReason:  reason,
		Escalations:      escalations,
	}
}

// EvaluateEscalations checks every count-based escalation rule against
// entries.
func EvaluateEscalations(entries []types.ActivityEntry, now time.Time) []EscalatedSignal {
	var escalated []EscalatedSignal
	for _, reg := range Registry {
		for _, rule := range reg.Escalations {
			if es, ok := evaluateCountRule(rule, entries, now); ok {
				escalated = append(escalated, es)
			}
		}
	}
	return escalated
}

func evaluateCountRule(rule EscalationRule, entries []types.ActivityEntry, now time.Time) (EscalatedSignal, bool) {
	windowStart := now.AddDate(0, 0, -rule.WithinDays)

	var matching []types.ActivityEntry
	for _, e := range entries {
		if e.OccurredAt.Before(windowStart) {
			continue
		}
		if rule.SignalCategory != "" && e.Category != rule.SignalCategory {
			continue
		}
		if rule.SignalPolarity != "" && e.Polarity != rule.SignalPolarity {
			continue
		}
		matching = append(matching, e)
	}
	if len(matching) == 0 || len(matching) < rule.Count {
		return EscalatedSignal{}, false
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].OccurredAt.Before(matching[j].OccurredAt)
	})
	return EscalatedSignal{
		Rule:             rule,
		TriggeringCount:  len(matching),
		EarliestOccurred: matching[0].OccurredAt,
		LatestOccurred:   matching[len(matching)-1].OccurredAt,
	}, true
}

// dominantPolarity returns the polarity with the highest count, ties broken
// alphabetically.
func dominantPolarity(byPolarity map[string]int) string {
	best := ""
	bestCount := 0
	for p, c := range byPolarity {
		if c > bestCount || (c == bestCount && p < best) {
			best = p
			bestCount = c
		}
	}
	return best
}

func computeSentiment(categories map[string]CategorySummary, escalations []EscalatedSignal) (string, string) {
	for _, e := range escalations {
		if e.Rule.EscalatedWeight == "critical" {
			return "critical", "Critical escalation triggered: " + e.Rule.EscalatedDescription
		}
	}

	var criticalCount, strongCount, negativeCount, positiveCount int
	for _, cs := range categories {
		criticalCount += cs.ByWeight["critical"]
		strongCount += cs.ByWeight["strong"]
		negativeCount += cs.ByPolarity["negative"]
		positiveCount += cs.ByPolarity["positive"]
	}

	if criticalCount > 0 {
		return "critical", "Critical-weight signals present requiring immediate attention."
	}
	if len(escalations) > 0 || strongCount >= 2 || negativeCount > positiveCount*2 {
		return "concerning", "Escalations, multiple strong signals or predominantly negative activity."
	}
	if negativeCount > positiveCount {
		return "mixed", "More negative than positive signals, but no critical concerns."
	}
	return "positive", "Activity is predominantly positive or neutral."
}
