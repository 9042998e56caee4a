package signals

import (
	"testing"
	"time"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makeActivity(eventType, category, weight, polarity string, hoursAgo int) types.ActivityEntry {
	return types.ActivityEntry{
		EventID:    "test-" + category,
		EventType:  eventType,
		OccurredAt: now.Add(-time.Duration(hoursAgo) * time.Hour),
		CloudID:    "c1",
		Summary:    "test entry",
		Category:   category,
		Weight:     weight,
		Polarity:   polarity,
	}
}

func TestAggregate_CategoryCounts(t *testing.T) {
	entries := []types.ActivityEntry{
		makeActivity("cloud.created", "inventory", "info", "positive", 10),
		makeActivity("cloud.updated", "inventory", "info", "neutral", 5),
		makeActivity("cloud.updated", "scanning", "weak", "negative", 2),
	}
	summary := Aggregate(entries, now)

	if len(summary.Categories) != 2 {
		t.Errorf("got %d categories, want 2", len(summary.Categories))
	}
	if summary.Categories["inventory"].SignalCount != 2 {
		t.Errorf("inventory count = %d, want 2", summary.Categories["inventory"].SignalCount)
	}
	if summary.Categories["scanning"].DominantPolarity != "negative" {
		t.Errorf("scanning polarity = %q, want negative", summary.Categories["scanning"].DominantPolarity)
	}
	if summary.OverallSentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", summary.OverallSentiment)
	}
}

func TestAggregate_ChurnEscalates(t *testing.T) {
	var entries []types.ActivityEntry
	for h := range 3 {
		entries = append(entries, makeActivity("cloud.deleted", "inventory", "moderate", "negative", h))
	}
	summary := Aggregate(entries, now)

	if len(summary.Escalations) != 1 {
		t.Fatalf("got %d escalations, want 1", len(summary.Escalations))
	}
	if summary.Escalations[0].Rule.ID != "inventory_churn" {
		t.Errorf("escalation = %q, want inventory_churn", summary.Escalations[0].Rule.ID)
	}
	if summary.OverallSentiment != "critical" {
		t.Errorf("sentiment = %q, want critical", summary.OverallSentiment)
	}
}

func TestAggregate_EscalationWindow(t *testing.T) {
	entries := []types.ActivityEntry{
		makeActivity("cloud.deleted", "inventory", "moderate", "negative", 1),
		makeActivity("cloud.deleted", "inventory", "moderate", "negative", 30),
		makeActivity("cloud.deleted", "inventory", "moderate", "negative", 50),
	}
	summary := Aggregate(entries, now)
	if len(summary.Escalations) != 0 {
		t.Errorf("got %d escalations, want 0 outside the window", len(summary.Escalations))
	}
	if summary.OverallSentiment != "concerning" {
		t.Errorf("sentiment = %q, want concerning", summary.OverallSentiment)
	}
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil, now)
	if summary.OverallSentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", summary.OverallSentiment)
	}
}
