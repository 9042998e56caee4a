package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/matthewbaird/cloudconsole/internal/event"
	"github.com/matthewbaird/cloudconsole/internal/signals"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Indexer consumes cloud events from the bus, classifies them and writes
// activity entries to the store.
type Indexer struct {
	store  Store
	logger *slog.Logger
}

// NewIndexer creates a new activity indexer.
func NewIndexer(store Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, logger: logger}
}

// HandleEvent makes the Indexer a bus subscriber.
func (idx *Indexer) HandleEvent(ctx context.Context, evt cloudevents.Event) error {
	return idx.ProcessEvent(ctx, evt)
}

// ProcessEvent is the indexing pipeline for a single event.
// Steps: decode payload → classify → generate summary → write entry.
func (idx *Indexer) ProcessEvent(ctx context.Context, evt cloudevents.Event) error {
	payload, err := event.Payload(evt)
	if err != nil {
		return err
	}

	classification, classified := signals.ClassifyEvent(evt)
	category := "lifecycle"
	weight := "info"
	polarity := "neutral"
	description := evt.Type()
	if classified {
		category = classification.Category
		weight = classification.Weight
		polarity = classification.Polarity
		description = classification.Description
	}

	entry := types.ActivityEntry{
		EventID:    evt.ID(),
		EventType:  evt.Type(),
		OccurredAt: evt.Time(),
		CloudID:    payload.CloudID,
		CloudName:  payload.Name,
		Summary:    generateSummary(description, payload),
		Category:   category,
		Weight:     weight,
		Polarity:   polarity,
		Payload:    json.RawMessage(evt.Data()),
	}
	if err := idx.store.WriteEntries(ctx, []types.ActivityEntry{entry}); err != nil {
		return fmt.Errorf("writing activity for %s: %w", evt.ID(), err)
	}
	idx.logger.DebugContext(ctx, "activity indexed", "event", evt.Type(), "cloud_id", payload.CloudID, "category", category)
	return nil
}

func generateSummary(description string, p event.CloudPayload) string {
	if p.Name == "" {
		return description
	}
	return fmt.Sprintf("%s: %s", description, p.Name)
}
