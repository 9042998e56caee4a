package types

import (
	"encoding/json"
	"time"
)

// ActivityEntry is one classified cloud event, indexed by the cloud it
// concerns. The Security page lists these.
type ActivityEntry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	CloudID    string          `json:"cloud_id"`
	CloudName  string          `json:"cloud_name"`
	Summary    string          `json:"summary"`
	Category   string          `json:"category"`
	Weight     string          `json:"weight"`   // critical, strong, moderate, weak, info
	Polarity   string          `json:"polarity"` // positive, negative, neutral
	Payload    json.RawMessage `json:"payload,omitempty"`
}
