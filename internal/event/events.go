// Package event builds the CloudEvents published when cloud accounts change.
package event

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Source is the CloudEvents source of every console event.
const Source = "cloudconsole/console"

// Event types.
const (
	TypeCloudCreated = "cloud.created"
	TypeCloudUpdated = "cloud.updated"
	TypeCloudDeleted = "cloud.deleted"
)

// Publisher sends events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt cloudevents.Event)
}

// CloudPayload is the event data. It never carries credentials.
type CloudPayload struct {
	CloudID             string   `json:"cloud_id"`
	Name                string   `json:"name"`
	Provider            string   `json:"provider"`
	Regions             []string `json:"regions"`
	EventProcessEnabled bool     `json:"event_process_enabled"`
	UserActivityEnabled bool     `json:"user_activity_enabled"`
	ScheduleScanEnabled bool     `json:"schedule_scan_enabled"`
	Frequency           string   `json:"frequency,omitempty"`
}

func payloadOf(c types.Cloud) CloudPayload {
	p := CloudPayload{
		CloudID:             c.ID,
		Name:                c.Name,
		Provider:            c.Provider,
		Regions:             c.Regions(),
		EventProcessEnabled: c.EventProcessEnabled,
		UserActivityEnabled: c.UserActivityEnabled,
		ScheduleScanEnabled: c.ScheduleScanEnabled,
	}
	if c.ScheduleScanEnabled {
		p.Frequency = c.ScheduleScanSetting.Frequency
	}
	return p
}

func newEvent(typ string, c types.Cloud) cloudevents.Event {
	evt := cloudevents.NewEvent()
	evt.SetID(uuid.New().String())
	evt.SetSource(Source)
	evt.SetType(typ)
	evt.SetSubject(c.ID)
	evt.SetTime(time.Now())
	// CloudPayload always marshals.
	_ = evt.SetData(cloudevents.ApplicationJSON, payloadOf(c))
	return evt
}

// NewCloudCreated is published after a record is created.
func NewCloudCreated(c types.Cloud) cloudevents.Event { return newEvent(TypeCloudCreated, c) }

// NewCloudUpdated is published after a record is saved.
func NewCloudUpdated(c types.Cloud) cloudevents.Event { return newEvent(TypeCloudUpdated, c) }

// NewCloudDeleted is published after a record is removed.
func NewCloudDeleted(c types.Cloud) cloudevents.Event { return newEvent(TypeCloudDeleted, c) }

// Payload decodes the data of a cloud event.
func Payload(evt cloudevents.Event) (CloudPayload, error) {
	var p CloudPayload
	if err := evt.DataAs(&p); err != nil {
		return CloudPayload{}, fmt.Errorf("decoding %s payload: %w", evt.Type(), err)
	}
	return p, nil
}
