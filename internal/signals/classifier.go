package signals

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/matthewbaird/cloudconsole/internal/event"
)

// ClassificationResult holds the output of classifying an event.
type ClassificationResult struct {
	Category     string
	Weight       string
	Polarity     string
	Description  string
	Registration *Registration
}

// ClassifyEvent looks up the event type in the registry and returns the
// matching classification. The first registration whose condition holds for
// the cloud payload wins; otherwise the unconditional one does. Conditions
// never match an event whose payload does not decode.
//
// Returns ok=false if no registration matches the event type.
func ClassifyEvent(evt cloudevents.Event) (result ClassificationResult, ok bool) {
	registrations := LookupSignals(evt.Type())
	if len(registrations) == 0 {
		return ClassificationResult{}, false
	}

	payload, err := event.Payload(evt)
	decoded := err == nil

	var fallback *Registration
	for i := range registrations {
		reg := &registrations[i]
		if reg.Condition == nil {
			if fallback == nil {
				fallback = reg
			}
			continue
		}
		if decoded && reg.Condition(payload) {
			return resultOf(reg), true
		}
	}
	if fallback != nil {
		return resultOf(fallback), true
	}
	return ClassificationResult{}, false
}

func resultOf(reg *Registration) ClassificationResult {
	return ClassificationResult{
		Category:     reg.Category,
		Weight:       reg.Weight,
		Polarity:     reg.Polarity,
		Description:  reg.Description,
		Registration: reg,
	}
}
