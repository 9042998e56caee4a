package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/cloudconsole/internal/form/field"
)

// Event types accepted by Dispatch.
const (
	EventChange  = "change"
	EventStage   = "stage"
	EventCommit  = "commit"
	EventConfirm = "confirm"
	EventCancel  = "cancel"
	EventRetry   = "retry"
)

// Event is one client operation on a session. The JSON API and the
// websocket protocol both carry it.
type Event struct {
	Type  string      `json:"type"`
	Key   string      `json:"key,omitempty"`
	Input field.Input `json:"input,omitempty"`
	Text  string      `json:"text,omitempty"`
}

// Dispatch routes ev to the matching session operation.
func (s *Session) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventChange:
		return s.Change(ev.Key, ev.Input)
	case EventStage:
		return s.Stage(ev.Key, ev.Text)
	case EventCommit:
		return s.Commit(ev.Key)
	case EventConfirm:
		return s.Confirm(ctx)
	case EventCancel:
		return s.Cancel()
	case EventRetry:
		return s.Retry()
	default:
		return fmt.Errorf("event %q: %w", ev.Type, ErrBadRequest)
	}
}

// Rejected reports whether err means the request itself was refused, as
// opposed to an outcome the snapshot already shows (validation errors, a
// failed submit).
func Rejected(err error) bool {
	for _, target := range []error{
		ErrBusy, ErrNotReady, ErrClosed, ErrUnknownField, ErrBadRequest,
		field.ErrUnsupportedInput, field.ErrInvalidOption,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
