// Package console holds the Cloud Management page: the record list, the
// submitter behind its dialogs and the grid it renders.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/matthewbaird/cloudconsole/internal/event"
	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/store"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Page is the Cloud Management page. It implements form.Submitter.
type Page struct {
	store  store.Store
	pub    event.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewPage creates the page over s. pub may be nil.
func NewPage(s store.Store, pub event.Publisher, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{store: s, pub: pub, logger: logger, now: time.Now}
}

// List returns the records, newest first.
func (p *Page) List(ctx context.Context) ([]types.Cloud, error) {
	return p.store.List(ctx)
}

// Get returns one record.
func (p *Page) Get(ctx context.Context, id string) (types.Cloud, error) {
	return p.store.Get(ctx, id)
}

// Submit applies a confirmed dialog. Create prepends with a fresh id, edit
// merges the payload into the record with the dialog's cloud id, delete
// removes it.
func (p *Page) Submit(ctx context.Context, sub form.Submission) error {
	switch sub.Mode {
	case form.ModeCreate:
		c := sub.Payload.Clone()
		c.ID = ""
		created, err := p.store.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("creating cloud: %w", err)
		}
		p.logger.InfoContext(ctx, "cloud created", "id", created.ID, "name", created.Name)
		p.publish(ctx, event.NewCloudCreated(created))
		return nil

	case form.ModeEdit:
		existing, err := p.store.Get(ctx, sub.CloudID)
		if err != nil {
			return fmt.Errorf("updating cloud: %w", err)
		}
		c := sub.Payload.Clone()
		c.ID = sub.CloudID
		keepSecrets(&c.Credentials, existing.Credentials)
		updated, err := p.store.Update(ctx, c)
		if err != nil {
			return fmt.Errorf("updating cloud: %w", err)
		}
		p.logger.InfoContext(ctx, "cloud updated", "id", updated.ID, "name", updated.Name)
		p.publish(ctx, event.NewCloudUpdated(updated))
		return nil

	case form.ModeDelete:
		existing, err := p.store.Get(ctx, sub.CloudID)
		if err != nil {
			return fmt.Errorf("deleting cloud: %w", err)
		}
		if err := p.store.Delete(ctx, sub.CloudID); err != nil {
			return fmt.Errorf("deleting cloud: %w", err)
		}
		p.logger.InfoContext(ctx, "cloud deleted", "id", existing.ID, "name", existing.Name)
		p.publish(ctx, event.NewCloudDeleted(existing))
		return nil

	default:
		return fmt.Errorf("submit mode %q: %w", sub.Mode, form.ErrBadRequest)
	}
}

// keepSecrets restores stored credentials where the payload only carries the
// display mask.
func keepSecrets(c *types.Credentials, stored types.Credentials) {
	if c.AccessKey == types.MaskedSecret {
		c.AccessKey = stored.AccessKey
	}
	if c.SecretAccessKey == types.MaskedSecret {
		c.SecretAccessKey = stored.SecretAccessKey
	}
}

func (p *Page) publish(ctx context.Context, evt cloudevents.Event) {
	if p.pub != nil {
		p.pub.Publish(ctx, evt)
	}
}
