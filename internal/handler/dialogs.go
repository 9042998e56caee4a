package handler

import (
	"context"
	"log/slog"

	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/schema"
)

// Dialogs opens form sessions against the current provider schema and keeps
// them in the session manager. The HTML, JSON and websocket surfaces share it.
type Dialogs struct {
	manager   *form.Manager
	registry  *schema.Registry
	loader    form.Loader
	submitter form.Submitter
	logger    *slog.Logger
}

// NewDialogs creates a Dialogs.
func NewDialogs(m *form.Manager, reg *schema.Registry, l form.Loader, sub form.Submitter, logger *slog.Logger) *Dialogs {
	return &Dialogs{manager: m, registry: reg, loader: l, submitter: sub, logger: logger}
}

// Open opens a dialog. The provider schema is resolved at open time, so a
// reload only affects dialogs opened afterwards.
func (d *Dialogs) Open(ctx context.Context, req form.OpenRequest, opts ...form.Option) (*form.Session, error) {
	provider := d.registry.Default()
	if name, _ := req.Initial["provider"].(string); name != "" {
		if p, ok := d.registry.Get(name); ok {
			provider = p
		}
	}
	return d.manager.Open(ctx, req, form.Deps{
		Provider:  provider,
		Loader:    d.loader,
		Submitter: d.submitter,
		Logger:    d.logger,
	}, opts...)
}

// Get returns an open dialog.
func (d *Dialogs) Get(id string) (*form.Session, bool) {
	return d.manager.Get(id)
}

// Remove closes and forgets a dialog.
func (d *Dialogs) Remove(id string) {
	d.manager.Remove(id)
}
