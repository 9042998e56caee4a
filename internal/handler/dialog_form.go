package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/cloudconsole/internal/console"
	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
	"github.com/matthewbaird/cloudconsole/internal/schema"
)

// Posted dialog forms name each control "f.<key>" and list the rendered keys
// under "present", so an unchecked checkbox can be told from a field that
// was not on the page. The pressed button arrives as "action".
const (
	fieldPrefix  = "f."
	presentParam = "present"
	actionParam  = "action"
)

// OpenDialog handles POST /cloudmgmt/dialogs from the grid buttons.
func (p *Pages) OpenDialog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s, err := p.dialogs.Open(r.Context(), form.OpenRequest{
		Mode:    form.Mode(r.PostForm.Get("mode")),
		CloudID: r.PostForm.Get("cloudId"),
	})
	if err != nil {
		p.fail(w, err)
		return
	}
	http.Redirect(w, r, dialogURL(s.ID()), http.StatusSeeOther)
}

// ShowDialog handles GET /cloudmgmt/dialogs/{id}.
func (p *Pages) ShowDialog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := p.dialogs.Get(id); !ok {
		http.Redirect(w, r, console.HomePath, http.StatusSeeOther)
		return
	}
	p.renderCloudMgmt(w, r, id)
}

// PostDialog handles POST /cloudmgmt/dialogs/{id}: it applies the posted
// field values, runs the pressed action and redirects back to the page.
func (p *Pages) PostDialog(w http.ResponseWriter, r *http.Request) {
	s, ok := p.dialogs.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, console.HomePath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	err := applyForm(s, r.PostForm)
	if err == nil {
		err = runAction(r.Context(), s, r.PostForm.Get(actionParam))
	}
	if form.Rejected(err) && !errors.Is(err, form.ErrClosed) {
		p.fail(w, err)
		return
	}
	if err != nil && !errors.Is(err, form.ErrInvalid) {
		p.logger.Warn("dialog action failed", "dialog_id", s.ID(), "error", err)
	}

	if s.State() == form.StateClosed {
		p.dialogs.Remove(s.ID())
		http.Redirect(w, r, console.HomePath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, dialogURL(s.ID()), http.StatusSeeOther)
}

func dialogURL(id string) string {
	return console.HomePath + "?dialog=" + url.QueryEscape(id)
}

// applyForm turns posted values into Change and Stage calls for every
// rendered control whose value differs from the session's.
func applyForm(s *form.Session, values url.Values) error {
	if s.State() != form.StateReady {
		return nil
	}
	controls := make(map[string]field.Control)
	for _, sec := range s.Snapshot().Sections {
		for _, c := range sec.Controls {
			controls[c.Key] = c
		}
	}
	for _, key := range values[presentParam] {
		c, ok := controls[key]
		if !ok {
			continue
		}
		if err := applyControl(s, c, values[fieldPrefix+key]); err != nil {
			return err
		}
	}
	return nil
}

func applyControl(s *form.Session, c field.Control, posted []string) error {
	first := ""
	if len(posted) > 0 {
		first = posted[0]
	}
	switch c.Kind {
	case schema.KindText, schema.KindPassword, schema.KindSelect:
		if first == c.Value {
			return nil
		}
		return s.Change(c.Key, field.Input{Op: field.OpSet, Value: first})
	case schema.KindMultiSelect:
		for _, v := range multiSelectToggles(c, posted) {
			if err := s.Change(c.Key, field.Input{Op: field.OpToggle, Value: v}); err != nil {
				return err
			}
		}
		return nil
	case schema.KindSwitch:
		checked := first != ""
		if checked == c.Checked {
			return nil
		}
		return s.Change(c.Key, field.Input{Op: field.OpSet, Value: strconv.FormatBool(checked)})
	case schema.KindTags:
		if first == c.Pending {
			return nil
		}
		return s.Stage(c.Key, first)
	}
	return nil
}

// multiSelectToggles lists the options whose checked state differs between
// the current values and the posted checkboxes: removals in current order,
// then additions in option order. Toggling appends, so values already chosen
// keep their place. Disabled options are never posted by a browser and are
// left alone.
func multiSelectToggles(c field.Control, posted []string) []string {
	var out []string
	for _, v := range c.Values {
		if enabledOption(c, v) && !slices.Contains(posted, v) {
			out = append(out, v)
		}
	}
	for _, o := range c.Options {
		if !o.Disabled && slices.Contains(posted, o.Value) && !slices.Contains(c.Values, o.Value) {
			out = append(out, o.Value)
		}
	}
	return out
}

func enabledOption(c field.Control, v string) bool {
	for _, o := range c.Options {
		if o.Value == v {
			return !o.Disabled
		}
	}
	return false
}

// runAction dispatches the pressed button. "commit:<key>" adds a staged tag
// and "remove:<key>:<index>" drops one; an empty action only applies values.
func runAction(ctx context.Context, s *form.Session, action string) error {
	name, arg, _ := strings.Cut(action, ":")
	switch name {
	case "":
		return nil
	case form.EventConfirm, form.EventCancel, form.EventRetry:
		return s.Dispatch(ctx, form.Event{Type: name})
	case form.EventCommit:
		return s.Dispatch(ctx, form.Event{Type: form.EventCommit, Key: arg})
	case "remove":
		key, idx, _ := strings.Cut(arg, ":")
		i, err := strconv.Atoi(idx)
		if err != nil {
			return fmt.Errorf("tag index %q: %w", idx, form.ErrBadRequest)
		}
		return s.Change(key, field.Input{Op: field.OpRemove, Index: i})
	default:
		return fmt.Errorf("action %q: %w", action, form.ErrBadRequest)
	}
}
