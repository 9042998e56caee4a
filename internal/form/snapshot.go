package form

import (
	"github.com/matthewbaird/cloudconsole/internal/fieldpath"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Snapshot is an immutable view of a session.
type Snapshot struct {
	ID          string          `json:"id"`
	Mode        Mode            `json:"mode"`
	State       State           `json:"state"`
	CloudID     string          `json:"cloudId,omitempty"`
	Provider    string          `json:"provider"`
	Title       string          `json:"title"`
	RecordName  string          `json:"recordName,omitempty"`
	Draft       map[string]any  `json:"draft,omitempty"`
	Errors      schema.ErrorMap `json:"errors,omitempty"`
	Sections    []SectionView   `json:"sections,omitempty"`
	LoadError   string          `json:"loadError,omitempty"`
	SubmitError string          `json:"submitError,omitempty"`
	Buttons     Buttons         `json:"buttons"`
}

// SectionView is a titled group of visible controls.
type SectionView struct {
	Title    string          `json:"title"`
	Controls []field.Control `json:"controls"`
}

// Buttons describes the dialog footer.
type Buttons struct {
	Confirm         string `json:"confirm"`
	ConfirmDisabled bool   `json:"confirmDisabled"`
	CancelDisabled  bool   `json:"cancelDisabled"`
}

var titles = map[Mode]string{
	ModeCreate: "Create Cloud",
	ModeEdit:   "Edit Cloud",
	ModeDelete: "Delete Cloud",
}

var confirmLabels = map[Mode][2]string{
	ModeCreate: {"Create", "Creating..."},
	ModeEdit:   {"Save", "Saving..."},
	ModeDelete: {"Delete", "Deleting..."},
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Mode:       s.mode,
		State:      s.state,
		CloudID:    s.cloudID,
		Provider:   s.provider.Name,
		Title:      titles[s.mode],
		RecordName: s.recordName,
	}
	if s.loadErr != nil {
		snap.LoadError = s.loadErr.Error()
	}
	if s.submitErr != nil {
		snap.SubmitError = s.submitErr.Error()
	}

	labels := confirmLabels[s.mode]
	snap.Buttons.Confirm = labels[0]
	if s.state == StateSubmitting {
		snap.Buttons.Confirm = labels[1]
	}
	snap.Buttons.ConfirmDisabled = s.state != StateReady
	snap.Buttons.CancelDisabled = s.state == StateSubmitting || s.state == StateClosed

	if len(s.errs) > 0 {
		snap.Errors = make(schema.ErrorMap, len(s.errs))
		for k, v := range s.errs {
			snap.Errors[k] = v
		}
	}
	if s.draft == nil || s.mode == ModeDelete {
		return snap
	}
	snap.Draft = s.maskSecrets(fieldpath.Clone(s.draft).(map[string]any))
	if s.state == StateReady || s.state == StateSubmitting {
		snap.Sections = s.renderLocked()
	}
	return snap
}

// maskSecrets replaces the set values of password fields. The session keeps
// the real values for submission.
func (s *Session) maskSecrets(draft map[string]any) map[string]any {
	for _, f := range s.provider.Fields() {
		if f.Type != schema.KindPassword {
			continue
		}
		if v, ok := fieldpath.Get(draft, f.WritePath()); ok && fieldpath.Truthy(v) {
			draft = fieldpath.Set(draft, f.WritePath(), types.MaskedSecret)
		}
	}
	return draft
}

// renderLocked builds controls for every visible field. A field with an
// alternate write path displays the value stored there.
func (s *Session) renderLocked() []SectionView {
	var out []SectionView
	for _, sec := range s.provider.Sections {
		view := SectionView{Title: sec.Title}
		for _, f := range sec.Fields {
			if !f.Visible(s.draft) {
				continue
			}
			r, err := field.For(f.Type)
			if err != nil {
				continue
			}
			v, _ := fieldpath.Get(s.draft, f.WritePath())
			c := r.Render(f, v, s.errs[f.Key])
			c.Pending = s.pending[f.Key]
			view.Controls = append(view.Controls, c)
		}
		if len(view.Controls) > 0 {
			out = append(out, view)
		}
	}
	return out
}

// Record decodes the draft into a typed record.
func (snap Snapshot) Record() (types.Cloud, error) {
	var c types.Cloud
	if snap.Draft == nil {
		return c, nil
	}
	err := fieldpath.ToStruct(snap.Draft, &c)
	return c, err
}

// Masked returns a copy with credential secrets replaced and controls
// dropped, for logs.
func (snap Snapshot) Masked() Snapshot {
	out := snap
	out.Sections = nil
	if snap.Draft == nil {
		return out
	}
	out.Draft = fieldpath.Clone(snap.Draft).(map[string]any)
	for _, p := range []string{"credentials.accessKey", "credentials.secretAccessKey"} {
		if v, ok := fieldpath.Get(out.Draft, p); ok && fieldpath.Truthy(v) {
			out.Draft = fieldpath.Set(out.Draft, p, types.MaskedSecret)
		}
	}
	return out
}
