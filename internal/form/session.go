// Package form runs cloud dialogs as server-side sessions. A Session owns one
// draft record and moves through Loading, Ready, Submitting, LoadFailed and
// Closed. Loading and submitting go through injected collaborators so the
// engine never touches storage itself.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/cloudconsole/internal/fieldpath"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

var (
	ErrBusy         = errors.New("dialog is submitting")
	ErrNotReady     = errors.New("dialog is not ready")
	ErrClosed       = errors.New("dialog is closed")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalid      = errors.New("validation failed")
	ErrBadRequest   = errors.New("invalid dialog request")
)

// State is the lifecycle state of a session.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateLoadFailed State = "load_failed"
	StateClosed     State = "closed"
)

// Mode selects what the dialog does on confirm.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeDelete Mode = "delete"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeEdit || m == ModeDelete
}

// Loader fetches a record by id for edit dialogs.
type Loader interface {
	Load(ctx context.Context, id string) (types.Cloud, error)
}

// Submitter performs the confirmed create, edit or delete.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// Submission is what a confirmed dialog hands to its Submitter.
type Submission struct {
	Mode    Mode        `json:"mode"`
	CloudID string      `json:"cloudId,omitempty"`
	Payload types.Cloud `json:"payload"`
}

// OpenRequest describes the dialog to open.
type OpenRequest struct {
	Mode    Mode   `json:"mode"`
	CloudID string `json:"cloudId,omitempty"`
	// Initial holds the record keys a create dialog starts from. Keys it
	// leaves out keep the provider defaults.
	Initial map[string]any `json:"initial,omitempty"`
}

// Deps are the collaborators a session needs.
type Deps struct {
	Provider  *schema.Provider
	Loader    Loader
	Submitter Submitter
	Logger    *slog.Logger
}

// Option configures a session at open time.
type Option func(*Session)

// WithObserver registers fn to receive a snapshot after every change.
// Observers run outside the session lock.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Session) { s.observers = append(s.observers, fn) }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is one open dialog.
type Session struct {
	id        string
	mode      Mode
	cloudID   string
	provider  *schema.Provider
	loader    Loader
	submitter Submitter
	logger    *slog.Logger
	observers []func(Snapshot)
	createdAt time.Time

	// ctx outlives the request that opened the session and is cancelled
	// when the session closes.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	draft      map[string]any
	errs       schema.ErrorMap
	pending    map[string]string
	loadErr    error
	submitErr  error
	recordName string
	loadSeq    int
	lastActive time.Time
}

// Open starts a dialog. Edit dialogs begin loading in the background and
// report through observers when the load completes.
func Open(ctx context.Context, req OpenRequest, deps Deps, opts ...Option) (*Session, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("mode %q: %w", req.Mode, ErrBadRequest)
	}
	if req.Mode != ModeCreate && req.CloudID == "" {
		return nil, fmt.Errorf("%s needs a cloud id: %w", req.Mode, ErrBadRequest)
	}
	if deps.Provider == nil || deps.Submitter == nil {
		return nil, fmt.Errorf("provider and submitter are required: %w", ErrBadRequest)
	}
	if req.Mode == ModeEdit && deps.Loader == nil {
		return nil, fmt.Errorf("edit needs a loader: %w", ErrBadRequest)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := time.Now()
	s := &Session{
		id:         uuid.New().String(),
		mode:       req.Mode,
		cloudID:    req.CloudID,
		provider:   deps.Provider,
		loader:     deps.Loader,
		submitter:  deps.Submitter,
		pending:    map[string]string{},
		errs:       schema.ErrorMap{},
		createdAt:  now,
		lastActive: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With("session_id", s.id, "mode", string(s.mode))
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	switch req.Mode {
	case ModeCreate:
		s.draft = s.provider.Merge(req.Initial)
		s.setState(StateReady)
	case ModeEdit:
		s.setState(StateLoading)
		s.startLoad()
	case ModeDelete:
		s.setState(StateReady)
		if s.loader != nil {
			s.lookupName()
		}
	}
	s.mu.Unlock()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Mode returns the dialog mode.
func (s *Session) Mode() Mode { return s.mode }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState must be called with mu held.
func (s *Session) setState(st State) {
	s.state = st
	s.lastActive = time.Now()
	s.logger.Info("dialog transition", "state", string(st))
}

// startLoad must be called with mu held and state Loading.
func (s *Session) startLoad() {
	s.loadSeq++
	seq := s.loadSeq
	id := s.cloudID
	go func() {
		rec, err := s.loader.Load(s.ctx, id)
		s.finishLoad(seq, rec, err)
	}()
}

func (s *Session) finishLoad(seq int, rec types.Cloud, err error) {
	s.mu.Lock()
	if s.state != StateLoading || seq != s.loadSeq {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load", "cloud_id", s.cloudID)
		return
	}
	if err != nil {
		s.loadErr = err
		s.setState(StateLoadFailed)
		s.logger.Warn("dialog load failed", "cloud_id", s.cloudID, "error", err)
	} else {
		loaded, convErr := fieldpath.FromStruct(rec)
		if convErr != nil {
			s.loadErr = convErr
			s.setState(StateLoadFailed)
		} else {
			s.draft = s.provider.Merge(loaded)
			s.setState(StateReady)
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// lookupName resolves the record name shown by delete dialogs. Failures are
// ignored; the dialog stays usable without it.
func (s *Session) lookupName() {
	id := s.cloudID
	go func() {
		rec, err := s.loader.Load(s.ctx, id)
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.recordName = rec.Name
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
	}()
}

func (s *Session) notify(snap Snapshot) {
	for _, fn := range s.observers {
		fn(snap)
	}
}

// editable must be called with mu held.
func (s *Session) editable() error {
	switch s.state {
	case StateReady:
		return nil
	case StateSubmitting:
		return ErrBusy
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotReady
	}
}

func (s *Session) field(key string) (schema.Field, field.Renderer, error) {
	if s.mode == ModeDelete {
		return schema.Field{}, nil, fmt.Errorf("%q: %w", key, ErrUnknownField)
	}
	f, ok := s.provider.Field(key)
	if !ok {
		return schema.Field{}, nil, fmt.Errorf("%q: %w", key, ErrUnknownField)
	}
	r, err := field.For(f.Type)
	if err != nil {
		return schema.Field{}, nil, err
	}
	return f, r, nil
}

// Change applies one interaction to the field named key. The new draft is
// built from a copy; the previous draft value is never modified.
func (s *Session) Change(key string, in field.Input) error {
	f, r, err := s.field(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.applyLocked(f, r, in); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

func (s *Session) applyLocked(f schema.Field, r field.Renderer, in field.Input) error {
	path := f.WritePath()
	current, _ := fieldpath.Get(s.draft, path)
	next, err := r.Apply(f, fieldpath.Clone(current), in)
	if err != nil {
		return err
	}
	s.draft = fieldpath.Set(s.draft, path, f.NormalizeValue(next))
	s.lastActive = time.Now()
	return nil
}

// Stage updates the uncommitted text of a tags field.
func (s *Session) Stage(key, text string) error {
	f, _, err := s.field(key)
	if err != nil {
		return err
	}
	if f.Type != schema.KindTags {
		return fmt.Errorf("stage on %s field %q: %w", f.Type, key, field.ErrUnsupportedInput)
	}
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending[key] = text
	s.lastActive = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Commit appends the staged text of a tags field and clears the buffer.
func (s *Session) Commit(key string) error {
	f, r, err := s.field(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.applyLocked(f, r, field.Input{Op: field.OpCommit, Value: s.pending[key]}); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.pending, key)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Confirm validates the draft and hands it to the submitter. Validation
// failures keep the session Ready and return ErrInvalid with the error map in
// the snapshot. A submitter failure returns the session to Ready and is
// returned unchanged.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}

	sub := Submission{Mode: s.mode, CloudID: s.cloudID}
	if s.mode != ModeDelete {
		s.errs = s.provider.Validate(s.draft)
		if !s.errs.Empty() {
			s.logger.Info("dialog validation failed", "fields", s.errs.Keys())
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.notify(snap)
			return ErrInvalid
		}
		if err := fieldpath.ToStruct(s.draft, &sub.Payload); err != nil {
			s.mu.Unlock()
			return err
		}
		if s.mode == ModeEdit {
			sub.Payload.ID = s.cloudID
		}
	}
	s.submitErr = nil
	s.setState(StateSubmitting)
	s.logger.Info("dialog payload", "cloud_id", s.cloudID, "payload", sub.Payload.Masked())
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	err := s.submitter.Submit(ctx, sub)

	s.mu.Lock()
	if s.state != StateSubmitting {
		// Closed underneath us by the manager.
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.submitErr = err
		s.setState(StateReady)
		s.logger.Warn("dialog submit failed", "error", err)
	} else {
		s.closeLocked()
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return err
}

// Cancel discards the dialog. It is rejected while submitting.
func (s *Session) Cancel() error {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return ErrBusy
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	}
	s.closeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Retry restarts a failed load.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.state != StateLoadFailed {
		st := s.state
		s.mu.Unlock()
		if st == StateClosed {
			return ErrClosed
		}
		return ErrNotReady
	}
	s.loadErr = nil
	s.setState(StateLoading)
	s.startLoad()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// close ends the session regardless of state. In-flight loads are discarded.
func (s *Session) close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.closeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) closeLocked() {
	s.draft = nil
	s.errs = schema.ErrorMap{}
	s.pending = map[string]string{}
	s.setState(StateClosed)
	s.cancel()
}

func (s *Session) expired(maxAge, idle time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return false
	}
	return now.Sub(s.createdAt) > maxAge || now.Sub(s.lastActive) > idle
}
