// Package docform binds one collection and one document ID to a
// schema-validated, dirty-tracked editable form and drives its life cycle:
// load, create, update, delete.
package docform

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"recordkeeper/internal/client/notify"
	"recordkeeper/internal/common"
	"recordkeeper/internal/docstore"
	"recordkeeper/internal/logging"
	"recordkeeper/internal/schema"
)

// State is the handler's position in its life cycle.
type State int

const (
	Uninitialized State = iota
	Loading
	Clean
	Dirty
	Saving
	ErrorState
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	default:
		return "error"
	}
}

// Navigator moves the client between routes. The CLI implements it as a
// location change in its own view state.
type Navigator interface {
	Navigate(route string)
}

// Confirmer resolves an interactive yes/no question. It replaces a blocking
// modal dialog: the handler asks, the UI answers, nothing else is suspended.
type Confirmer func(prompt string) bool

// Options carries the handler's collaborators, passed explicitly at
// construction.
type Options struct {
	Store     docstore.Store
	Schema    *schema.Schema
	Notifier  notify.Notifier
	Confirm   Confirmer
	Navigator Navigator
	Logger    logging.Logger

	// ListRoute overrides the collection list route. Empty means
	// "/<collection>".
	ListRoute string
}

// Handler is one bound form instance. Not safe for concurrent use; mutating
// operations are serialized by the busy guard, which rejects rather than
// queues a second in-flight call.
type Handler struct {
	opts Options

	state    State
	id       string
	fields   map[string]any
	snapshot map[string]any
	lastErr  error
	busy     bool
}

func NewHandler(opts Options) *Handler {
	if opts.ListRoute == "" {
		opts.ListRoute = "/" + opts.Schema.Collection
	}
	return &Handler{opts: opts, state: Uninitialized}
}

// State reports the current life-cycle state.
func (h *Handler) State() State { return h.state }

// ID reports the bound document ID; common.NewDocumentID means create mode.
func (h *Handler) ID() string { return h.id }

// Err reports the last captured load or save failure.
func (h *Handler) Err() error { return h.lastErr }

// Dirty reports whether any field differs from the committed snapshot.
func (h *Handler) Dirty() bool { return h.state == Dirty }

// Field returns the working value of one field.
func (h *Handler) Field(name string) (any, bool) {
	v, ok := h.fields[name]
	return v, ok
}

// Fields returns the working copy of the form.
func (h *Handler) Fields() map[string]any {
	out := make(map[string]any, len(h.fields))
	for k, v := range h.fields {
		out[k] = v
	}
	return out
}

// Bind attaches the handler to a document ID. The sentinel ID "new" skips the
// fetch and opens a clean form seeded with schema defaults. Any load failure
// (missing document, stored data failing validation, transport error)
// redirects to the create-new route with one negative notification.
func (h *Handler) Bind(ctx context.Context, id string) {
	if id == common.NewDocumentID {
		h.reset()
		return
	}

	h.state = Loading
	h.id = id

	doc, err := h.opts.Store.Read(ctx, h.opts.Schema.Collection, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			h.failLoad(ctx, fmt.Sprintf("record %q not found", id), err)
		} else {
			h.failLoad(ctx, fmt.Sprintf("could not load record: %v", err), err)
		}
		return
	}

	validated, verrs := h.opts.Schema.Validate(schema.ProfileAPI, doc.Data)
	if verrs != nil {
		h.failLoad(ctx, fmt.Sprintf("stored record is invalid: %v", verrs), verrs)
		return
	}

	h.fields = validated
	h.snapshot = cloneFields(validated)
	h.state = Clean
	h.lastErr = nil
}

// SetField updates one field of the working copy. The dirty flag is derived
// from comparing the working copy against the committed snapshot, never
// tracked independently.
func (h *Handler) SetField(name string, value any) {
	if h.state != Clean && h.state != Dirty {
		h.opts.Notifier.Notify(notify.Warning, "no record is open for editing")
		return
	}
	if h.opts.Schema.Field(name) == nil {
		h.opts.Notifier.Notify(notify.Warning, fmt.Sprintf("unknown field %q", name))
		return
	}

	h.fields[name] = value
	h.recomputeDirty()
}

// UnsetField marks a field as having no value. The marker is dropped from the
// payload before any write.
func (h *Handler) UnsetField(name string) {
	h.SetField(name, schema.Unset)
}

// Save validates the working copy against the strict form profile, asks for
// confirmation, and creates or updates the record. Validation failure blocks
// the save entirely and surfaces every failing field; nothing is partially
// written. On backend failure the edits survive: the state reverts to Dirty.
func (h *Handler) Save(ctx context.Context) {
	if h.busy {
		h.opts.Notifier.Notify(notify.Warning, "another operation is in progress")
		return
	}
	if h.state != Clean && h.state != Dirty {
		h.opts.Notifier.Notify(notify.Warning, "no record is open for editing")
		return
	}

	validated, verrs := h.opts.Schema.Validate(schema.ProfileForm, h.fields)
	if verrs != nil {
		h.lastErr = verrs
		h.opts.Notifier.Notify(notify.Negative, verrs.Error())
		return
	}

	if !h.opts.Confirm("Save record?") {
		return
	}

	h.busy = true
	defer func() { h.busy = false }()

	prev := h.state
	h.state = Saving

	payload := schema.CleanDocument(validated)

	if h.id == common.NewDocumentID {
		newID, err := h.opts.Store.Insert(ctx, h.opts.Schema.Collection, payload)
		if err != nil {
			h.failSave(ctx, prev, err)
			return
		}
		h.id = newID
		h.opts.Navigator.Navigate(h.opts.ListRoute + "/" + newID)
	} else {
		if err := h.opts.Store.Update(ctx, h.opts.Schema.Collection, h.id, payload); err != nil {
			h.failSave(ctx, prev, err)
			return
		}
	}

	h.fields = validated
	h.snapshot = cloneFields(validated)
	h.state = Clean
	h.lastErr = nil
	h.opts.Notifier.Notify(notify.Positive, "record saved")
}

// Delete removes the bound record after confirmation. It is unavailable in
// create mode: "new" is not a persisted ID and nothing is sent to the store.
// On success the form resets to create mode and navigation returns to the
// collection list.
func (h *Handler) Delete(ctx context.Context) {
	if h.busy {
		h.opts.Notifier.Notify(notify.Warning, "another operation is in progress")
		return
	}
	if h.state != Clean && h.state != Dirty {
		h.opts.Notifier.Notify(notify.Warning, "no record is open")
		return
	}
	if h.id == common.NewDocumentID {
		h.opts.Notifier.Notify(notify.Warning, "record has not been saved yet")
		return
	}

	if !h.opts.Confirm("Delete record?") {
		return
	}

	h.busy = true
	defer func() { h.busy = false }()

	if err := h.opts.Store.Delete(ctx, h.opts.Schema.Collection, h.id); err != nil {
		h.lastErr = err
		h.opts.Notifier.Notify(notify.Negative, fmt.Sprintf("could not delete record: %v", err))
		return
	}

	h.reset()
	h.opts.Navigator.Navigate(h.opts.ListRoute)
	h.opts.Notifier.Notify(notify.Positive, "record deleted")
}

// Revert discards edits after confirmation: a persisted record reloads its
// stored state, a new record resets to defaults.
func (h *Handler) Revert(ctx context.Context) {
	if h.state != Dirty {
		return
	}
	if !h.opts.Confirm("Discard changes?") {
		return
	}

	if h.id == common.NewDocumentID {
		h.reset()
		return
	}
	h.Bind(ctx, h.id)
}

// ConfirmLeave gates navigating away. While dirty it asks; declining keeps
// the form (and the route) as-is, accepting drops the edits.
func (h *Handler) ConfirmLeave() bool {
	if h.state != Dirty {
		return true
	}
	if !h.opts.Confirm("You have unsaved changes. Leave anyway?") {
		return false
	}
	h.fields = cloneFields(h.snapshot)
	h.state = Clean
	return true
}

func (h *Handler) reset() {
	h.id = common.NewDocumentID
	h.fields = h.opts.Schema.EmptyDocument()
	h.snapshot = cloneFields(h.fields)
	h.state = Clean
	h.lastErr = nil
}

func (h *Handler) recomputeDirty() {
	if reflect.DeepEqual(h.fields, h.snapshot) {
		h.state = Clean
	} else {
		h.state = Dirty
	}
}

func (h *Handler) failLoad(ctx context.Context, message string, err error) {
	h.lastErr = err
	h.state = ErrorState
	if h.opts.Logger != nil {
		h.opts.Logger.Warn(ctx, "record load failed",
			"collection", h.opts.Schema.Collection, "id", h.id, "error", err)
	}
	h.opts.Notifier.Notify(notify.Negative, message)
	h.opts.Navigator.Navigate(h.opts.ListRoute + "/" + common.NewDocumentID)
}

func (h *Handler) failSave(ctx context.Context, prev State, err error) {
	h.lastErr = err
	// edits are preserved: a failed save leaves the form dirty, not clean
	if prev == Clean {
		h.state = Clean
	} else {
		h.state = Dirty
	}
	if h.opts.Logger != nil {
		h.opts.Logger.Warn(ctx, "record save failed",
			"collection", h.opts.Schema.Collection, "id", h.id, "error", err)
	}
	h.opts.Notifier.Notify(notify.Negative, fmt.Sprintf("could not save record: %v", err))
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
