package listing

import (
	"strings"
	"time"
)

// Reconciler holds the committed listing and the draft being edited.
//
// Outside edit mode the draft always equals the committed record: every
// change to the committed record re-seeds the draft. Field and photo
// mutations apply to the draft only and are rejected outside edit mode.
type Reconciler struct {
	committed Record
	draft     Record
	editing   bool
}

// NewReconciler starts with initial as the committed record.
func NewReconciler(initial Record) *Reconciler {
	r := &Reconciler{}
	r.SetCommitted(initial)
	return r
}

// Committed returns a copy of the committed record.
func (r *Reconciler) Committed() Record { return r.committed.Clone() }

// Draft returns a copy of the draft record.
func (r *Reconciler) Draft() Record { return r.draft.Clone() }

// Editing reports whether edit mode is active.
func (r *Reconciler) Editing() bool { return r.editing }

// SetCommitted replaces the committed record.
func (r *Reconciler) SetCommitted(rec Record) {
	r.committed = rec.Clone()
	r.sync()
}

func (r *Reconciler) sync() {
	if !r.editing {
		r.draft = r.committed.Clone()
	}
}

// BeginEdit enters edit mode with a fresh draft.
func (r *Reconciler) BeginEdit() {
	r.draft = r.committed.Clone()
	r.editing = true
}

// Cancel discards the draft and leaves edit mode.
func (r *Reconciler) Cancel() {
	r.editing = false
	r.sync()
}

// Set writes one draft field.
func (r *Reconciler) Set(f Field, value string) error {
	if !r.editing {
		return ErrNotEditing
	}
	return r.draft.set(f, value)
}

// AddPhoto appends a trimmed URL to the draft photos.
func (r *Reconciler) AddPhoto(url string) error {
	if !r.editing {
		return ErrNotEditing
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrBlankPhotoURL
	}
	r.draft.Photos = append(r.draft.Photos, url)
	return nil
}

// RemovePhoto deletes the draft photo at index and returns how many remain.
func (r *Reconciler) RemovePhoto(index int) (int, error) {
	if !r.editing {
		return len(r.draft.Photos), ErrNotEditing
	}
	if index < 0 || index >= len(r.draft.Photos) {
		return len(r.draft.Photos), ErrPhotoIndex
	}
	photos := make([]string, 0, len(r.draft.Photos)-1)
	photos = append(photos, r.draft.Photos[:index]...)
	photos = append(photos, r.draft.Photos[index+1:]...)
	r.draft.Photos = photos
	return len(photos), nil
}

// Pending returns the record to upsert: the draft carrying the committed
// identifier (empty before the first save) and now as its update time.
func (r *Reconciler) Pending(now time.Time) (Record, error) {
	if !r.editing {
		return Record{}, ErrNotEditing
	}
	rec := r.draft.Clone()
	rec.ID = r.committed.ID
	t := now.UTC()
	rec.UpdatedAt = &t
	return rec, nil
}

// Commit records a successful save of stored and leaves edit mode.
func (r *Reconciler) Commit(stored Record) {
	r.editing = false
	r.SetCommitted(stored)
}
