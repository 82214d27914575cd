// Package app owns the application state for one visitor and applies
// every user operation to it.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
	"github.com/evcraddock/piso/internal/notify"
	"github.com/evcraddock/piso/internal/session"
)

// ErrBusy is returned when a save or submission is already in flight.
var ErrBusy = errors.New("operation already in progress")

// Deps are the collaborators a Controller needs.
type Deps struct {
	Listings listing.Store
	Leads    lead.Store
	Gate     *session.Gate
	Notifier *notify.Notifier
	// Now defaults to time.Now.
	Now func() time.Time
	// Location renders export dates; defaults to UTC.
	Location *time.Location
}

// State is a snapshot of everything the page shows.
type State struct {
	Loading      bool
	LeadsLoading bool

	Listing    listing.Record
	Draft      listing.Record
	Editing    bool
	Saving     bool
	PhotoInput string
	PhotoIndex int

	LoggedIn   bool
	LoginOpen  bool
	LoginError string

	Leads     []lead.Lead
	ShowLeads bool

	Form        lead.Form
	FormMessage string
	Submitting  bool

	Message string
}

// Controller serializes operations on one visitor's state. Store calls run
// without the lock held so the state stays readable while they wait.
type Controller struct {
	listings listing.Store
	leads    lead.Store
	gate     *session.Gate
	notifier *notify.Notifier
	now      func() time.Time
	loc      *time.Location

	mu           sync.Mutex
	rec          *listing.Reconciler
	carousel     listing.Carousel
	roster       lead.Roster
	loading      bool
	leadsLoading bool
	// listingLoaded is set once the store has answered First, even with an
	// empty table. Until then the committed record is only the default.
	listingLoaded bool
	saving       bool
	submitting   bool
	showLeads    bool
	photoInput   string
	form         lead.Form
	formMessage  string

	obsMu     sync.Mutex
	observers []func(State)
}

// New creates a Controller showing the default listing.
func New(d Deps) *Controller {
	c := &Controller{
		listings: d.Listings,
		leads:    d.Leads,
		gate:     d.Gate,
		notifier: d.Notifier,
		now:      d.Now,
		loc:      d.Location,
		rec:      listing.NewReconciler(listing.Default()),
		loading:  true,
		form:     lead.NewForm(),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.notifier == nil {
		c.notifier = notify.New(notify.DefaultDelay)
	}
	c.notifier.OnChange(func(string) { c.changed() })
	return c
}

// Subscribe registers fn to receive a snapshot after every state change.
func (c *Controller) Subscribe(fn func(State)) {
	c.obsMu.Lock()
	c.observers = append(c.observers, fn)
	c.obsMu.Unlock()
}

func (c *Controller) changed() {
	s := c.Snapshot()
	c.obsMu.Lock()
	observers := append([]func(State){}, c.observers...)
	c.obsMu.Unlock()
	for _, fn := range observers {
		fn(s)
	}
}

// publish announces a state change, showing msg when it is non-empty.
// It must be called without c.mu held.
func (c *Controller) publish(msg string) {
	if msg != "" {
		c.notifier.Notify(msg)
		return
	}
	c.changed()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Loading:      c.loading,
		LeadsLoading: c.leadsLoading,
		Listing:      c.rec.Committed(),
		Draft:        c.rec.Draft(),
		Editing:      c.rec.Editing(),
		Saving:       c.saving,
		PhotoInput:   c.photoInput,
		PhotoIndex:   c.carousel.Index(),
		LoggedIn:     c.gate.LoggedIn(),
		LoginOpen:    c.gate.PromptOpen(),
		LoginError:   c.gate.Error(),
		Leads:        c.roster.Leads(),
		ShowLeads:    c.showLeads,
		Form:         c.form,
		FormMessage:  c.formMessage,
		Submitting:   c.submitting,
		Message:      c.notifier.Current(),
	}
}

// Start loads the listing and the leads concurrently and waits for both.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.leadsLoading = true
	c.mu.Unlock()
	c.changed()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.LoadListing(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = c.LoadLeads(ctx)
	}()
	wg.Wait()
}

// Refresh reloads what a page load shows. The leads are always fetched; the
// listing is fetched unless a draft is open, or when it never loaded.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	reloadListing := !c.rec.Editing() || !c.listingLoaded
	c.mu.Unlock()

	var wg sync.WaitGroup
	if reloadListing {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.LoadListing(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.LoadLeads(ctx)
	}()
	wg.Wait()
}

// LoadListing fetches the stored listing. An empty table keeps the current
// record; any other failure is shown and also keeps it.
func (c *Controller) LoadListing(ctx context.Context) error {
	rec, err := c.listings.First(ctx)

	c.mu.Lock()
	c.loading = false
	var msg string
	switch {
	case errors.Is(err, listing.ErrNotFound):
		err = nil
		c.listingLoaded = true
	case err != nil:
		slog.Error("loading listing", "error", err)
		msg = MsgLoadError
	default:
		c.listingLoaded = true
		c.rec.SetCommitted(*rec)
		c.carousel.Removed(len(rec.Photos))
	}
	c.mu.Unlock()

	c.publish(msg)
	if err != nil {
		return fmt.Errorf("loading listing: %w", err)
	}
	return nil
}

// LoadLeads replaces the roster with the stored leads, newest first.
// Failures are logged and leave the roster unchanged.
func (c *Controller) LoadLeads(ctx context.Context) error {
	leads, err := c.leads.List(ctx)

	c.mu.Lock()
	c.leadsLoading = false
	if err == nil {
		c.roster.Replace(leads)
	}
	c.mu.Unlock()

	c.publish("")
	if err != nil {
		slog.Error("loading leads", "error", err)
		return fmt.Errorf("loading leads: %w", err)
	}
	return nil
}

// BeginEdit enters edit mode, or opens the login prompt when logged out.
// It reports whether edit mode is active.
func (c *Controller) BeginEdit() bool {
	c.mu.Lock()
	editing := c.gate.LoggedIn()
	if editing {
		c.rec.BeginEdit()
	} else {
		c.gate.OpenPrompt()
	}
	c.mu.Unlock()

	c.publish("")
	return editing
}

// CancelEdit discards the draft and leaves edit mode.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.rec.Cancel()
	c.photoInput = ""
	c.mu.Unlock()

	c.publish("")
}

// SetField updates one draft field.
func (c *Controller) SetField(f listing.Field, value string) error {
	c.mu.Lock()
	err := c.rec.Set(f, value)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	c.publish("")
	return nil
}

// SetPhotoInput records the pending photo URL.
func (c *Controller) SetPhotoInput(url string) {
	c.mu.Lock()
	c.photoInput = url
	c.mu.Unlock()

	c.publish("")
}

// AddPhoto appends the pending photo URL to the draft.
func (c *Controller) AddPhoto() error {
	c.mu.Lock()
	err := c.rec.AddPhoto(c.photoInput)
	var msg string
	switch {
	case errors.Is(err, listing.ErrBlankPhotoURL):
		msg = MsgInvalidPhotoURL
	case err == nil:
		c.photoInput = ""
		msg = MsgPhotoAdded
	}
	c.mu.Unlock()

	c.publish(msg)
	return err
}

// RemovePhoto deletes a draft photo and keeps the carousel in range.
func (c *Controller) RemovePhoto(index int) error {
	c.mu.Lock()
	remaining, err := c.rec.RemovePhoto(index)
	var msg string
	if err == nil {
		c.carousel.Removed(remaining)
		msg = MsgPhotoRemoved
	}
	c.mu.Unlock()

	c.publish(msg)
	return err
}

// NextPhoto advances the carousel over the committed photos.
func (c *Controller) NextPhoto() {
	c.mu.Lock()
	c.carousel.Next(len(c.rec.Committed().Photos))
	c.mu.Unlock()

	c.publish("")
}

// PrevPhoto steps the carousel back over the committed photos.
func (c *Controller) PrevPhoto() {
	c.mu.Lock()
	c.carousel.Prev(len(c.rec.Committed().Photos))
	c.mu.Unlock()

	c.publish("")
}

// ShowPhoto jumps the carousel to index.
func (c *Controller) ShowPhoto(index int) {
	c.mu.Lock()
	c.carousel.Go(index, len(c.rec.Committed().Photos))
	c.mu.Unlock()

	c.publish("")
}

// Commit saves the draft. On failure the draft and edit mode are kept.
// A listing that never loaded is fetched first so the save updates the
// stored row instead of inserting another.
func (c *Controller) Commit(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.listingLoaded
	c.mu.Unlock()
	if !loaded {
		if err := c.LoadListing(ctx); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.gate.LoggedIn() {
		c.mu.Unlock()
		return session.ErrLocked
	}
	pending, err := c.rec.Pending(c.now())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.saving = true
	c.mu.Unlock()
	c.publish("")

	stored, err := c.listings.Upsert(ctx, pending)

	c.mu.Lock()
	c.saving = false
	msg := MsgSaved
	if err != nil {
		slog.Error("saving listing", "error", err)
		msg = MsgSaveError
	} else {
		c.rec.Commit(*stored)
	}
	c.mu.Unlock()

	c.publish(msg)
	if err != nil {
		return fmt.Errorf("saving listing: %w", err)
	}
	return nil
}

// SetForm replaces the public form's input.
func (c *Controller) SetForm(f lead.Form) {
	c.mu.Lock()
	c.form = f
	c.mu.Unlock()

	c.publish("")
}

// SubmitLead stores the public form as a new lead, resets the form and
// reloads the roster. On failure the input is kept.
func (c *Controller) SubmitLead(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	form := c.form
	if err := form.Validate(); err != nil {
		c.formMessage = MsgFormMissing
		c.mu.Unlock()
		c.publish("")
		return err
	}
	c.submitting = true
	c.formMessage = ""
	c.mu.Unlock()
	c.publish("")

	_, err := c.leads.Insert(ctx, form)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		slog.Error("saving lead", "error", err)
		c.formMessage = MsgSubmitError
	} else {
		c.formMessage = MsgSubmitted
		c.form = lead.NewForm()
	}
	c.mu.Unlock()
	c.publish("")

	if err != nil {
		return fmt.Errorf("saving lead: %w", err)
	}

	// The roster must reflect the insert, so this runs after it completes.
	_ = c.LoadLeads(ctx)
	return nil
}

// DeleteLead removes a lead from the store and then from the roster. A
// lead already gone from the store is dropped from the roster too.
func (c *Controller) DeleteLead(ctx context.Context, id string) error {
	if !c.loggedIn() {
		return session.ErrLocked
	}

	err := c.leads.Delete(ctx, id)
	if errors.Is(err, lead.ErrNotFound) {
		err = nil
	}

	c.mu.Lock()
	msg := MsgLeadDeleted
	if err != nil {
		slog.Error("deleting lead", "id", id, "error", err)
		msg = MsgDeleteError
	} else {
		c.roster.Remove(id)
	}
	c.mu.Unlock()

	c.publish(msg)
	if err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	return nil
}

// ExportLeads renders the roster as CSV and returns the download name.
func (c *Controller) ExportLeads() (string, []byte, error) {
	c.mu.Lock()
	if !c.gate.LoggedIn() {
		c.mu.Unlock()
		return "", nil, session.ErrLocked
	}
	leads := c.roster.Leads()
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := lead.WriteCSV(&buf, leads, c.loc); err != nil {
		if errors.Is(err, lead.ErrEmptyRoster) {
			c.publish(MsgNothingToExport)
		}
		return "", nil, err
	}

	c.publish(MsgExported)
	return lead.ExportFileName(c.now()), buf.Bytes(), nil
}

// ToggleLeads shows or hides the admin leads panel. The panel is only
// reachable while logged in and editing.
func (c *Controller) ToggleLeads() {
	c.mu.Lock()
	if c.gate.LoggedIn() && c.rec.Editing() {
		c.showLeads = !c.showLeads
	}
	c.mu.Unlock()

	c.publish("")
}

// OpenLogin shows the login prompt.
func (c *Controller) OpenLogin() {
	c.mu.Lock()
	c.gate.OpenPrompt()
	c.mu.Unlock()

	c.publish("")
}

// CancelLogin hides the login prompt and clears its error.
func (c *Controller) CancelLogin() {
	c.mu.Lock()
	c.gate.CancelPrompt()
	c.mu.Unlock()

	c.publish("")
}

// Login runs the password challenge. A match enters edit mode at once.
// The error reports a failure to persist the session flag only.
func (c *Controller) Login(secret string) (bool, error) {
	c.mu.Lock()
	ok, err := c.gate.Challenge(secret)
	var msg string
	if ok {
		c.rec.BeginEdit()
		msg = MsgAccessGranted
	}
	c.mu.Unlock()

	if err != nil {
		slog.Warn("session flag not persisted", "error", err)
	}
	c.publish(msg)
	return ok, err
}

// Logout leaves edit mode, closes the admin panels and clears the flag.
func (c *Controller) Logout() error {
	c.mu.Lock()
	err := c.gate.Logout()
	c.rec.Cancel()
	c.photoInput = ""
	c.showLeads = false
	c.mu.Unlock()

	if err != nil {
		slog.Warn("session flag not cleared", "error", err)
	}
	c.publish(MsgLoggedOut)
	return err
}

// Close stops the notifier's pending timer.
func (c *Controller) Close() {
	c.notifier.Stop()
}

func (c *Controller) loggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gate.LoggedIn()
}
