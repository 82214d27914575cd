package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/piso/internal/app"
	"github.com/evcraddock/piso/internal/notify"
	"github.com/evcraddock/piso/internal/session"
)

const (
	visitorCookie = "piso_visitor"
	visitorMaxAge = 365 * 24 * time.Hour
	// idleAfter is how long an unused workspace is kept in memory. Its
	// durable flags survive eviction.
	idleAfter = 12 * time.Hour
)

type workspace struct {
	ctrl     *app.Controller
	lastSeen time.Time
}

// workspaces holds one Controller per visitor, like one browser tab each.
type workspaces struct {
	opts Options
	now  func() time.Time

	mu    sync.Mutex
	byID  map[string]*workspace
	ready map[string]chan struct{}
}

func newWorkspaces(opts Options) *workspaces {
	return &workspaces{
		opts:  opts,
		now:   time.Now,
		byID:  make(map[string]*workspace),
		ready: make(map[string]chan struct{}),
	}
}

// get returns the visitor's Controller, creating and loading it on first use.
// created reports whether this call did the initial load.
func (ws *workspaces) get(ctx context.Context, visitorID string) (ctrl *app.Controller, created bool) {
	ws.mu.Lock()
	ws.evictIdle()
	if w, ok := ws.byID[visitorID]; ok {
		w.lastSeen = ws.now()
		ready := ws.ready[visitorID]
		ws.mu.Unlock()
		if ready != nil {
			<-ready
		}
		return w.ctrl, false
	}

	gate, err := session.NewGate(ws.opts.Checker, ws.opts.Flags(visitorID))
	if err != nil {
		// The gate still works logged out; the flag is rewritten on login.
		slog.Warn("restoring session flag", "visitor", visitorID, "error", err)
	}
	ctrl = app.New(app.Deps{
		Listings: ws.opts.Listings,
		Leads:    ws.opts.Leads,
		Gate:     gate,
		Notifier: notify.New(ws.opts.NotifyDelay),
		Location: ws.opts.Location,
	})
	ready := make(chan struct{})
	ws.byID[visitorID] = &workspace{ctrl: ctrl, lastSeen: ws.now()}
	ws.ready[visitorID] = ready
	ws.mu.Unlock()

	// The load outlives the request that triggered it; waiters share it.
	ctrl.Start(context.WithoutCancel(ctx))

	ws.mu.Lock()
	delete(ws.ready, visitorID)
	ws.mu.Unlock()
	close(ready)
	return ctrl, true
}

// evictIdle drops workspaces unused for idleAfter. Caller holds ws.mu.
func (ws *workspaces) evictIdle() {
	cutoff := ws.now().Add(-idleAfter)
	for id, w := range ws.byID {
		if _, loading := ws.ready[id]; loading {
			continue
		}
		if w.lastSeen.Before(cutoff) {
			w.ctrl.Close()
			delete(ws.byID, id)
		}
	}
}

func (ws *workspaces) closeAll() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for id, w := range ws.byID {
		w.ctrl.Close()
		delete(ws.byID, id)
	}
}

func (ws *workspaces) len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.byID)
}

// visitorID returns the visitor cookie, issuing a new one when absent or
// malformed.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// controller resolves the requesting visitor's Controller.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) *app.Controller {
	c, _ := s.workspaces.get(r.Context(), visitorID(w, r))
	return c
}
