// Package web serves the listing page, the admin editing flow and the JSON API.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
	"github.com/evcraddock/piso/internal/logging"
	"github.com/evcraddock/piso/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configure a Server.
type Options struct {
	Listings listing.Store
	Leads    lead.Store
	Checker  session.CredentialChecker
	// Flags returns the durable flag store of one visitor.
	Flags func(visitorID string) session.FlagStore

	NotifyDelay time.Duration
	Location    *time.Location
	// RateLimit is the number of public POSTs allowed per minute per IP.
	// Zero disables limiting.
	RateLimit int
	// TrustProxy keys the limiter on X-Forwarded-For. Enable it only
	// behind a reverse proxy that overwrites the header.
	TrustProxy bool
}

// Server is the web UI HTTP server.
type Server struct {
	opts       Options
	templates  *template.Template
	mux        *http.ServeMux
	workspaces *workspaces
	limiter    *ipLimiter
}

// NewServer creates a web server over the given stores.
func NewServer(opts Options) (*Server, error) {
	if opts.Listings == nil || opts.Leads == nil {
		return nil, fmt.Errorf("web server needs listing and lead stores")
	}
	if opts.Checker == nil {
		opts.Checker = session.StaticPassword(session.DefaultPassword)
	}
	if opts.Flags == nil {
		opts.Flags = func(string) session.FlagStore { return session.NewMemoryFlags() }
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	funcMap := template.FuncMap{
		"inc":   func(i int) int { return i + 1 },
		"lines": listing.Lines,
		"date":  func(t time.Time) string { return lead.FormatDate(t, opts.Location) },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		opts:       opts,
		templates:  tmpl,
		mux:        http.NewServeMux(),
		workspaces: newWorkspaces(opts),
		limiter:    newIPLimiter(opts.RateLimit),
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("GET /health", handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handlePage)

	s.mux.HandleFunc("POST /edit", s.action(s.handleEdit))
	s.mux.HandleFunc("POST /edit/cancel", s.action(s.handleCancelEdit))
	s.mux.HandleFunc("POST /edit/save", s.action(s.handleSave))
	s.mux.HandleFunc("POST /edit/photos", s.action(s.handleAddPhoto))
	s.mux.HandleFunc("POST /edit/photos/remove", s.action(s.handleRemovePhoto))

	s.mux.HandleFunc("POST /photos/next", s.action(s.handleNextPhoto))
	s.mux.HandleFunc("POST /photos/prev", s.action(s.handlePrevPhoto))
	s.mux.HandleFunc("POST /photos/show", s.action(s.handleShowPhoto))

	s.mux.HandleFunc("POST /leads", s.limited(s.action(s.handleSubmitLead)))
	s.mux.HandleFunc("POST /leads/delete", s.action(s.handleDeleteLead))
	s.mux.HandleFunc("POST /leads/toggle", s.action(s.handleToggleLeads))
	s.mux.HandleFunc("GET /leads/export", s.handleExport)

	s.mux.HandleFunc("POST /login/open", s.action(s.handleOpenLogin))
	s.mux.HandleFunc("POST /login/cancel", s.action(s.handleCancelLogin))
	s.mux.HandleFunc("POST /login", s.limited(s.action(s.handleLogin)))
	s.mux.HandleFunc("POST /logout", s.action(s.handleLogout))

	s.mux.HandleFunc("GET /api/listing", s.apiGetListing)
	s.mux.HandleFunc("POST /api/leads", s.limited(s.apiSubmitLead))
	s.mux.HandleFunc("GET /api/leads", s.requireSecret(s.apiListLeads))
	s.mux.HandleFunc("GET /api/leads/export", s.requireSecret(s.apiExportLeads))
	s.mux.HandleFunc("DELETE /api/leads/{id}", s.requireSecret(s.apiDeleteLead))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestLogger(s)
}

// Close stops every visitor workspace.
func (s *Server) Close() {
	s.workspaces.closeAll()
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port string) error {
	addr := ":" + port
	slog.Info("starting web UI", "url", "http://localhost"+addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Error al mostrar la página", http.StatusInternalServerError)
	}
}
