package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/piso/internal/app"
	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
	"github.com/evcraddock/piso/internal/session"
)

type fieldView struct {
	Name      string
	Label     string
	Value     string
	Multiline bool
}

type pageData struct {
	app.State
	Photo      string
	HasPhotos  bool
	PhotoCount int
	LeadCount  int
	Fields     []fieldView
}

var fieldLabels = map[listing.Field]string{
	listing.FieldTitle:       "Título",
	listing.FieldPrice:       "Precio",
	listing.FieldAddress:     "Dirección",
	listing.FieldMeters:      "Construidos (m²)",
	listing.FieldRooms:       "Habitaciones",
	listing.FieldBathrooms:   "Baños",
	listing.FieldFloor:       "Planta",
	listing.FieldDescription: "Descripción",
	listing.FieldFeatures:    "Características",
}

func newPageData(st app.State) pageData {
	d := pageData{
		State:      st,
		PhotoCount: len(st.Listing.Photos),
		LeadCount:  len(st.Leads),
	}
	if i := st.PhotoIndex; i >= 0 && i < len(st.Listing.Photos) {
		d.Photo = st.Listing.Photos[i]
		d.HasPhotos = true
	}
	for _, f := range listing.Fields {
		d.Fields = append(d.Fields, fieldView{
			Name:      string(f),
			Label:     fieldLabels[f],
			Value:     st.Draft.Get(f),
			Multiline: f == listing.FieldDescription || f == listing.FieldFeatures,
		})
	}
	return d
}

// handlePage renders the listing page for the requesting visitor. Every
// page load refetches the listing and the leads, like a fresh start.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	c, created := s.workspaces.get(r.Context(), visitorID(w, r))
	if !created {
		c.Refresh(context.WithoutCancel(r.Context()))
	}
	s.render(w, "page.html", newPageData(c.Snapshot()))
}

// action wraps a form POST. Outcomes are kept in the visitor's state, so
// the handler answers with the refreshed page: the content partial for
// HTMX requests, a redirect otherwise.
func (s *Server) action(fn func(r *http.Request, c *app.Controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		c := s.controller(w, r)
		if err := fn(r, c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if r.Header.Get("HX-Request") == "true" {
			s.render(w, "content", newPageData(c.Snapshot()))
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleEdit(r *http.Request, c *app.Controller) error {
	c.BeginEdit()
	return nil
}

func (s *Server) handleCancelEdit(r *http.Request, c *app.Controller) error {
	c.CancelEdit()
	return nil
}

func (s *Server) handleSave(r *http.Request, c *app.Controller) error {
	applyDraft(r, c)
	_ = c.Commit(r.Context())
	return nil
}

func (s *Server) handleAddPhoto(r *http.Request, c *app.Controller) error {
	applyDraft(r, c)
	c.SetPhotoInput(r.PostFormValue("photo_url"))
	_ = c.AddPhoto()
	return nil
}

func (s *Server) handleRemovePhoto(r *http.Request, c *app.Controller) error {
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		return fmt.Errorf("invalid photo index")
	}
	applyDraft(r, c)
	_ = c.RemovePhoto(index)
	return nil
}

func (s *Server) handleNextPhoto(r *http.Request, c *app.Controller) error {
	c.NextPhoto()
	return nil
}

func (s *Server) handlePrevPhoto(r *http.Request, c *app.Controller) error {
	c.PrevPhoto()
	return nil
}

func (s *Server) handleShowPhoto(r *http.Request, c *app.Controller) error {
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		return fmt.Errorf("invalid photo index")
	}
	c.ShowPhoto(index)
	return nil
}

func (s *Server) handleSubmitLead(r *http.Request, c *app.Controller) error {
	c.SetForm(lead.Form{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Message: normalizeNewlines(r.PostFormValue("message")),
	})
	_ = c.SubmitLead(r.Context())
	return nil
}

func (s *Server) handleDeleteLead(r *http.Request, c *app.Controller) error {
	id := r.PostFormValue("id")
	if id == "" {
		return fmt.Errorf("missing lead ID")
	}
	_ = c.DeleteLead(r.Context(), id)
	return nil
}

func (s *Server) handleToggleLeads(r *http.Request, c *app.Controller) error {
	c.ToggleLeads()
	return nil
}

func (s *Server) handleOpenLogin(r *http.Request, c *app.Controller) error {
	c.OpenLogin()
	return nil
}

func (s *Server) handleCancelLogin(r *http.Request, c *app.Controller) error {
	c.CancelLogin()
	return nil
}

func (s *Server) handleLogin(r *http.Request, c *app.Controller) error {
	_, _ = c.Login(r.PostFormValue("password"))
	return nil
}

func (s *Server) handleLogout(r *http.Request, c *app.Controller) error {
	_ = c.Logout()
	return nil
}

// handleExport downloads the visitor's roster as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	name, data, err := c.ExportLeads()
	switch {
	case errors.Is(err, session.ErrLocked):
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case err != nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeCSV(w, name, data)
}

func writeCSV(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if _, err := w.Write(data); err != nil {
		slog.Warn("writing csv", "error", err)
	}
}

// applyDraft copies the posted listing fields into the draft.
func applyDraft(r *http.Request, c *app.Controller) {
	for _, f := range listing.Fields {
		vals, ok := r.PostForm[string(f)]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := c.SetField(f, normalizeNewlines(vals[0])); err != nil {
			return
		}
	}
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
