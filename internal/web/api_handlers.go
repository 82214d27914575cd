package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encoding json response", "error", err)
	}
}

// requireSecret admits requests carrying the admin secret as a bearer token.
func (s *Server) requireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			apiError(w, "authorization required", http.StatusUnauthorized)
			return
		}
		if !s.opts.Checker.Check(token) {
			apiError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// apiGetListing returns the stored listing, or the default one when the
// table is empty.
func (s *Server) apiGetListing(w http.ResponseWriter, r *http.Request) {
	rec, err := s.opts.Listings.First(r.Context())
	switch {
	case errors.Is(err, listing.ErrNotFound):
		def := listing.Default()
		rec = &def
	case err != nil:
		slog.Error("api: loading listing", "error", err)
		apiError(w, "failed to load listing", http.StatusInternalServerError)
		return
	}
	apiJSON(w, rec, http.StatusOK)
}

func (s *Server) apiSubmitLead(w http.ResponseWriter, r *http.Request) {
	var form lead.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := form.Validate(); err != nil {
		var verr *lead.ValidationError
		if errors.As(err, &verr) {
			apiJSON(w, map[string]any{"error": err.Error(), "missing": verr.Missing}, http.StatusBadRequest)
			return
		}
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := s.opts.Leads.Insert(r.Context(), form)
	if err != nil {
		slog.Error("api: saving lead", "error", err)
		apiError(w, "failed to save lead", http.StatusInternalServerError)
		return
	}
	apiJSON(w, created, http.StatusCreated)
}

func (s *Server) apiListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.opts.Leads.List(r.Context())
	if err != nil {
		slog.Error("api: listing leads", "error", err)
		apiError(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	apiJSON(w, leads, http.StatusOK)
}

func (s *Server) apiDeleteLead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.opts.Leads.Delete(r.Context(), id)
	switch {
	case errors.Is(err, lead.ErrNotFound):
		apiError(w, "lead not found", http.StatusNotFound)
	case err != nil:
		slog.Error("api: deleting lead", "id", id, "error", err)
		apiError(w, "failed to delete lead", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) apiExportLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.opts.Leads.List(r.Context())
	if err != nil {
		slog.Error("api: listing leads", "error", err)
		apiError(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := lead.WriteCSV(&buf, leads, s.opts.Location); err != nil {
		if errors.Is(err, lead.ErrEmptyRoster) {
			apiError(w, err.Error(), http.StatusNotFound)
			return
		}
		apiError(w, "failed to export leads", http.StatusInternalServerError)
		return
	}
	writeCSV(w, lead.ExportFileName(time.Now()), buf.Bytes())
}
