package postgrest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
)

// tableService emulates the subset of the PostgREST protocol the client
// uses, over in-memory rows.
type tableService struct {
	t *testing.T

	mu       sync.Mutex
	listings map[string]listing.Record
	leads    []lead.Lead
	clock    time.Time
	failWith int
}

func newTableService(t *testing.T) (*tableService, *Client) {
	t.Helper()
	ts := &tableService{
		t:        t,
		listings: map[string]listing.Record{},
		clock:    time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
	}
	srv := httptest.NewServer(ts)
	t.Cleanup(srv.Close)
	return ts, New(srv.URL+"/rest/v1/", "anon-key")
}

func (ts *tableService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if r.Header.Get("apikey") != "anon-key" || r.Header.Get("Authorization") != "Bearer anon-key" {
		ts.fail(w, http.StatusUnauthorized, "PGRST301", "missing credentials")
		return
	}
	if ts.failWith != 0 {
		ts.fail(w, ts.failWith, "XX000", "boom")
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/rest/v1/") {
	case listingTable:
		ts.serveListing(w, r)
	case leadTable:
		ts.serveLeads(w, r)
	default:
		ts.fail(w, http.StatusNotFound, "PGRST205", "unknown table")
	}
}

func (ts *tableService) serveListing(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		assert.Equal(ts.t, mediaObject, r.Header.Get("Accept"))
		assert.Equal(ts.t, "updated_at.desc.nullslast", r.URL.Query().Get("order"))
		var latest *listing.Record
		for _, rec := range ts.listings {
			if latest == nil || rec.UpdatedAt.After(*latest.UpdatedAt) {
				r := rec
				latest = &r
			}
		}
		if latest == nil {
			ts.fail(w, http.StatusNotAcceptable, codeNoRows, "JSON object requested, multiple (or no) rows returned")
			return
		}
		ts.write(w, http.StatusOK, latest)
	case http.MethodPost:
		assert.Equal(ts.t, "id", r.URL.Query().Get("on_conflict"))
		assert.Contains(ts.t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		var rec listing.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			ts.fail(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		ts.listings[rec.ID] = rec
		ts.write(w, http.StatusCreated, []listing.Record{rec})
	default:
		ts.fail(w, http.StatusMethodNotAllowed, "", "method not allowed")
	}
}

func (ts *tableService) serveLeads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		assert.Equal(ts.t, "created_at.desc", r.URL.Query().Get("order"))
		out := make([]lead.Lead, 0, len(ts.leads))
		for i := len(ts.leads) - 1; i >= 0; i-- {
			out = append(out, ts.leads[i])
		}
		ts.write(w, http.StatusOK, out)
	case http.MethodPost:
		var l lead.Lead
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			ts.fail(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		ts.clock = ts.clock.Add(time.Second)
		l.CreatedAt = ts.clock
		ts.leads = append(ts.leads, l)
		ts.write(w, http.StatusCreated, []lead.Lead{l})
	case http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
		deleted := []lead.Lead{}
		kept := ts.leads[:0]
		for _, l := range ts.leads {
			if l.ID == id {
				deleted = append(deleted, l)
				continue
			}
			kept = append(kept, l)
		}
		ts.leads = kept
		ts.write(w, http.StatusOK, deleted)
	default:
		ts.fail(w, http.StatusMethodNotAllowed, "", "method not allowed")
	}
}

func (ts *tableService) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(ts.t, json.NewEncoder(w).Encode(v))
}

func (ts *tableService) fail(w http.ResponseWriter, status int, code, msg string) {
	ts.write(w, status, Error{Code: code, Message: msg})
}

func TestFirstEmptyTable(t *testing.T) {
	_, c := newTableService(t)

	_, err := c.First(context.Background())
	assert.ErrorIs(t, err, listing.ErrNotFound)
}

func TestUpsertThenFirst(t *testing.T) {
	_, c := newTableService(t)
	ctx := context.Background()

	rec := listing.Default()
	rec.Title = "Ático"
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	rec.UpdatedAt = &now

	stored, err := c.Upsert(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	assert.Equal(t, "Ático", stored.Title)

	got, err := c.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, rec.Photos, got.Photos)
	assert.True(t, got.UpdatedAt.Equal(now))
}

func TestUpsertUpdatesSameRow(t *testing.T) {
	ts, c := newTableService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	rec := listing.Default()
	rec.UpdatedAt = &now
	first, err := c.Upsert(ctx, rec)
	require.NoError(t, err)

	first.Rooms = "5"
	_, err = c.Upsert(ctx, *first)
	require.NoError(t, err)

	assert.Len(t, ts.listings, 1)
	assert.Equal(t, "5", ts.listings[first.ID].Rooms)
}

func TestUpsertNilPhotosSendsEmptyArray(t *testing.T) {
	_, c := newTableService(t)
	now := time.Now().UTC()

	stored, err := c.Upsert(context.Background(), listing.Record{Title: "x", UpdatedAt: &now})
	require.NoError(t, err)
	assert.NotNil(t, stored.Photos)
	assert.Empty(t, stored.Photos)
}

func TestLeadLifecycle(t *testing.T) {
	_, c := newTableService(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"t1", "t2", "t3"} {
		l, err := c.Insert(ctx, lead.Form{Name: name, Email: "e@x.com", Phone: "6", Message: lead.DefaultMessage})
		require.NoError(t, err)
		assert.NotEmpty(t, l.ID)
		assert.False(t, l.CreatedAt.IsZero())
		ids = append(ids, l.ID)
	}

	leads, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "t3", leads[0].Name)
	assert.Equal(t, "t1", leads[2].Name)
	assert.Equal(t, lead.DefaultMessage, leads[0].Message)

	require.NoError(t, c.Delete(ctx, ids[1]))
	leads, err = c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	assert.ErrorIs(t, c.Delete(ctx, ids[1]), lead.ErrNotFound)
}

func TestListEmptyIsNonNil(t *testing.T) {
	_, c := newTableService(t)

	leads, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestServiceError(t *testing.T) {
	ts, c := newTableService(t)
	ts.failWith = http.StatusInternalServerError

	_, err := c.First(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, listing.ErrNotFound)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "XX000", apiErr.Code)

	_, err = c.Insert(context.Background(), lead.Form{Name: "a"})
	assert.Error(t, err)
}

func TestUnauthorized(t *testing.T) {
	ts, _ := newTableService(t)
	srv := httptest.NewServer(ts)
	defer srv.Close()

	c := New(srv.URL+"/rest/v1", "")
	_, err := c.List(context.Background())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestContextCanceled(t *testing.T) {
	_, c := newTableService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
