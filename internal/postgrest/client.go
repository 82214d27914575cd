// Package postgrest stores the listing and the leads in a hosted table
// service that speaks the PostgREST protocol.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
)

const (
	listingTable = "apartment_data"
	leadTable    = "contacts"

	// codeNoRows is returned when a single-object read matches no rows.
	codeNoRows = "PGRST116"

	mediaJSON   = "application/json"
	mediaObject = "application/vnd.pgrst.object+json"
)

var (
	_ listing.Store = (*Client)(nil)
	_ lead.Store    = (*Client)(nil)
)

// Error is a failure reported by the table service.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("table service %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("table service %d: %s", e.Status, e.Message)
}

// Client talks to the table service at baseURL, e.g.
// https://project.supabase.co/rest/v1.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client authenticated with apiKey.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// First returns the most recently updated listing row.
func (c *Client) First(ctx context.Context) (*listing.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "updated_at.desc.nullslast")
	q.Set("limit", "1")

	var rec listing.Record
	err := c.do(ctx, http.MethodGet, listingTable, q, nil, &rec, header{"Accept", mediaObject})
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Code == codeNoRows {
		return nil, listing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	rec = rec.Clone()
	return &rec, nil
}

// Upsert writes rec, generating an ID for a new row.
func (c *Client) Upsert(ctx context.Context, rec listing.Record) (*listing.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Photos == nil {
		rec.Photos = []string{}
	}

	q := url.Values{}
	q.Set("on_conflict", "id")

	var rows []listing.Record
	err := c.do(ctx, http.MethodPost, listingTable, q, rec, &rows,
		header{"Prefer", "resolution=merge-duplicates,return=representation"})
	if err != nil {
		return nil, fmt.Errorf("saving listing: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("saving listing: no row returned")
	}
	stored := rows[0].Clone()
	return &stored, nil
}

// Insert stores a new lead. The service assigns created_at.
func (c *Client) Insert(ctx context.Context, f lead.Form) (*lead.Lead, error) {
	row := struct {
		ID string `json:"id"`
		lead.Form
	}{ID: uuid.NewString(), Form: f}

	var rows []lead.Lead
	if err := c.do(ctx, http.MethodPost, leadTable, nil, row, &rows,
		header{"Prefer", "return=representation"}); err != nil {
		return nil, fmt.Errorf("inserting lead: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("inserting lead: no row returned")
	}
	return &rows[0], nil
}

// List returns every lead, newest first.
func (c *Client) List(ctx context.Context) ([]lead.Lead, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	leads := []lead.Lead{}
	if err := c.do(ctx, http.MethodGet, leadTable, q, nil, &leads); err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

// Delete removes the lead with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	var rows []lead.Lead
	if err := c.do(ctx, http.MethodDelete, leadTable, q, nil, &rows,
		header{"Prefer", "return=representation"}); err != nil {
		return fmt.Errorf("deleting lead %s: %w", id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("deleting lead %s: %w", id, lead.ErrNotFound)
	}
	return nil
}

type header struct{ key, value string }

// do sends one request to table and decodes the response into result.
func (c *Client) do(ctx context.Context, method, table string, q url.Values, body, result any, headers ...header) error {
	endpoint := c.baseURL + "/" + table
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", mediaJSON)
	}
	req.Header.Set("Accept", mediaJSON)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
