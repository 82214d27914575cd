package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository stores the listing in the apartment_data table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, title, price, address, meters, rooms, bathrooms, floor, description, features, photos, updated_at`

const upsertSQL = `INSERT INTO apartment_data
	(id, title, price, address, meters, rooms, bathrooms, floor, description, features, photos, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		price = excluded.price,
		address = excluded.address,
		meters = excluded.meters,
		rooms = excluded.rooms,
		bathrooms = excluded.bathrooms,
		floor = excluded.floor,
		description = excluded.description,
		features = excluded.features,
		photos = excluded.photos,
		updated_at = excluded.updated_at`

// First returns the most recently updated listing row.
func (r *Repository) First(ctx context.Context) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM apartment_data ORDER BY updated_at DESC LIMIT 1", selectColumns)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing: %w", err)
	}
	return rec, nil
}

// GetByID returns the listing row with the given identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM apartment_data WHERE id = ?", selectColumns)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", id, err)
	}
	return rec, nil
}

// Upsert inserts or updates the listing row. A record without an ID gets a
// new one.
func (r *Repository) Upsert(ctx context.Context, rec Record) (*Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	photos := rec.Photos
	if photos == nil {
		photos = []string{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("encoding photos: %w", err)
	}

	var updatedAt interface{}
	if rec.UpdatedAt != nil {
		updatedAt = rec.UpdatedAt.UTC()
	}

	if _, err := r.db.ExecContext(ctx, upsertSQL,
		rec.ID, rec.Title, rec.Price, rec.Address, rec.Meters, rec.Rooms,
		rec.Bathrooms, rec.Floor, rec.Description, rec.Features,
		string(photosJSON), updatedAt,
	); err != nil {
		return nil, fmt.Errorf("upserting listing: %w", err)
	}

	return r.GetByID(ctx, rec.ID)
}

// scanRecord scans a listing from a database row.
func scanRecord(row interface{ Scan(...interface{}) error }) (*Record, error) {
	var rec Record
	var photosJSON string
	var updatedAt sql.NullTime

	if err := row.Scan(
		&rec.ID, &rec.Title, &rec.Price, &rec.Address, &rec.Meters, &rec.Rooms,
		&rec.Bathrooms, &rec.Floor, &rec.Description, &rec.Features,
		&photosJSON, &updatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(photosJSON), &rec.Photos); err != nil {
		return nil, fmt.Errorf("decoding photos: %w", err)
	}
	if rec.Photos == nil {
		rec.Photos = []string{}
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		rec.UpdatedAt = &t
	}

	return &rec, nil
}
