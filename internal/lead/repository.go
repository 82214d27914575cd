package lead

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository stores leads in the contacts table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a lead repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Insert adds a new lead and returns it with its generated ID and timestamp.
func (r *Repository) Insert(ctx context.Context, f Form) (*Lead, error) {
	l := Lead{
		ID:        uuid.NewString(),
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		Message:   f.Message,
		CreatedAt: r.now().UTC(),
	}

	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO contacts (id, name, email, phone, message, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		l.ID, l.Name, l.Email, l.Phone, l.Message, l.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("inserting lead: %w", err)
	}

	return &l, nil
}

// List returns all leads, most recent first.
func (r *Repository) List(ctx context.Context) (leads []Lead, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email, phone, message, created_at FROM contacts ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	leads = []Lead{}
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leads: %w", err)
	}

	return leads, nil
}

// Delete removes a lead by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("lead %s: %w", id, ErrNotFound)
	}

	return nil
}
