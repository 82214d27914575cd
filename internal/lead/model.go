// Package lead provides contact leads: the public inquiry form, storage,
// the admin roster and CSV export.
package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when deleting a lead that does not exist.
var ErrNotFound = errors.New("lead not found")

// DefaultMessage pre-fills the public form's message field.
const DefaultMessage = "Hola, me interesa este piso y me gustaría hacer una visita.\nUn saludo"

// Lead is a visitor-submitted contact inquiry. ID and CreatedAt are
// assigned by the store.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Form is the public lead form's input.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewForm returns the form in its initial state.
func NewForm() Form {
	return Form{Message: DefaultMessage}
}

// ValidationError lists required form fields that were left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Validate checks the required fields (name, email, phone). The message is
// optional. This is the only validation leads receive; stores accept the
// form as given.
func (f Form) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(f.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Store persists leads.
type Store interface {
	// Insert stores a new lead, assigning its ID and creation time.
	Insert(ctx context.Context, f Form) (*Lead, error)
	// List returns every lead, newest first.
	List(ctx context.Context) ([]Lead, error)
	// Delete removes the lead with the given ID.
	Delete(ctx context.Context, id string) error
}
