// Package listing provides the apartment listing model, its storage and the
// draft/committed reconciliation used by the editor.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by a Store when the listing table is empty.
	ErrNotFound = errors.New("listing not found")
	// ErrNotEditing is returned when the draft is mutated outside edit mode.
	ErrNotEditing = errors.New("listing is not in edit mode")
	// ErrBlankPhotoURL is returned when adding an empty photo URL.
	ErrBlankPhotoURL = errors.New("photo URL is blank")
	// ErrPhotoIndex is returned when removing a photo that does not exist.
	ErrPhotoIndex = errors.New("photo index out of range")
	// ErrUnknownField is returned for a field name that is not editable.
	ErrUnknownField = errors.New("unknown listing field")
)

// Store persists the single listing row.
type Store interface {
	// First returns one listing row, or ErrNotFound when none exists.
	First(ctx context.Context) (*Record, error)
	// Upsert inserts rec when its ID is empty, otherwise updates the row
	// with that ID. It returns the stored row.
	Upsert(ctx context.Context, rec Record) (*Record, error)
}

// Record is the one apartment-for-sale listing the site displays.
// Numeric-looking fields are free text as entered by the owner.
type Record struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Price       string     `json:"price"`
	Address     string     `json:"address"`
	Meters      string     `json:"meters"`
	Rooms       string     `json:"rooms"`
	Bathrooms   string     `json:"bathrooms"`
	Floor       string     `json:"floor"`
	Description string     `json:"description"`
	Features    string     `json:"features"`
	Photos      []string   `json:"photos"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	c := r
	c.Photos = append([]string(nil), r.Photos...)
	if c.Photos == nil {
		c.Photos = []string{}
	}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}

// FeatureList splits Features into non-empty trimmed lines.
func (r Record) FeatureList() []string {
	return Lines(r.Features)
}

// Lines splits s into its non-empty trimmed lines.
func Lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Field names an editable text field of a Record.
type Field string

const (
	FieldTitle       Field = "title"
	FieldPrice       Field = "price"
	FieldAddress     Field = "address"
	FieldMeters      Field = "meters"
	FieldRooms       Field = "rooms"
	FieldBathrooms   Field = "bathrooms"
	FieldFloor       Field = "floor"
	FieldDescription Field = "description"
	FieldFeatures    Field = "features"
)

// Fields lists every editable text field in display order.
var Fields = []Field{
	FieldTitle, FieldPrice, FieldAddress, FieldMeters, FieldRooms,
	FieldBathrooms, FieldFloor, FieldDescription, FieldFeatures,
}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownField, s)
}

// set writes value into the named field of r.
func (r *Record) set(f Field, value string) error {
	switch f {
	case FieldTitle:
		r.Title = value
	case FieldPrice:
		r.Price = value
	case FieldAddress:
		r.Address = value
	case FieldMeters:
		r.Meters = value
	case FieldRooms:
		r.Rooms = value
	case FieldBathrooms:
		r.Bathrooms = value
	case FieldFloor:
		r.Floor = value
	case FieldDescription:
		r.Description = value
	case FieldFeatures:
		r.Features = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	return nil
}

// Get returns the value of the named field.
func (r Record) Get(f Field) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldPrice:
		return r.Price
	case FieldAddress:
		return r.Address
	case FieldMeters:
		return r.Meters
	case FieldRooms:
		return r.Rooms
	case FieldBathrooms:
		return r.Bathrooms
	case FieldFloor:
		return r.Floor
	case FieldDescription:
		return r.Description
	case FieldFeatures:
		return r.Features
	}
	return ""
}

const defaultDescription = "La vivienda dispone de tres dormitorios, cada uno con su baño en suite y vestidor. " +
	"El salón-comedor es muy amplio y luminoso, con acceso a un balcón que da a la calle. " +
	"La cocina está completamente equipada con electrodomésticos de alta gama.\n\n" +
	"El piso se encuentra en un edificio señorial de 1900, completamente rehabilitado, " +
	"manteniendo el encanto arquitectónico original pero con todas las comodidades modernas."

const defaultFeatures = "Aire acondicionado\n" +
	"Balcón\n" +
	"Segunda mano/buen estado\n" +
	"Construido en 1900\n" +
	"Calefacción individual: Gas natural\n" +
	"Con ascensor\n" +
	"Certificado energético: E"

// Default returns the built-in listing shown until a row is saved.
func Default() Record {
	return Record{
		Title:       "Piso en venta en Calle de Pau Claris",
		Price:       "2.450.000 €",
		Address:     "La Dreta de l'Eixample, Barcelona",
		Meters:      "183",
		Rooms:       "3",
		Bathrooms:   "4",
		Floor:       "Planta 5ª exterior con ascensor",
		Description: defaultDescription,
		Features:    defaultFeatures,
		Photos: []string{
			"https://images.pexels.com/photos/1643383/pexels-photo-1643383.jpeg?auto=compress&cs=tinysrgb&w=1200",
			"https://images.pexels.com/photos/1571460/pexels-photo-1571460.jpeg?auto=compress&cs=tinysrgb&w=1200",
			"https://images.pexels.com/photos/1571468/pexels-photo-1571468.jpeg?auto=compress&cs=tinysrgb&w=1200",
			"https://images.pexels.com/photos/1643384/pexels-photo-1643384.jpeg?auto=compress&cs=tinysrgb&w=1200",
		},
	}
}
