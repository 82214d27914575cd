package lead

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // export dates are rendered in a fixed zone
)

// ErrEmptyRoster is returned when exporting a roster with no leads.
var ErrEmptyRoster = errors.New("no leads to export")

var csvHeader = []string{"Nombre", "Email", "Teléfono", "Mensaje", "Fecha"}

// ExportFileName returns the download name for an export made at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("contactos-piso-%s.csv", now.UTC().Format("2006-01-02"))
}

// FormatDate renders t the way es-ES locales print a date and time,
// e.g. "14/10/2026, 9:05:03", in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return fmt.Sprintf("%d/%d/%d, %d:%02d:%02d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}

// WriteCSV writes leads as CSV with every field quoted. Newlines inside a
// message become spaces so each lead stays on one line.
func WriteCSV(w io.Writer, leads []Lead, loc *time.Location) error {
	if len(leads) == 0 {
		return ErrEmptyRoster
	}

	lines := make([]string, 0, len(leads)+1)
	lines = append(lines, csvLine(csvHeader))
	for _, l := range leads {
		lines = append(lines, csvLine([]string{
			l.Name,
			l.Email,
			l.Phone,
			flattenMessage(l.Message),
			FormatDate(l.CreatedAt, loc),
		}))
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func flattenMessage(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
