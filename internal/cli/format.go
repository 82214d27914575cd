package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
)

// printJSON marshals v as indented JSON and writes it to out.
func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListing prints the listing in text format.
func printListing(out io.Writer, rec listing.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", rec.Title)
	fmt.Fprintf(&b, "  Price:     %s\n", orDash(rec.Price))
	fmt.Fprintf(&b, "  Address:   %s\n", orDash(rec.Address))
	fmt.Fprintf(&b, "  Meters:    %s\n", orDash(rec.Meters))
	fmt.Fprintf(&b, "  Rooms:     %s\n", orDash(rec.Rooms))
	fmt.Fprintf(&b, "  Bathrooms: %s\n", orDash(rec.Bathrooms))
	fmt.Fprintf(&b, "  Floor:     %s\n", orDash(rec.Floor))
	fmt.Fprintf(&b, "  Photos:    %d\n", len(rec.Photos))
	if rec.UpdatedAt != nil {
		fmt.Fprintf(&b, "  Updated:   %s\n", rec.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if rec.ID == "" {
		b.WriteString("  (default listing, not saved yet)\n")
	}

	if rec.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Description)
	}
	if features := rec.FeatureList(); len(features) > 0 {
		b.WriteString("\nFeatures:\n")
		for _, f := range features {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// printLeadTable prints leads as a formatted table, dates in loc.
func printLeadTable(out io.Writer, leads []lead.Lead, loc *time.Location) error {
	if len(leads) == 0 {
		_, err := fmt.Fprintln(out, "No leads yet.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tDATE\tNAME\tEMAIL\tPHONE\tMESSAGE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t----\t-----\t-----\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, l := range leads {
		msg := strings.ReplaceAll(l.Message, "\n", " ")
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, lead.FormatDate(l.CreatedAt, loc), truncate(l.Name, 24),
			l.Email, l.Phone, truncate(msg, 40)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d leads\n", len(leads))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
