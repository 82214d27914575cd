package lead

// Roster is the in-memory, newest-first list of leads shown to the admin.
type Roster struct {
	leads []Lead
}

// Replace sets the roster to leads as returned by Store.List.
func (r *Roster) Replace(leads []Lead) {
	r.leads = append([]Lead(nil), leads...)
}

// Remove drops the lead with the given ID and reports whether it was present.
func (r *Roster) Remove(id string) bool {
	kept := r.leads[:0]
	removed := false
	for _, l := range r.leads {
		if l.ID == id {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	r.leads = kept
	return removed
}

// Leads returns a copy of the roster.
func (r *Roster) Leads() []Lead {
	return append([]Lead{}, r.leads...)
}
