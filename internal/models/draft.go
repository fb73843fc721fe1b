package models

import "strings"

// BookingDraft is the in-progress appointment request captured from the
// booking form. All fields are plain text; date and time stay calendar-local
// strings and are never parsed by this layer.
type BookingDraft struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Notes   string `json:"notes"`
}

// EmptyDraft returns a draft with every field reset to the empty string.
func EmptyDraft() BookingDraft {
	return BookingDraft{}
}

// IsEmpty reports whether every field is blank after trimming.
func (d BookingDraft) IsEmpty() bool {
	fields := []string{d.Name, d.Phone, d.Email, d.Service, d.Date, d.Time, d.Notes}
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Trimmed returns a copy with surrounding whitespace removed from the
// free-text fields. Date and time come from pickers and are left as-is.
func (d BookingDraft) Trimmed() BookingDraft {
	return BookingDraft{
		Name:    strings.TrimSpace(d.Name),
		Phone:   strings.TrimSpace(d.Phone),
		Email:   strings.TrimSpace(d.Email),
		Service: strings.TrimSpace(d.Service),
		Date:    d.Date,
		Time:    d.Time,
		Notes:   strings.TrimSpace(d.Notes),
	}
}
