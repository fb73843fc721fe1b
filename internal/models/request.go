package models

import "time"

// BookingRequest is an archived, submitted appointment request. Unlike a
// draft it is immutable once written.
type BookingRequest struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Service     string    `json:"service"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Notes       string    `json:"notes"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Draft returns the form snapshot the request was built from.
func (r BookingRequest) Draft() BookingDraft {
	return BookingDraft{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Service: r.Service,
		Date:    r.Date,
		Time:    r.Time,
		Notes:   r.Notes,
	}
}
