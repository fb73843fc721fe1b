package domain

import (
	"context"
	"time"

	"lounge/internal/models"
	"lounge/internal/schedule"
)

// DraftRepository is the persistent key-value boundary for booking
// drafts. One key (session) holds one serialized draft. A missing or
// unparsable payload reads back as (nil, nil): corrupt storage degrades
// to "no draft" instead of failing the booking flow.
type DraftRepository interface {
	GetDraft(ctx context.Context, sessionID string) (*models.BookingDraft, error)
	SetDraft(ctx context.Context, sessionID string, draft *models.BookingDraft) error
	ClearDraft(ctx context.Context, sessionID string) error
}

// RequestArchive durably records submitted booking requests.
type RequestArchive interface {
	ArchiveRequest(ctx context.Context, req *models.BookingRequest) error
	ListRequests(ctx context.Context, start, end time.Time) ([]*models.BookingRequest, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers a built outgoing message to whoever handles
// submissions (manager chat, mailbox bridge, ...).
type Notifier interface {
	NotifySubmission(ctx context.Context, req *models.BookingRequest, message string) error
}

// DraftService drives the draft lifecycle: restore on page load, save and
// clear on user action, validate-then-submit.
type DraftService interface {
	Restore(ctx context.Context, sessionID string) (models.BookingDraft, error)
	Save(ctx context.Context, sessionID string, draft models.BookingDraft) error
	Clear(ctx context.Context, sessionID string) (models.BookingDraft, error)
	ValidateForSubmit(draft models.BookingDraft) []string
	BuildMessage(draft models.BookingDraft) string
	MailtoLink(draft models.BookingDraft, body string) string
	Submit(ctx context.Context, sessionID string, draft models.BookingDraft) (*models.BookingRequest, string, error)
}

// StatusService answers "are we open right now" from the weekly schedule
// and the injected clock.
type StatusService interface {
	Current() schedule.StatusResult
	StatusText() string
}
