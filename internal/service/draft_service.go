package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"lounge/internal/clock"
	"lounge/internal/config"
	"lounge/internal/domain"
	"lounge/internal/events"
	"lounge/internal/metrics"
	"lounge/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ValidationError reports the required fields that are still blank at
// submit time. It is the only error a site visitor has to act on.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// DraftService owns the draft lifecycle. Storage failures on save and
// clear are logged and absorbed: keeping the booking flow available wins
// over strict persistence.
type DraftService struct {
	repo     domain.DraftRepository
	archive  domain.RequestArchive
	eventBus domain.EventPublisher
	business config.BusinessConfig
	clk      clock.Clock
	logger   *zerolog.Logger
}

func NewDraftService(repo domain.DraftRepository, archive domain.RequestArchive, eventBus domain.EventPublisher, business config.BusinessConfig, clk clock.Clock, logger *zerolog.Logger) *DraftService {
	return &DraftService{
		repo:     repo,
		archive:  archive,
		eventBus: eventBus,
		business: business,
		clk:      clk,
		logger:   logger,
	}
}

// Restore loads the saved draft for a session. Absent, corrupt or
// unreadable storage all come back as an all-empty draft.
func (s *DraftService) Restore(ctx context.Context, sessionID string) (models.BookingDraft, error) {
	metrics.IncDraftOp("restore")

	draft, err := s.repo.GetDraft(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Draft restore failed, starting empty")
		return models.EmptyDraft(), nil
	}
	if draft == nil {
		return models.EmptyDraft(), nil
	}
	return *draft, nil
}

// Save persists the draft. Always succeeds from the caller's view; a
// write failure is logged and swallowed.
func (s *DraftService) Save(ctx context.Context, sessionID string, draft models.BookingDraft) error {
	metrics.IncDraftOp("save")

	trimmed := draft.Trimmed()
	if err := s.repo.SetDraft(ctx, sessionID, &trimmed); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Draft save failed")
		return nil
	}

	s.publishDraftEvent(events.EventDraftSaved, sessionID, trimmed)
	return nil
}

// Clear removes the stored draft and hands back an all-empty record.
// Clearing an absent draft is not an error.
func (s *DraftService) Clear(ctx context.Context, sessionID string) (models.BookingDraft, error) {
	metrics.IncDraftOp("clear")

	if err := s.repo.ClearDraft(ctx, sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Draft clear failed")
	}

	s.publishDraftEvent(events.EventDraftCleared, sessionID, models.EmptyDraft())
	return models.EmptyDraft(), nil
}

// ValidateForSubmit returns the names of required fields that are blank
// after trimming, in canonical field order. An empty slice means the
// draft is submittable.
func (s *DraftService) ValidateForSubmit(draft models.BookingDraft) []string {
	values := map[string]string{
		models.FieldName:    draft.Name,
		models.FieldPhone:   draft.Phone,
		models.FieldEmail:   draft.Email,
		models.FieldService: draft.Service,
	}

	var missing []string
	for _, field := range models.RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Submit validates the draft, persists it, archives the request and
// returns the built outgoing message. The draft is deliberately not
// cleared: the visitor may still be waiting for a reply.
func (s *DraftService) Submit(ctx context.Context, sessionID string, draft models.BookingDraft) (*models.BookingRequest, string, error) {
	if missing := s.ValidateForSubmit(draft); len(missing) > 0 {
		return nil, "", &ValidationError{Missing: missing}
	}

	// A successful submission always persists the draft first.
	if err := s.Save(ctx, sessionID, draft); err != nil {
		return nil, "", err
	}

	trimmed := draft.Trimmed()
	message := s.BuildMessage(trimmed)

	req := &models.BookingRequest{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Name:        trimmed.Name,
		Phone:       trimmed.Phone,
		Email:       trimmed.Email,
		Service:     trimmed.Service,
		Date:        trimmed.Date,
		Time:        trimmed.Time,
		Notes:       trimmed.Notes,
		SubmittedAt: s.clk.Now(),
	}

	if s.archive != nil {
		if err := s.archive.ArchiveRequest(ctx, req); err != nil {
			// The visitor still gets their message; the archive is a
			// durability extra, not a gate.
			s.logger.Error().Err(err).Str("request_id", req.ID).Msg("Failed to archive booking request")
		}
	}

	metrics.IncSubmission()
	s.publishSubmissionEvent(req, message)

	s.logger.Info().
		Str("request_id", req.ID).
		Str("session_id", sessionID).
		Str("service", req.Service).
		Msg("Booking request submitted")

	return req, message, nil
}

// BuildMessage renders the outgoing request text. The template is
// deterministic: same draft and business info, same text.
func (s *DraftService) BuildMessage(draft models.BookingDraft) string {
	d := draft.Trimmed()

	orDash := func(v string) string {
		if v == "" {
			return models.EmptyFieldPlaceholder
		}
		return v
	}
	preferred := orDash(d.Date) + " @ " + orDash(d.Time)

	var b strings.Builder
	fmt.Fprintf(&b, "Booking Request — %s\n\n", s.business.Name)
	fmt.Fprintf(&b, "Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Phone: %s\n", d.Phone)
	fmt.Fprintf(&b, "Email: %s\n", d.Email)
	fmt.Fprintf(&b, "Service: %s\n", d.Service)
	fmt.Fprintf(&b, "Preferred: %s\n\n", preferred)
	fmt.Fprintf(&b, "Notes:\n%s\n\n", orDash(d.Notes))
	fmt.Fprintf(&b, "Location:\n%s\nPhone: %s\n", s.business.Address, s.business.Phone)
	return b.String()
}

// MailtoLink builds a mailto URL for the request, or "" when no booking
// email is configured (delivery then falls to the other collaborators).
func (s *DraftService) MailtoLink(draft models.BookingDraft, body string) string {
	if s.business.BookingEmail == "" {
		return ""
	}
	d := draft.Trimmed()
	subject := fmt.Sprintf("Appointment Request — %s (%s)", d.Name, d.Service)
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		s.business.BookingEmail, encodeURIComponent(subject), encodeURIComponent(body))
}

// encodeURIComponent matches the browser encoding mail clients expect:
// percent-encoded with %20 for spaces, never +.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (s *DraftService) publishDraftEvent(eventType, sessionID string, draft models.BookingDraft) {
	if s.eventBus == nil {
		return
	}
	payload := events.DraftEventPayload{
		SessionID: sessionID,
		Name:      draft.Name,
		Service:   draft.Service,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish draft event")
	}
}

func (s *DraftService) publishSubmissionEvent(req *models.BookingRequest, message string) {
	if s.eventBus == nil {
		return
	}
	payload := events.SubmissionEventPayload{
		RequestID:   req.ID,
		SessionID:   req.SessionID,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Service:     req.Service,
		Date:        req.Date,
		Time:        req.Time,
		Message:     message,
		SubmittedAt: req.SubmittedAt,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingSubmitted, payload); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish submission event")
	}
}
