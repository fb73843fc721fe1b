package repository

import (
	"context"
	"sync/atomic"
	"time"

	"lounge/internal/domain"
	"lounge/internal/models"

	"github.com/rs/zerolog"
)

// FailoverDraftRepository wraps a primary (Redis) and a fallback (memory)
// store. Errors stay observable at this boundary; the draft service above
// decides whether to surface them.
type FailoverDraftRepository struct {
	primary   domain.DraftRepository
	fallback  domain.DraftRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDraftRepository(primary, fallback domain.DraftRepository, logger *zerolog.Logger) *FailoverDraftRepository {
	return &FailoverDraftRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDraftRepository) GetDraft(ctx context.Context, sessionID string) (*models.BookingDraft, error) {
	if !r.isDown.Load() {
		draft, err := r.primary.GetDraft(ctx, sessionID)
		if err == nil {
			return draft, nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		draft, err := r.primary.GetDraft(ctx, sessionID)
		if err == nil {
			r.isDown.Store(false)
			return draft, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDraft(ctx, sessionID)
}

func (r *FailoverDraftRepository) SetDraft(ctx context.Context, sessionID string, draft *models.BookingDraft) error {
	if !r.isDown.Load() {
		err := r.primary.SetDraft(ctx, sessionID, draft)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetDraft(ctx, sessionID, draft)
}

func (r *FailoverDraftRepository) ClearDraft(ctx context.Context, sessionID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearDraft(ctx, sessionID)
		if err == nil {
			// Keep the fallback in sync so a later failover does not
			// resurrect a cleared draft.
			_ = r.fallback.ClearDraft(ctx, sessionID)
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.ClearDraft(ctx, sessionID)
}
