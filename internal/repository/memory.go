package repository

import (
	"context"
	"sync"
	"time"

	"lounge/internal/models"
)

// MemoryDraftRepository is the in-process fallback store. Drafts live in
// a sync.Map for the lifetime of the process; TTL is advisory only.
type MemoryDraftRepository struct {
	drafts sync.Map
	ttl    time.Duration
}

func NewMemoryDraftRepository(ttl time.Duration) *MemoryDraftRepository {
	return &MemoryDraftRepository{
		ttl: ttl,
	}
}

func (r *MemoryDraftRepository) GetDraft(ctx context.Context, sessionID string) (*models.BookingDraft, error) {
	val, ok := r.drafts.Load(sessionID)
	if !ok {
		return nil, nil
	}
	draft := val.(models.BookingDraft)
	return &draft, nil
}

func (r *MemoryDraftRepository) SetDraft(ctx context.Context, sessionID string, draft *models.BookingDraft) error {
	// Store by value so callers keep ownership of the live record.
	r.drafts.Store(sessionID, *draft)
	return nil
}

func (r *MemoryDraftRepository) ClearDraft(ctx context.Context, sessionID string) error {
	r.drafts.Delete(sessionID)
	return nil
}
