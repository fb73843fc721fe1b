package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"lounge/internal/clock"
	"lounge/internal/config"
	"lounge/internal/events"
	"lounge/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDraftRepo struct {
	mock.Mock
}

func (m *mockDraftRepo) GetDraft(ctx context.Context, sessionID string) (*models.BookingDraft, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDraft), args.Error(1)
}

func (m *mockDraftRepo) SetDraft(ctx context.Context, sessionID string, draft *models.BookingDraft) error {
	args := m.Called(ctx, sessionID, draft)
	return args.Error(0)
}

func (m *mockDraftRepo) ClearDraft(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) ArchiveRequest(ctx context.Context, req *models.BookingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockArchive) ListRequests(ctx context.Context, start, end time.Time) ([]*models.BookingRequest, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BookingRequest), args.Error(1)
}

var testBusiness = config.BusinessConfig{
	Name:         "New Vintage Beauty Lounge",
	Address:      "3864 N Mississippi Ave, Portland, OR 97227",
	Phone:        "(503) 830-2682",
	BookingEmail: "appointments@nvbl.co",
}

func newTestService(repo *mockDraftRepo, archive *mockArchive) *DraftService {
	logger := zerolog.New(io.Discard)
	clk := clock.NewFixed(time.Date(2025, time.June, 2, 14, 0, 0, 0, time.Local))
	if archive == nil {
		return NewDraftService(repo, nil, events.NewEventBus(), testBusiness, clk, &logger)
	}
	return NewDraftService(repo, archive, events.NewEventBus(), testBusiness, clk, &logger)
}

func validDraft() models.BookingDraft {
	return models.BookingDraft{
		Name:    "Jane",
		Phone:   "555-1111",
		Email:   "j@x.com",
		Service: "Cut",
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsStoredDraft", func(t *testing.T) {
		repo := new(mockDraftRepo)
		svc := newTestService(repo, nil)

		stored := validDraft()
		repo.On("GetDraft", ctx, "s1").Return(&stored, nil).Once()

		got, err := svc.Restore(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, stored, got)
		repo.AssertExpectations(t)
	})

	t.Run("AbsentDraftIsEmpty", func(t *testing.T) {
		repo := new(mockDraftRepo)
		svc := newTestService(repo, nil)

		repo.On("GetDraft", ctx, "s1").Return(nil, nil).Once()

		got, err := svc.Restore(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, got.IsEmpty())
	})

	t.Run("StorageFailureDegradesToEmpty", func(t *testing.T) {
		repo := new(mockDraftRepo)
		svc := newTestService(repo, nil)

		repo.On("GetDraft", ctx, "s1").Return(nil, errors.New("redis down")).Once()

		got, err := svc.Restore(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, got.IsEmpty())
	})
}

func TestSaveSwallowsStorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mockDraftRepo)
	svc := newTestService(repo, nil)

	repo.On("SetDraft", ctx, "s1", mock.Anything).Return(errors.New("disk full")).Once()

	assert.NoError(t, svc.Save(ctx, "s1", validDraft()))
	repo.AssertExpectations(t)
}

func TestSaveTrimsFreeTextFields(t *testing.T) {
	ctx := context.Background()
	repo := new(mockDraftRepo)
	svc := newTestService(repo, nil)

	draft := models.BookingDraft{Name: "  Jane  ", Phone: "555-1111", Notes: " late ok "}
	want := models.BookingDraft{Name: "Jane", Phone: "555-1111", Notes: "late ok"}

	repo.On("SetDraft", ctx, "s1", &want).Return(nil).Once()

	require.NoError(t, svc.Save(ctx, "s1", draft))
	repo.AssertExpectations(t)
}

func TestClearReturnsEmptyDraft(t *testing.T) {
	ctx := context.Background()
	repo := new(mockDraftRepo)
	svc := newTestService(repo, nil)

	repo.On("ClearDraft", ctx, "s1").Return(nil).Once()

	got, err := svc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	repo.AssertExpectations(t)
}

func TestValidateForSubmit(t *testing.T) {
	svc := newTestService(new(mockDraftRepo), nil)

	t.Run("CompleteDraftPasses", func(t *testing.T) {
		assert.Empty(t, svc.ValidateForSubmit(validDraft()))
	})

	t.Run("OptionalFieldsMayStayEmpty", func(t *testing.T) {
		draft := validDraft()
		draft.Date, draft.Time, draft.Notes = "", "", ""
		assert.Empty(t, svc.ValidateForSubmit(draft))
	})

	t.Run("MissingEmailReportedExactly", func(t *testing.T) {
		draft := validDraft()
		draft.Email = ""
		assert.Equal(t, []string{"email"}, svc.ValidateForSubmit(draft))
	})

	t.Run("WhitespaceOnlyCountsAsMissing", func(t *testing.T) {
		draft := validDraft()
		draft.Phone = "   "
		assert.Equal(t, []string{"phone"}, svc.ValidateForSubmit(draft))
	})

	t.Run("AllMissingInCanonicalOrder", func(t *testing.T) {
		missing := svc.ValidateForSubmit(models.BookingDraft{})
		assert.Equal(t, []string{"name", "phone", "email", "service"}, missing)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidDraftIsPersistedAndArchived", func(t *testing.T) {
		repo := new(mockDraftRepo)
		archive := new(mockArchive)
		svc := newTestService(repo, archive)

		repo.On("SetDraft", ctx, "s1", mock.Anything).Return(nil).Once()
		archive.On("ArchiveRequest", ctx, mock.Anything).Return(nil).Once()

		req, message, err := svc.Submit(ctx, "s1", validDraft())
		require.NoError(t, err)
		require.NotNil(t, req)

		assert.NotEmpty(t, req.ID)
		assert.Equal(t, "Jane", req.Name)
		assert.Equal(t, time.Date(2025, time.June, 2, 14, 0, 0, 0, time.Local), req.SubmittedAt)
		assert.Contains(t, message, "Booking Request — New Vintage Beauty Lounge")

		repo.AssertExpectations(t)
		archive.AssertExpectations(t)
	})

	t.Run("ValidationFailureBlocksSubmission", func(t *testing.T) {
		repo := new(mockDraftRepo)
		svc := newTestService(repo, nil)

		draft := validDraft()
		draft.Email = ""

		req, message, err := svc.Submit(ctx, "s1", draft)
		assert.Nil(t, req)
		assert.Empty(t, message)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"email"}, verr.Missing)

		repo.AssertNotCalled(t, "SetDraft", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ArchiveFailureDoesNotBlock", func(t *testing.T) {
		repo := new(mockDraftRepo)
		archive := new(mockArchive)
		svc := newTestService(repo, archive)

		repo.On("SetDraft", ctx, "s1", mock.Anything).Return(nil).Once()
		archive.On("ArchiveRequest", ctx, mock.Anything).Return(errors.New("db down")).Once()

		req, message, err := svc.Submit(ctx, "s1", validDraft())
		require.NoError(t, err)
		assert.NotNil(t, req)
		assert.NotEmpty(t, message)
	})

	t.Run("SubmissionEventPublished", func(t *testing.T) {
		repo := new(mockDraftRepo)
		logger := zerolog.New(io.Discard)
		clk := clock.NewFixed(time.Now())
		bus := events.NewEventBus()

		var seen int
		bus.Subscribe(events.EventBookingSubmitted, func(*events.Event) error {
			seen++
			return nil
		})

		svc := NewDraftService(repo, nil, bus, testBusiness, clk, &logger)
		repo.On("SetDraft", ctx, "s1", mock.Anything).Return(nil).Once()

		_, _, err := svc.Submit(ctx, "s1", validDraft())
		require.NoError(t, err)
		assert.Equal(t, 1, seen)
	})
}

func TestBuildMessage(t *testing.T) {
	svc := newTestService(new(mockDraftRepo), nil)

	t.Run("AllFieldsFilled", func(t *testing.T) {
		draft := validDraft()
		draft.Date = "2025-06-04"
		draft.Time = "10:30"
		draft.Notes = "first visit"

		msg := svc.BuildMessage(draft)
		assert.Contains(t, msg, "Booking Request — New Vintage Beauty Lounge")
		assert.Contains(t, msg, "Name: Jane")
		assert.Contains(t, msg, "Preferred: 2025-06-04 @ 10:30")
		assert.Contains(t, msg, "Notes:\nfirst visit")
		assert.Contains(t, msg, "Location:\n3864 N Mississippi Ave, Portland, OR 97227")
		assert.Contains(t, msg, "Phone: (503) 830-2682")
	})

	t.Run("EmptyOptionalsRenderAsDashes", func(t *testing.T) {
		msg := svc.BuildMessage(validDraft())
		assert.Contains(t, msg, "Preferred: — @ —")
		assert.Contains(t, msg, "Notes:\n—")
	})

	t.Run("Deterministic", func(t *testing.T) {
		draft := validDraft()
		assert.Equal(t, svc.BuildMessage(draft), svc.BuildMessage(draft))
	})
}

func TestMailtoLink(t *testing.T) {
	svc := newTestService(new(mockDraftRepo), nil)

	draft := validDraft()
	body := svc.BuildMessage(draft)
	link := svc.MailtoLink(draft, body)

	assert.True(t, strings.HasPrefix(link, "mailto:appointments@nvbl.co?subject="))
	assert.Contains(t, link, "Appointment%20Request")
	assert.NotContains(t, link, "+") // %20, never form encoding

	t.Run("NoBookingEmailConfigured", func(t *testing.T) {
		logger := zerolog.New(io.Discard)
		business := testBusiness
		business.BookingEmail = ""
		svc := NewDraftService(new(mockDraftRepo), nil, nil, business, clock.System(), &logger)

		assert.Equal(t, "", svc.MailtoLink(draft, body))
	})
}
