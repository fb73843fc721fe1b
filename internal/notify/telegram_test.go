package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"lounge/internal/events"
	"lounge/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestNotifySubmission(t *testing.T) {
	logger := zerolog.New(io.Discard)
	sender := &fakeSender{}
	notifier := NewWithSender(sender, 42, &logger)

	req := &models.BookingRequest{ID: "r1", Name: "Jane"}
	err := notifier.NotifySubmission(context.Background(), req, "Booking Request — Lounge")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "Booking Request — Lounge", msg.Text)
}

func TestNotifySubmissionSendFailure(t *testing.T) {
	logger := zerolog.New(io.Discard)
	sender := &fakeSender{err: errors.New("telegram down")}
	notifier := NewWithSender(sender, 42, &logger)

	err := notifier.NotifySubmission(context.Background(), &models.BookingRequest{ID: "r1"}, "text")
	assert.Error(t, err)
}

func TestSubscribeSubmissions(t *testing.T) {
	logger := zerolog.New(io.Discard)
	sender := &fakeSender{}
	notifier := NewWithSender(sender, 7, &logger)

	bus := events.NewEventBus()
	SubscribeSubmissions(bus, notifier, &logger)

	payload := events.SubmissionEventPayload{
		RequestID: "r1",
		Name:      "Jane",
		Message:   "Booking Request — Lounge",
	}
	require.NoError(t, bus.PublishJSON(events.EventBookingSubmitted, payload))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, "Booking Request — Lounge", msg.Text)
}

func TestSubscribeSubmissionsSwallowsSendFailure(t *testing.T) {
	logger := zerolog.New(io.Discard)
	sender := &fakeSender{err: errors.New("telegram down")}
	notifier := NewWithSender(sender, 7, &logger)

	bus := events.NewEventBus()
	SubscribeSubmissions(bus, notifier, &logger)

	err := bus.PublishJSON(events.EventBookingSubmitted, events.SubmissionEventPayload{RequestID: "r1"})
	assert.NoError(t, err)
}
