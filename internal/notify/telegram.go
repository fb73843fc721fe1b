package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"lounge/internal/events"
	"lounge/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the Telegram API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier forwards submitted booking requests to a staff chat.
// Delivery of the outgoing message is a host concern; this adapter is one
// of the delivery collaborators.
type TelegramNotifier struct {
	sender Sender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{sender: bot, chatID: chatID, logger: logger}, nil
}

// NewWithSender injects a sender directly; used by tests and by hosts
// that already hold a bot instance.
func NewWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, logger: logger}
}

func (n *TelegramNotifier) NotifySubmission(ctx context.Context, req *models.BookingRequest, message string) error {
	msg := tgbotapi.NewMessage(n.chatID, message)
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}

	n.logger.Info().Str("request_id", req.ID).Int64("chat_id", n.chatID).Msg("Submission forwarded to staff chat")
	return nil
}

// SubscribeSubmissions wires the notifier to booking_submitted events.
// Delivery failures are logged, never propagated: the visitor's request
// already went through.
func SubscribeSubmissions(bus *events.EventBus, notifier *TelegramNotifier, logger *zerolog.Logger) {
	bus.Subscribe(events.EventBookingSubmitted, func(event *events.Event) error {
		var payload events.SubmissionEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			logger.Warn().Err(err).Msg("Failed to decode submission event")
			return nil
		}

		req := &models.BookingRequest{
			ID:          payload.RequestID,
			SessionID:   payload.SessionID,
			Name:        payload.Name,
			Phone:       payload.Phone,
			Email:       payload.Email,
			Service:     payload.Service,
			Date:        payload.Date,
			Time:        payload.Time,
			SubmittedAt: payload.SubmittedAt,
		}

		if err := notifier.NotifySubmission(context.Background(), req, payload.Message); err != nil {
			logger.Error().Err(err).Str("request_id", req.ID).Msg("Telegram notification failed")
		}
		return nil
	})
}
