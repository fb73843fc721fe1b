package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventDraftSaved       = "draft_saved"
	EventDraftCleared     = "draft_cleared"
	EventBookingSubmitted = "booking_submitted"
)

// DraftEventPayload is the snapshot attached to draft lifecycle events.
type DraftEventPayload struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name,omitempty"`
	Service   string `json:"service,omitempty"`
}

// SubmissionEventPayload describes a submitted booking request for event
// consumers such as the Telegram notifier.
type SubmissionEventPayload struct {
	RequestID   string    `json:"request_id"`
	SessionID   string    `json:"session_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Service     string    `json:"service"`
	Date        string    `json:"date,omitempty"`
	Time        string    `json:"time,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: data})
	return nil
}
