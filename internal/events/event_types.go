package events

import (
	"time"

	"github.com/spec-kit/issue-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventFeedbackSubmitted   EventType = "feedback_submitted"
	EventAccountRemoved      EventType = "account_removed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category  domain.Department   `json:"category"`
	Status    domain.TicketStatus `json:"status"`
	HandlerID *string             `json:"handler_id,omitempty"`
	Title     string              `json:"title"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	HandlerID string `json:"handler_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	HandlerID string                   `json:"handler_id"`
	Rating    int                      `json:"rating"`
	Sentiment domain.FeedbackSentiment `json:"sentiment"`
}

// AccountRemovedPayload payload.
type AccountRemovedPayload struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}
