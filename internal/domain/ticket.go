package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. RESOLVED is the only
// terminal state; no transition graph is enforced beyond value membership.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// ParseTicketStatus normalizes and validates a status value.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	status := TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return status, true
	default:
		return "", false
	}
}

// FeedbackSentiment tags post-resolution feedback.
type FeedbackSentiment string

const (
	SentimentPositive FeedbackSentiment = "POSITIVE"
	SentimentNeutral  FeedbackSentiment = "NEUTRAL"
	SentimentNegative FeedbackSentiment = "NEGATIVE"
)

// ParseFeedbackSentiment normalizes and validates a sentiment value.
func ParseFeedbackSentiment(raw string) (FeedbackSentiment, bool) {
	sentiment := FeedbackSentiment(strings.ToUpper(strings.TrimSpace(raw)))
	switch sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return sentiment, true
	default:
		return "", false
	}
}

// Ticket is the aggregate owned by the engine. HandlerID is nil for tickets
// no handler currently works; the feedback triple is written at most once.
type Ticket struct {
	ID                string
	Title             string
	Description       string
	Category          Department
	Status            TicketStatus
	ReporterID        string
	HandlerID         *string
	FeedbackText      *string
	FeedbackSentiment *FeedbackSentiment
	FeedbackRating    *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasFeedback reports whether the write-once feedback columns are set.
func (t *Ticket) HasFeedback() bool {
	return t.FeedbackText != nil || t.FeedbackRating != nil
}
