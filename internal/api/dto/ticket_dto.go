package dto

import (
	"time"

	"github.com/spec-kit/issue-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// AssignTicketRequest payload for the admin override.
type AssignTicketRequest struct {
	HandlerID string `json:"handler_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Rating    int    `json:"rating"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Category          domain.Department         `json:"category"`
	Status            domain.TicketStatus       `json:"status"`
	ReporterID        string                    `json:"reporter_id"`
	HandlerID         *string                   `json:"handler_id"`
	FeedbackText      *string                   `json:"feedback_text,omitempty"`
	FeedbackSentiment *domain.FeedbackSentiment `json:"feedback_sentiment,omitempty"`
	FeedbackRating    *int                      `json:"feedback_rating,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}
