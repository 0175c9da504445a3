package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/events"
	"github.com/spec-kit/issue-desk/internal/repository"
	apperrors "github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

// FeedbackService attaches one-time feedback to resolved tickets.
type FeedbackService struct {
	tickets    repository.TicketRepository
	stats      repository.StatsRepository
	dispatcher events.Dispatcher
}

// FeedbackDependencies bundles repositories for the feedback service.
type FeedbackDependencies struct {
	TicketRepo repository.TicketRepository
	StatsRepo  repository.StatsRepository
	Dispatcher events.Dispatcher
}

// FeedbackInput describes a feedback submission.
type FeedbackInput struct {
	Text      string
	Sentiment string
	Rating    int
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	return &FeedbackService{
		tickets:    deps.TicketRepo,
		stats:      deps.StatsRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Submit records feedback exactly once. Preconditions are read first and
// rejected with precise error kinds; the write itself is a conditional
// update guarded on the feedback columns still being unset, so of N
// concurrent submissions exactly one lands and the rest see Conflict. No
// extra lock is involved.
func (s *FeedbackService) Submit(ctx context.Context, actor *domain.Account, ticketID string, input FeedbackInput) (*domain.Ticket, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewInvalidArgument("feedback text required", nil)
	}
	sentiment, ok := domain.ParseFeedbackSentiment(input.Sentiment)
	if !ok {
		return nil, apperrors.NewInvalidArgument("sentiment must be POSITIVE, NEUTRAL or NEGATIVE", map[string]any{"sentiment": input.Sentiment})
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewInvalidArgument("rating must be between 1 and 5", map[string]any{"rating": input.Rating})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !ownsTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("feedback may only be submitted by the ticket's reporter")
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewInvalidArgument("feedback requires a resolved ticket", map[string]any{"status": ticket.Status})
	}
	if ticket.HandlerID == nil {
		return nil, apperrors.NewInvalidArgument("ticket has no handler to rate", nil)
	}
	if ticket.HasFeedback() {
		return nil, apperrors.NewConflict("feedback already submitted", map[string]any{"ticket_id": ticketID})
	}

	written, err := s.tickets.SetFeedback(ctx, ticketID, text, sentiment, input.Rating)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !written {
		// a concurrent submission won the race after our reads
		return nil, apperrors.NewConflict("feedback already submitted", map[string]any{"ticket_id": ticketID})
	}

	ticket.FeedbackText = &text
	ticket.FeedbackSentiment = &sentiment
	rating := input.Rating
	ticket.FeedbackRating = &rating

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:     events.EventFeedbackSubmitted,
			TicketID: ticket.ID,
			Actor:    actorFor(actor),
			Payload: events.FeedbackSubmittedPayload{
				HandlerID: *ticket.HandlerID,
				Rating:    input.Rating,
				Sentiment: sentiment,
			},
		})
	}
	return ticket, nil
}

// ListFor returns feedback entries, scoped to one handler or, for
// administrators, the whole system.
func (s *FeedbackService) ListFor(ctx context.Context, actor *domain.Account, handlerID *string) ([]repository.FeedbackEntry, error) {
	if handlerID == nil {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("administrator required")
		}
	} else if !canReadAccountScope(actor, *handlerID) {
		return nil, apperrors.NewForbidden("cannot read another handler's feedback")
	}

	entries, err := s.stats.ListFeedbacks(ctx, handlerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
