package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/events"
	"github.com/spec-kit/issue-desk/internal/repository"
	apperrors "github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket creation, assignment and status changes.
type TicketService struct {
	tickets    repository.TicketRepository
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
}

// TicketListFilter describes admin listing filters.
type TicketListFilter struct {
	Status   *string
	Category *string
	Limit    int
	Offset   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		accounts:   deps.AccountRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create files a new ticket for the reporter. The least-loaded handler of the
// category's department is selected at this point: handler found means the
// ticket starts IN_PROGRESS, no handler means it starts OPEN. The selection
// is a plain read, so two concurrent creations may pick the same handler;
// that transient imbalance is accepted in favor of availability.
func (s *TicketService) Create(ctx context.Context, reporter *domain.Account, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewInvalidArgument("title and description required", nil)
	}
	category, ok := domain.ParseDepartment(input.Category)
	if !ok {
		return nil, apperrors.NewInvalidArgument("invalid category", map[string]any{"category": input.Category})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Status:      domain.TicketStatusOpen,
		ReporterID:  reporter.ID,
	}

	handler, err := s.accounts.FindLeastLoadedHandler(ctx, category)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if handler != nil {
		ticket.HandlerID = &handler.ID
		ticket.Status = domain.TicketStatusInProgress
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorFor(reporter),
		Payload: events.TicketCreatedPayload{
			Category:  ticket.Category,
			Status:    ticket.Status,
			HandlerID: ticket.HandlerID,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// ManualAssign is the administrator override: it sets the handler and forces
// IN_PROGRESS without checking the handler's department against the ticket's
// category. Administrators may route across departments intentionally.
func (s *TicketService) ManualAssign(ctx context.Context, actor *domain.Account, ticketID, handlerID string) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("administrator required")
	}

	handler, err := s.accounts.GetByID(ctx, handlerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("handler", map[string]any{"account_id": handlerID})
		}
		return nil, apperrors.MapError(err)
	}
	if handler.Role != domain.RoleHandler {
		return nil, apperrors.NewInvalidArgument("assignee is not a handler", map[string]any{"account_id": handlerID})
	}

	if err := s.tickets.UpdateAssignment(ctx, ticketID, handler.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorFor(actor),
		Payload:  events.TicketAssignedPayload{HandlerID: handler.ID},
	})
	return ticket, nil
}

// SetStatus moves the ticket to any of the three known statuses. Only value
// membership is validated; there is deliberately no transition graph, so a
// handler may move RESOLVED back to OPEN. The caller must be the assigned
// handler or an administrator.
func (s *TicketService) SetStatus(ctx context.Context, actor *domain.Account, ticketID, rawStatus string) (*domain.Ticket, error) {
	status, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewInvalidArgument("invalid status", map[string]any{"status": rawStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !canWorkTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("only the assigned handler or an administrator may change status")
	}

	oldStatus := ticket.Status
	if err := s.tickets.UpdateStatus(ctx, ticketID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	ticket.Status = status

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorFor(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return ticket, nil
}

// ListByReporter returns the reporter's tickets, newest first.
func (s *TicketService) ListByReporter(ctx context.Context, actor *domain.Account, reporterID string) ([]domain.Ticket, error) {
	if !canReadAccountScope(actor, reporterID) {
		return nil, apperrors.NewForbidden("cannot read another reporter's tickets")
	}
	return s.list(ctx, repository.TicketFilter{ReporterID: &reporterID})
}

// ListByHandler returns tickets assigned to the handler, optionally only the
// resolved ones.
func (s *TicketService) ListByHandler(ctx context.Context, actor *domain.Account, handlerID string, resolvedOnly bool) ([]domain.Ticket, error) {
	if !canReadAccountScope(actor, handlerID) {
		return nil, apperrors.NewForbidden("cannot read another handler's tickets")
	}
	filter := repository.TicketFilter{HandlerID: &handlerID}
	if resolvedOnly {
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusResolved}
	}
	return s.list(ctx, filter)
}

// ListAll returns every ticket matching the optional status/category filters.
func (s *TicketService) ListAll(ctx context.Context, actor *domain.Account, filter TicketListFilter) ([]domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("administrator required")
	}
	repoFilter := repository.TicketFilter{Limit: filter.Limit, Offset: filter.Offset}
	if filter.Status != nil {
		status, ok := domain.ParseTicketStatus(*filter.Status)
		if !ok {
			return nil, apperrors.NewInvalidArgument("invalid status filter", map[string]any{"status": *filter.Status})
		}
		repoFilter.Statuses = []domain.TicketStatus{status}
	}
	if filter.Category != nil {
		category, ok := domain.ParseDepartment(*filter.Category)
		if !ok {
			return nil, apperrors.NewInvalidArgument("invalid category filter", map[string]any{"category": *filter.Category})
		}
		repoFilter.Category = &category
	}
	return s.list(ctx, repoFilter)
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(account *domain.Account) events.Actor {
	if account == nil {
		return events.Actor{}
	}
	return events.Actor{AccountID: account.ID, Role: account.Role}
}
