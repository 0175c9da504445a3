package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-desk/internal/api/dto"
	"github.com/spec-kit/issue-desk/internal/auth"
	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/service"
	apperrors "github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	feedback *service.FeedbackService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, feedbackService *service.FeedbackService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, feedback: feedbackService}
}

// Create POST /tickets (reporter).
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), principal.Account, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListAll GET /tickets (admin, optional status/category filters).
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.TicketListFilter{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	tickets, err := h.tickets.ListAll(c.Context(), principal.Account, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListMine GET /tickets/reported (reporter).
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.tickets.ListByReporter(c.Context(), principal.Account, principal.Account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListAssigned GET /tickets/assigned (handler).
func (h *TicketsHandler) ListAssigned(c *fiber.Ctx) error {
	return h.listForHandler(c, false)
}

// ListResolved GET /tickets/resolved (handler).
func (h *TicketsHandler) ListResolved(c *fiber.Ctx) error {
	return h.listForHandler(c, true)
}

func (h *TicketsHandler) listForHandler(c *fiber.Ctx, resolvedOnly bool) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.tickets.ListByHandler(c.Context(), principal.Account, principal.Account.ID, resolvedOnly)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// Assign PATCH /tickets/:id/assign (admin override).
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	if req.HandlerID == "" {
		return apperrors.NewInvalidArgument("handler_id required", nil)
	}
	ticket, err := h.tickets.ManualAssign(c.Context(), principal.Account, c.Params("id"), req.HandlerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PATCH /tickets/:id/status (handler or admin).
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	ticket, err := h.tickets.SetStatus(c.Context(), principal.Account, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SubmitFeedback POST /tickets/:id/feedback (reporter).
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidArgument("invalid payload", nil)
	}
	ticket, err := h.feedback.Submit(c.Context(), principal.Account, c.Params("id"), service.FeedbackInput{
		Text:      req.Text,
		Sentiment: req.Sentiment,
		Rating:    req.Rating,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListFeedbacks GET /feedbacks (admin) and GET /feedbacks/mine (handler).
func (h *TicketsHandler) ListFeedbacks(c *fiber.Ctx) error {
	return h.listFeedbacks(c, false)
}

// ListMyFeedbacks GET /feedbacks/mine (handler).
func (h *TicketsHandler) ListMyFeedbacks(c *fiber.Ctx) error {
	return h.listFeedbacks(c, true)
}

func (h *TicketsHandler) listFeedbacks(c *fiber.Ctx, mine bool) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var handlerID *string
	if mine {
		handlerID = &principal.Account.ID
	}
	entries, err := h.feedback.ListFor(c.Context(), principal.Account, handlerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                ticket.ID,
		Title:             ticket.Title,
		Description:       ticket.Description,
		Category:          ticket.Category,
		Status:            ticket.Status,
		ReporterID:        ticket.ReporterID,
		HandlerID:         ticket.HandlerID,
		FeedbackText:      ticket.FeedbackText,
		FeedbackSentiment: ticket.FeedbackSentiment,
		FeedbackRating:    ticket.FeedbackRating,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
