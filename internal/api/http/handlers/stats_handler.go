package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-desk/internal/auth"
	"github.com/spec-kit/issue-desk/internal/service"
	apperrors "github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

// StatsHandler exposes read-only dashboard projections.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: statsService}
}

// Overview GET /stats (admin).
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.stats.GetOverview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

// HandlerOverview GET /stats/handler (the authenticated handler's own view).
func (h *StatsHandler) HandlerOverview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	overview, err := h.stats.GetHandlerOverview(c.Context(), principal.Account, principal.Account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}
