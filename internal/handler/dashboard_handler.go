package handler

import (
	"go-utang-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard/stores/:id/summary", h.GetStoreSummary)
}

// GetStoreSummary returns overview statistics of one store
// GET /api/dashboard/stores/:id/summary
func (h *DashboardHandler) GetStoreSummary(c *fiber.Ctx) error {
	stats, err := h.service.StoreSummary(c.UserContext(), c.Params("id"), getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
