package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "alugserv/internal/log"
	"alugserv/internal/services"
)

// AdminHandler serves the back-office summary and maintenance commands.
type AdminHandler struct {
	Dashboard *services.DashboardService
	Sync      *services.CategorySync
}

// GET /api/dashboard
func (h *AdminHandler) Summary(c *fiber.Ctx) error {
	d, err := h.Dashboard.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{
		"totalEquipments":     d.TotalEquipments,
		"availableEquipments": d.AvailableEquipments,
		"totalCategories":     d.TotalCategories,
		"totalContacts":       d.TotalContacts,
		"recentEquipments":    d.RecentEquipments,
	})
}

// POST /api/maintenance/sync-categories
func (h *AdminHandler) SyncCategories(c *fiber.Ctx) error {
	rep, err := h.Sync.Run(c.UserContext(), actor(c))
	if err != nil {
		applog.Error(c, "maintenance.sync.fail", err, nil)
		return err
	}
	applog.Audit(c, "maintenance.sync", map[string]any{
		"total":   rep.Summary.Total,
		"updated": rep.Summary.Updated,
	})
	return render(c, fiber.StatusOK, "Category sync finished", fiber.Map{
		"summary": rep.Summary,
		"details": rep.Details,
	})
}
