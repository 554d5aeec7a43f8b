package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alugserv/internal/apperr"
	"alugserv/internal/log"
	"alugserv/internal/repos"
	"alugserv/internal/services"
	"alugserv/internal/storage"
)

type EquipmentHandler struct {
	Equipments *services.EquipmentService
	Auth       *services.AuthService
	Uploads    *storage.Local
	PerPage    int
}

// Dispatch serves /api/equipments by method.
func (h *EquipmentHandler) Dispatch(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet:
		return h.get(c)
	case fiber.MethodPost:
		return h.create(c)
	case fiber.MethodPut:
		return h.update(c)
	case fiber.MethodDelete:
		return h.delete(c)
	}
	return apperr.MethodNotAllowed()
}

func pageOf(c *fiber.Ctx, perPage int) repos.Page {
	return repos.NewPage(c.QueryInt("page", 1), c.QueryInt("per_page", perPage))
}

func (h *EquipmentHandler) get(c *fiber.Ctx) error {
	id, _, err := queryID(c)
	if err != nil {
		return err
	}
	q := services.EquipmentQuery{
		ID:            id,
		Slug:          c.Query("slug"),
		Category:      c.Query("category"),
		Search:        c.Query("search"),
		Status:        c.Query("status"),
		Authenticated: currentUser(c) != nil,
		Page:          pageOf(c, h.PerPage),
	}
	if raw := c.Query("featured"); raw != "" {
		f := c.QueryBool("featured", false)
		q.Featured = &f
	}

	res, err := h.Equipments.Find(c.UserContext(), q)
	if err != nil {
		return err
	}
	switch {
	case res.Equipment != nil:
		return ok(c, fiber.Map{"equipment": res.Equipment})
	case res.CategoryReq:
		return ok(c, fiber.Map{"equipments": res.Equipments, "category": res.Category, "pagination": res.Pagination})
	case res.SearchTerm != "":
		return ok(c, fiber.Map{"equipments": res.Equipments, "search_term": res.SearchTerm, "pagination": res.Pagination})
	}
	return ok(c, fiber.Map{"equipments": res.Equipments, "pagination": res.Pagination})
}

func (h *EquipmentHandler) input(c *fiber.Ctx) (services.EquipmentInput, error) {
	p, err := readPayload(c)
	if err != nil {
		return services.EquipmentInput{}, err
	}
	in := services.EquipmentInput{
		Name:             p.String("name"),
		Slug:             p.String("slug"),
		Description:      p.String("description"),
		ShortDescription: p.String("short_description"),
		PriceType:        p.String("price_type"),
		SKU:              p.String("sku"),
		Brand:            p.String("brand"),
		Model:            p.String("model"),
		StockStatus:      p.String("stock_status"),
		Status:           p.String("status"),
	}
	errs := make([]error, 6)
	in.CategoryID, errs[0] = p.Int("category_id")
	in.Price, errs[1] = p.Float("price")
	in.Featured, errs[2] = p.Bool("featured")
	in.SortOrder, errs[3] = p.SmallInt("sort_order")
	in.Gallery, errs[4] = p.Gallery("gallery")
	in.Specs, errs[5] = p.Specs("specs")
	if err := firstErr(errs...); err != nil {
		return in, err
	}
	if p.Has("image") {
		in.Image = p.NullableString("image")
	}
	if fh := p.File("image"); fh != nil {
		path, err := h.Uploads.Save(fh, "equipments")
		if err != nil {
			return in, err
		}
		in.Image = services.Some(&path)
	}
	return in, nil
}

func (h *EquipmentHandler) create(c *fiber.Ctx) error {
	if _, err := authorize(c, h.Auth, false); err != nil {
		return err
	}
	in, err := h.input(c)
	if err != nil {
		return err
	}
	id, err := h.Equipments.Create(c.UserContext(), in, actor(c))
	if err != nil {
		return err
	}
	log.Audit(c, "equipment.create", map[string]any{"equipment_id": id})
	return render(c, fiber.StatusCreated, "Equipment created", fiber.Map{"id": id})
}

func (h *EquipmentHandler) update(c *fiber.Ctx) error {
	if _, err := authorize(c, h.Auth, false); err != nil {
		return err
	}
	id, err := requireID(c)
	if err != nil {
		return err
	}
	in, err := h.input(c)
	if err != nil {
		return err
	}
	if err := h.Equipments.Update(c.UserContext(), id, in, actor(c)); err != nil {
		return err
	}
	log.Audit(c, "equipment.update", map[string]any{"equipment_id": id})
	return render(c, fiber.StatusOK, "Equipment updated", nil)
}

func (h *EquipmentHandler) delete(c *fiber.Ctx) error {
	if _, err := authorize(c, h.Auth, false); err != nil {
		return err
	}
	id, err := requireID(c)
	if err != nil {
		return err
	}
	if err := h.Equipments.Delete(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	log.Audit(c, "equipment.delete", map[string]any{"equipment_id": id})
	return render(c, fiber.StatusOK, "Equipment deleted", nil)
}
