package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alugserv/internal/apperr"
	"alugserv/internal/log"
	"alugserv/internal/repos"
	"alugserv/internal/services"
	"alugserv/internal/storage"
)

type CategoryHandler struct {
	Cats    *services.CategoryService
	Auth    *services.AuthService
	Uploads *storage.Local
}

// Dispatch serves /api/categories by method.
func (h *CategoryHandler) Dispatch(c *fiber.Ctx) error {
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

func (h *CategoryHandler) get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, hasID, err := queryID(c)
	if err != nil {
		return err
	}
	if hasID {
		cat, err := h.Cats.Get(ctx, id)
		if err != nil {
			return err
		}
		return ok(c, fiber.Map{"category": cat})
	}
	if sl := c.Query("slug"); sl != "" {
		cat, err := h.Cats.GetBySlug(ctx, sl)
		if err != nil {
			return err
		}
		return ok(c, fiber.Map{"category": cat})
	}

	f := repos.CategoryFilter{Status: c.Query("status")}
	if raw := c.Query("parent"); raw != "" {
		parent := int64(c.QueryInt("parent", -1))
		if parent < 0 {
			return apperr.Validation("parent must be a non-negative integer")
		}
		f.Parent = &parent
	}
	cats, err := h.Cats.List(ctx, f)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"categories": cats})
}

func (h *CategoryHandler) input(c *fiber.Ctx) (services.CategoryInput, error) {
	p, err := readPayload(c)
	if err != nil {
		return services.CategoryInput{}, err
	}
	in := services.CategoryInput{
		Name:        p.String("name"),
		Slug:        p.String("slug"),
		Description: p.String("description"),
		Icon:        p.String("icon"),
		Status:      p.String("status"),
	}
	var errParent, errSort error
	in.ParentID, errParent = p.Int("parent_id")
	in.SortOrder, errSort = p.SmallInt("sort_order")
	if err := firstErr(errParent, errSort); err != nil {
		return in, err
	}
	if p.Has("image") {
		in.Image = p.NullableString("image")
	}
	if fh := p.File("image"); fh != nil {
		path, err := h.Uploads.Save(fh, "categories")
		if err != nil {
			return in, err
		}
		in.Image = services.Some(&path)
	}
	return in, nil
}

func (h *CategoryHandler) create(c *fiber.Ctx) error {
	if _, err := authorize(c, h.Auth, false); err != nil {
		return err
	}
	in, err := h.input(c)
	if err != nil {
		return err
	}
	id, err := h.Cats.Create(c.UserContext(), in, actor(c))
	if err != nil {
		return err
	}
	log.Audit(c, "category.create", map[string]any{"category_id": id})
	return render(c, fiber.StatusCreated, "Category created", fiber.Map{"id": id})
}

func (h *CategoryHandler) update(c *fiber.Ctx) error {
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
	if err := h.Cats.Update(c.UserContext(), id, in, actor(c)); err != nil {
		return err
	}
	log.Audit(c, "category.update", map[string]any{"category_id": id})
	return render(c, fiber.StatusOK, "Category updated", nil)
}

func (h *CategoryHandler) delete(c *fiber.Ctx) error {
	if _, err := authorize(c, h.Auth, false); err != nil {
		return err
	}
	id, err := requireID(c)
	if err != nil {
		return err
	}
	if err := h.Cats.Delete(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	log.Audit(c, "category.delete", map[string]any{"category_id": id})
	return render(c, fiber.StatusOK, "Category deleted", nil)
}
