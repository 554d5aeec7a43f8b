package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alugserv/internal/apperr"
	applog "alugserv/internal/log"
	"alugserv/internal/validate"
	"alugserv/internal/woocommerce"
)

// LegacyHandler proxies the read-only catalog of the old WooCommerce store.
type LegacyHandler struct {
	Woo     *woocommerce.Client
	PerPage int
}

func upstream(c *fiber.Ctx, err error) error {
	applog.Error(c, "woocommerce.request.fail", err, nil)
	var apiErr *woocommerce.APIError
	if errors.As(err, &apiErr) {
		return apperr.Upstream(apiErr.Message, err)
	}
	return apperr.Upstream("catalog unavailable", err)
}

func notFoundUpstream(err error) bool {
	var apiErr *woocommerce.APIError
	return errors.As(err, &apiErr) && apiErr.Code == fiber.StatusNotFound
}

// GET /api/produtos?id=|categoria=|search=
func (h *LegacyHandler) Products(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, hasID, err := queryID(c)
	if err != nil {
		return err
	}
	if hasID {
		p, err := h.Woo.Product(ctx, id)
		if err != nil {
			if notFoundUpstream(err) {
				return apperr.NotFound("Product not found")
			}
			return upstream(c, err)
		}
		return ok(c, fiber.Map{"product": p})
	}

	pg := pageOf(c, h.PerPage)
	q := woocommerce.ProductQuery{Page: pg.Number, PerPage: pg.PerPage}
	page := fiber.Map{"page": pg.Number, "per_page": pg.PerPage}

	if sl := validate.Clean(c.Query("categoria")); sl != "" {
		cat, err := h.Woo.CategoryBySlug(ctx, sl)
		if err != nil || cat == nil {
			if err != nil {
				applog.Error(c, "woocommerce.category.lookup.fail", err, map[string]any{"slug": sl})
			}
			return ok(c, fiber.Map{
				"products": []woocommerce.Product{}, "category": nil,
				"total": 0, "page": pg.Number, "total_pages": 0,
			})
		}
		q.Category = cat.ID
		page["category"] = fiber.Map{
			"id": cat.ID, "name": cat.Name, "slug": cat.Slug,
			"description": cat.Description, "image": cat.Image,
		}
	} else if term := validate.Clean(c.Query("search")); term != "" {
		q.Search = term
		page["search_term"] = term
	}

	products, err := h.Woo.Products(ctx, q)
	if err != nil {
		return upstream(c, err)
	}
	page["products"] = products
	// The store does not report totals here; a full page implies more.
	page["has_more"] = len(products) == pg.PerPage
	return ok(c, page)
}

// GET /api/categorias?id=|slug=|parent=
func (h *LegacyHandler) Categories(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, hasID, err := queryID(c)
	if err != nil {
		return err
	}
	if hasID {
		cat, err := h.Woo.Category(ctx, id)
		if err != nil {
			if notFoundUpstream(err) {
				return apperr.NotFound("Category not found")
			}
			return upstream(c, err)
		}
		return ok(c, fiber.Map{"category": cat})
	}
	if sl := validate.Clean(c.Query("slug")); sl != "" {
		cat, err := h.Woo.CategoryBySlug(ctx, sl)
		if err != nil {
			return upstream(c, err)
		}
		if cat == nil {
			return apperr.NotFound("Category not found")
		}
		return ok(c, fiber.Map{"category": cat})
	}

	var q woocommerce.CategoryQuery
	if c.Query("parent") != "" {
		parent := int64(c.QueryInt("parent", 0))
		q.Parent = &parent
	}
	cats, err := h.Woo.Categories(ctx, q)
	if err != nil {
		return upstream(c, err)
	}
	return ok(c, fiber.Map{"categories": cats, "tree": woocommerce.Tree(cats), "total": len(cats)})
}
