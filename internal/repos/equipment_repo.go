package repos

import (
	"context"

	"alugserv/internal/domain"

	"github.com/jmoiron/sqlx"
)

const (
	equipmentFrom = `equipments e LEFT JOIN categories c ON c.id = e.category_id`
	equipmentCols = `
    e.id, e.name, e.slug, e.description, e.short_description, e.category_id,
    c.name AS category_name, c.slug AS category_slug,
    e.image, e.gallery, e.price, e.price_type, e.sku, e.brand, e.model, e.specs,
    e.stock_status, e.featured, e.sort_order, e.status, e.views, e.created_at, e.updated_at`

	orderCatalog = "e.sort_order ASC, e.name ASC"
	orderName    = "e.name ASC"
)

type EquipmentRepo struct{ db *sqlx.DB }

func NewEquipmentRepo(db *sqlx.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

type EquipmentFilter struct {
	Status     string
	Featured   *bool
	CategoryID *int64
	// Search matches name, descriptions, brand, model and category name.
	Search string
}

func (f EquipmentFilter) query() *Query {
	q := From(equipmentFrom)
	if f.Status != "" {
		q.Where("e.status = ?", f.Status)
	}
	if f.Featured != nil {
		v := 0
		if *f.Featured {
			v = 1
		}
		q.Where("e.featured = ?", v)
	}
	if f.CategoryID != nil {
		q.Where("e.category_id = ?", *f.CategoryID)
	}
	if f.Search != "" {
		like := Contains(f.Search)
		q.Where(`(e.name LIKE ? ESCAPE '!' OR e.description LIKE ? ESCAPE '!'
      OR e.short_description LIKE ? ESCAPE '!' OR e.brand LIKE ? ESCAPE '!'
      OR e.model LIKE ? ESCAPE '!' OR c.name LIKE ? ESCAPE '!')`,
			like, like, like, like, like, like)
	}
	return q
}

// Page returns one page in catalog order (sort_order, name); searches are
// ordered by name.
func (r *EquipmentRepo) Page(ctx context.Context, f EquipmentFilter, p Page) ([]domain.Equipment, Pagination, error) {
	order := orderCatalog
	if f.Search != "" {
		order = orderName
	}
	var out []domain.Equipment
	pg, err := paginate(ctx, r.db, f.query(), equipmentCols, order, p, &out)
	return out, pg, err
}

// All returns every matching equipment in catalog order.
func (r *EquipmentRepo) All(ctx context.Context, f EquipmentFilter) ([]domain.Equipment, error) {
	s, args := f.query().Select(equipmentCols, orderCatalog)
	out := []domain.Equipment{}
	err := r.db.SelectContext(ctx, &out, s, args...)
	return out, err
}

func (r *EquipmentRepo) ByID(ctx context.Context, id int64) (domain.Equipment, error) {
	var e domain.Equipment
	s, args := From(equipmentFrom).Where("e.id = ?", id).Select(equipmentCols, "")
	err := r.db.GetContext(ctx, &e, s, args...)
	return e, err
}

func (r *EquipmentRepo) BySlug(ctx context.Context, slug string, activeOnly bool) (domain.Equipment, error) {
	q := From(equipmentFrom).Where("e.slug = ?", slug)
	if activeOnly {
		q.Where("e.status = 'active'")
	}
	var e domain.Equipment
	s, args := q.Select(equipmentCols, "")
	err := r.db.GetContext(ctx, &e, s, args...)
	return e, err
}

func (r *EquipmentRepo) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE equipments SET views = views + 1 WHERE id = ?`, id)
	return err
}

func (r *EquipmentRepo) Insert(ctx context.Context, e domain.Equipment) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
  INSERT INTO equipments(
    name, slug, description, short_description, category_id, image, gallery, price, price_type,
    sku, brand, model, specs, stock_status, featured, sort_order, status, views, created_at
  ) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,?)`,
		e.Name, e.Slug, e.Description, e.ShortDescription, e.CategoryID, e.Image, e.Gallery, e.Price, e.PriceType,
		e.SKU, e.Brand, e.Model, e.Specs, e.StockStatus, e.Featured, e.SortOrder, e.Status, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *EquipmentRepo) Update(ctx context.Context, e domain.Equipment) error {
	_, err := r.db.ExecContext(ctx, `
  UPDATE equipments SET
    name=?, slug=?, description=?, short_description=?, category_id=?, image=?, gallery=?, price=?,
    price_type=?, sku=?, brand=?, model=?, specs=?, stock_status=?, featured=?, sort_order=?,
    status=?, updated_at=?
  WHERE id=?`,
		e.Name, e.Slug, e.Description, e.ShortDescription, e.CategoryID, e.Image, e.Gallery, e.Price,
		e.PriceType, e.SKU, e.Brand, e.Model, e.Specs, e.StockStatus, e.Featured, e.SortOrder,
		e.Status, now(), e.ID)
	return err
}

// SetCategory moves one equipment to another category.
func (r *EquipmentRepo) SetCategory(ctx context.Context, id, categoryID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE equipments SET category_id=?, updated_at=? WHERE id=?`,
		categoryID, now(), id)
	return err
}

func (r *EquipmentRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM equipments WHERE id = ?`, id)
	return err
}

// Count counts equipments, restricted to status when non-empty.
func (r *EquipmentRepo) Count(ctx context.Context, status string) (int, error) {
	q := From("equipments e")
	if status != "" {
		q.Where("e.status = ?", status)
	}
	var n int
	s, args := q.Count()
	err := r.db.GetContext(ctx, &n, s, args...)
	return n, err
}

// Recent returns the n most recently created equipments.
func (r *EquipmentRepo) Recent(ctx context.Context, n int) ([]domain.Equipment, error) {
	s, args := From(equipmentFrom).Select(equipmentCols, "e.created_at DESC, e.id DESC")
	out := []domain.Equipment{}
	err := r.db.SelectContext(ctx, &out, s+" LIMIT ?", append(args, n)...)
	return out, err
}
