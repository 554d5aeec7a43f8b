package repos

import (
	"context"

	"alugserv/internal/domain"

	"github.com/jmoiron/sqlx"
)

const categoryCols = `
    c.id, c.name, c.slug, c.description, c.image, c.icon, c.parent_id,
    c.sort_order, c.status, c.created_at, c.updated_at,
    (SELECT COUNT(*) FROM equipments e WHERE e.category_id = c.id AND e.status = 'active') AS equipment_count`

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type CategoryFilter struct {
	Status string
	// Parent restricts to children of a category; 0 selects root categories.
	Parent *int64
}

func (r *CategoryRepo) List(ctx context.Context, f CategoryFilter) ([]domain.Category, error) {
	q := From("categories c")
	if f.Status != "" {
		q.Where("c.status = ?", f.Status)
	}
	if f.Parent != nil {
		if *f.Parent == 0 {
			q.Where("c.parent_id IS NULL")
		} else {
			q.Where("c.parent_id = ?", *f.Parent)
		}
	}
	s, args := q.Select(categoryCols, "c.sort_order ASC, c.name ASC")
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, s, args...)
	return out, err
}

func (r *CategoryRepo) ByID(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	s, args := From("categories c").Where("c.id = ?", id).Select(categoryCols, "")
	err := r.db.GetContext(ctx, &c, s, args...)
	return c, err
}

func (r *CategoryRepo) BySlug(ctx context.Context, slug string, activeOnly bool) (domain.Category, error) {
	q := From("categories c").Where("c.slug = ?", slug)
	if activeOnly {
		q.Where("c.status = 'active'")
	}
	var c domain.Category
	s, args := q.Select(categoryCols, "")
	err := r.db.GetContext(ctx, &c, s, args...)
	return c, err
}

func (r *CategoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories WHERE id = ?`, id)
	return n > 0, err
}

// Insert stores c and returns its id. Slug conflicts come back as the raw
// driver error (see IsDuplicate).
func (r *CategoryRepo) Insert(ctx context.Context, c domain.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
  INSERT INTO categories(name, slug, description, image, icon, parent_id, sort_order, status, created_at)
  VALUES(?,?,?,?,?,?,?,?,?)`,
		c.Name, c.Slug, c.Description, c.Image, c.Icon, c.ParentID, c.SortOrder, c.Status, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRepo) Update(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
  UPDATE categories
  SET name=?, slug=?, description=?, image=?, icon=?, parent_id=?, sort_order=?, status=?, updated_at=?
  WHERE id=?`,
		c.Name, c.Slug, c.Description, c.Image, c.Icon, c.ParentID, c.SortOrder, c.Status, now(), c.ID)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CountEquipments counts every equipment referencing the category,
// whatever its status.
func (r *CategoryRepo) CountEquipments(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM equipments WHERE category_id = ?`, id)
	return n, err
}

func (r *CategoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`)
	return n, err
}
