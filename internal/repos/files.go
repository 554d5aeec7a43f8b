package repos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
)

// fileInUse reports whether any category or equipment row points at the
// public path p, as its image or as a gallery entry.
func fileInUse(ctx context.Context, db sqlx.QueryerContext, p string) (bool, error) {
	quoted, err := json.Marshal(p)
	if err != nil {
		return false, err
	}
	var n int
	err = sqlx.GetContext(ctx, db, &n, `
    SELECT (SELECT COUNT(*) FROM equipments WHERE image = ? OR gallery LIKE ? ESCAPE '!')
         + (SELECT COUNT(*) FROM categories WHERE image = ?)`,
		p, Contains(string(quoted)), p)
	return n > 0, err
}

func (r *CategoryRepo) FileInUse(ctx context.Context, p string) (bool, error) {
	return fileInUse(ctx, r.db, p)
}

func (r *EquipmentRepo) FileInUse(ctx context.Context, p string) (bool, error) {
	return fileInUse(ctx, r.db, p)
}
