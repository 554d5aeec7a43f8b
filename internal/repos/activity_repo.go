package repos

import (
	"context"

	"alugserv/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ActivityRepo struct{ db *sqlx.DB }

func NewActivityRepo(db *sqlx.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Insert(ctx context.Context, a domain.ActivityLog) error {
	_, err := r.db.ExecContext(ctx, `
  INSERT INTO activity_logs(user_id, action, entity_type, entity_id, description, ip, user_agent, created_at)
  VALUES(?,?,?,?,?,?,?,?)`, a.UserID, a.Action, a.EntityType, a.EntityID, a.Description, a.IP, a.UserAgent, now())
	return err
}

// Latest returns the newest entries first, optionally for one action.
func (r *ActivityRepo) Latest(ctx context.Context, action string, limit int) ([]domain.ActivityLog, error) {
	q := From("activity_logs")
	if action != "" {
		q.Where("action = ?", action)
	}
	s, args := q.Select(`id, user_id, action, entity_type, entity_id, description, ip, user_agent, created_at`, "id DESC")
	out := []domain.ActivityLog{}
	err := r.db.SelectContext(ctx, &out, s+" LIMIT ?", append(args, limit)...)
	return out, err
}
