package repos

import (
	"context"
	"time"

	"alugserv/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// Replace drops the user's previous sessions and every expired one, stores
// s and stamps last_login, all in one transaction.
func (r *SessionRepo) Replace(ctx context.Context, s domain.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ? OR expires_at < ?`, s.UserID, ts); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
  INSERT INTO sessions(token, user_id, ip, user_agent, expires_at, created_at)
  VALUES(?,?,?,?,?,?)`, s.Token, s.UserID, s.IP, s.UserAgent, s.ExpiresAt, ts); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, ts, s.UserID); err != nil {
		return err
	}
	return tx.Commit()
}

// User resolves a non-expired token to its active owner.
func (r *SessionRepo) User(ctx context.Context, token string, at time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
  SELECT u.id, u.username, u.email, u.password, u.name, u.role, u.status, u.last_login, u.created_at, u.updated_at
  FROM sessions s
  JOIN users u ON u.id = s.user_id
  WHERE s.token = ? AND s.expires_at > ? AND u.status = 'active'`, token, FormatTime(at))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes token. Unknown tokens are not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// Owner returns the user id a token belongs to, expired or not.
func (r *SessionRepo) Owner(ctx context.Context, token string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `SELECT user_id FROM sessions WHERE token = ?`, token)
	return id, err
}

func (r *SessionRepo) CountForUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID)
	return n, err
}
