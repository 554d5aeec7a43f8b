package repos

import (
	"context"
	"fmt"

	"alugserv/internal/domain"

	"github.com/jmoiron/sqlx"
)

const userCols = `id, username, email, password, name, role, status, last_login, created_at, updated_at`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

type UserFilter struct {
	Status string
	Role   string
}

func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]domain.User, error) {
	q := From("users")
	if f.Status != "" {
		q.Where("status = ?", f.Status)
	}
	if f.Role != "" {
		q.Where("role = ?", f.Role)
	}
	s, args := q.Select(userCols, "name ASC")
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, s, args...)
	return out, err
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// ActiveByLogin finds an active user by username or email.
func (r *UserRepo) ActiveByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users
      WHERE (username = ? OR email = ?) AND status = 'active'
      ORDER BY id LIMIT 1`, login, login)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE username=?`, username); err != nil {
		return nil, err
	}
	return &u, nil
}

// Taken reports whether username or email belongs to a user other than
// exceptID (0 checks every user).
func (r *UserRepo) Taken(ctx context.Context, q sqlx.QueryerContext, column, value string, exceptID int64) (bool, error) {
	if column != "username" && column != "email" {
		return false, fmt.Errorf("taken: unsupported column %q", column)
	}
	var n int
	err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM users WHERE `+column+` = ? AND id <> ?`, value, exceptID)
	return n > 0, err
}

func (r *UserRepo) Insert(ctx context.Context, ex sqlx.ExtContext, u domain.User) (int64, error) {
	res, err := ex.ExecContext(ctx, `
  INSERT INTO users(username, email, password, name, role, status, created_at)
  VALUES(?,?,?,?,?,?,?)`, u.Username, u.Email, u.Hash, u.Name, u.Role, u.Status, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update writes every editable column; the password only when Hash is set.
func (r *UserRepo) Update(ctx context.Context, ex sqlx.ExtContext, u domain.User) error {
	var err error
	if u.Hash != "" {
		_, err = ex.ExecContext(ctx, `UPDATE users SET username=?, email=?, password=?, name=?, role=?, status=?, updated_at=? WHERE id=?`,
			u.Username, u.Email, u.Hash, u.Name, u.Role, u.Status, now(), u.ID)
	} else {
		_, err = ex.ExecContext(ctx, `UPDATE users SET username=?, email=?, name=?, role=?, status=?, updated_at=? WHERE id=?`,
			u.Username, u.Email, u.Name, u.Role, u.Status, now(), u.ID)
	}
	return err
}

// SetPassword stores a new hash and reactivates the account.
func (r *UserRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET password=?, status='active', updated_at=? WHERE id=?`, hash, now(), id)
	return err
}

// CountActiveAdmins counts admins able to log in, optionally ignoring one user.
func (r *UserRepo) CountActiveAdmins(ctx context.Context, q sqlx.QueryerContext, exceptID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM users WHERE role='admin' AND status='active' AND id <> ?`, exceptID)
	return n, err
}

// Delete removes the user's sessions and the user in one transaction.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Tx runs fn inside a transaction, committing when it returns nil.
func (r *UserRepo) Tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
