package domain

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

type User struct {
	ID        int64   `db:"id" json:"id"`
	Username  string  `db:"username" json:"username"`
	Email     string  `db:"email" json:"email"`
	Hash      string  `db:"password" json:"-"`
	Name      string  `db:"name" json:"name"`
	Role      string  `db:"role" json:"role"`
	Status    string  `db:"status" json:"status"`
	LastLogin *string `db:"last_login" json:"last_login"`
	CreatedAt string  `db:"created_at" json:"created_at"`
	UpdatedAt *string `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsActiveAdmin reports whether u counts towards the "at least one active
// admin" invariant.
func (u *User) IsActiveAdmin() bool { return u.IsAdmin() && u.Status == StatusActive }

type Session struct {
	Token     string `db:"token"`
	UserID    int64  `db:"user_id"`
	IP        string `db:"ip"`
	UserAgent string `db:"user_agent"`
	ExpiresAt string `db:"expires_at"`
	CreatedAt string `db:"created_at"`
}

// ActivityLog is one append-only audit record.
type ActivityLog struct {
	ID          int64  `db:"id" json:"id"`
	UserID      *int64 `db:"user_id" json:"user_id"`
	Action      string `db:"action" json:"action"`
	EntityType  string `db:"entity_type" json:"entity_type"`
	EntityID    *int64 `db:"entity_id" json:"entity_id"`
	Description string `db:"description" json:"description"`
	IP          string `db:"ip" json:"ip"`
	UserAgent   string `db:"user_agent" json:"user_agent"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}
