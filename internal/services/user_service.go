package services

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	"alugserv/internal/repos"
	"alugserv/internal/validate"
)

const MinPasswordLen = 6

var (
	errUserNotFound  = apperr.NotFound("User not found")
	errUsernameTaken = apperr.Validation("Username already exists")
	errEmailTaken    = apperr.Validation("Email already registered")
	errLastAdmin     = apperr.Validation("Cannot remove the last active administrator")
	errSelfDelete    = apperr.Validation("You cannot delete your own account")
)

type UserInput struct {
	Username Opt[string]
	Email    Opt[string]
	Password Opt[string]
	Name     Opt[string]
	Role     Opt[string]
	Status   Opt[string]
}

// The min tags track MinPasswordLen.
type userFields struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,max=100,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type newUserFields struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,max=100,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UserService struct {
	Users    *repos.UserRepo
	Activity *ActivityService
	Cost     int
}

func NewUserService(users *repos.UserRepo, activity *ActivityService) *UserService {
	return &UserService{Users: users, Activity: activity, Cost: bcrypt.DefaultCost}
}

func (s *UserService) List(ctx context.Context, f repos.UserFilter) ([]domain.User, error) {
	out, err := s.Users.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, errUserNotFound)
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, in UserInput, a Actor) (int64, error) {
	u := domain.User{
		Username: validate.Clean(in.Username.V),
		Role:     in.Role.Or(domain.RoleEditor),
		Status:   in.Status.Or(domain.StatusActive),
	}
	u.Email = strings.TrimSpace(in.Email.V)
	err := validate.Struct(newUserFields{Username: u.Username, Email: u.Email, Password: in.Password.V})
	if err != nil {
		return 0, err
	}
	u.Name = validate.Clean(in.Name.V)
	if u.Name == "" {
		u.Name = u.Username
	}
	if err := checkUserEnums(u); err != nil {
		return 0, err
	}
	hash, err := s.hash(in.Password.V)
	if err != nil {
		return 0, err
	}
	u.Hash = hash

	var id int64
	err = s.Users.Tx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkUnique(ctx, tx, u, 0); err != nil {
			return err
		}
		var err error
		id, err = s.Users.Insert(ctx, tx, u)
		return err
	})
	if err != nil {
		return 0, userWriteErr(err)
	}
	s.Activity.Record(ctx, a, "create", EntityUser, idPtr(id), "User created: "+u.Username)
	return id, nil
}

// Update applies the set fields. The last active admin can be neither
// demoted nor deactivated.
func (s *UserService) Update(ctx context.Context, id int64, in UserInput, a Actor) error {
	cur, err := s.Users.ByID(ctx, id)
	if err != nil {
		return lookupErr(err, errUserNotFound)
	}
	next := *cur
	next.Hash = ""
	if in.Username.Set {
		next.Username = validate.Clean(in.Username.V)
	}
	if in.Email.Set {
		next.Email = strings.TrimSpace(in.Email.V)
	}
	pw := ""
	if in.Password.Set {
		pw = in.Password.V
	}
	if err := validate.Struct(userFields{Username: next.Username, Email: next.Email, Password: pw}); err != nil {
		return err
	}
	if in.Name.Set {
		next.Name = validate.Clean(in.Name.V)
	}
	next.Role = in.Role.Or(cur.Role)
	next.Status = in.Status.Or(cur.Status)
	if err := checkUserEnums(next); err != nil {
		return err
	}
	if pw != "" {
		if next.Hash, err = s.hash(pw); err != nil {
			return err
		}
	}

	err = s.Users.Tx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkUnique(ctx, tx, next, id); err != nil {
			return err
		}
		if cur.IsActiveAdmin() && !next.IsActiveAdmin() {
			if err := s.checkOtherAdmins(ctx, tx, id); err != nil {
				return err
			}
		}
		return s.Users.Update(ctx, tx, next)
	})
	if err != nil {
		return userWriteErr(err)
	}
	s.Activity.Record(ctx, a, "update", EntityUser, idPtr(id), "User updated: "+next.Username)
	return nil
}

// Delete removes a user and its sessions. Callers cannot delete themselves
// or the last active admin.
func (s *UserService) Delete(ctx context.Context, id int64, a Actor) error {
	cur, err := s.Users.ByID(ctx, id)
	if err != nil {
		return lookupErr(err, errUserNotFound)
	}
	if a.UserID != nil && *a.UserID == id {
		return errSelfDelete
	}
	if cur.IsActiveAdmin() {
		if err := s.checkOtherAdmins(ctx, s.Users.DB, id); err != nil {
			return err
		}
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	s.Activity.Record(ctx, a, "delete", EntityUser, idPtr(id), "User deleted: "+cur.Username)
	return nil
}

// EnsureAdmin creates the admin account, or resets its password and
// reactivates it when the username exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (id int64, created bool, err error) {
	if len(password) < MinPasswordLen {
		return 0, false, apperr.Validation("password must be at least %d characters", MinPasswordLen)
	}
	u, err := s.Users.ByUsername(ctx, username)
	switch {
	case err == nil:
		hash, err := s.hash(password)
		if err != nil {
			return 0, false, err
		}
		if err := s.Users.SetPassword(ctx, u.ID, hash); err != nil {
			return 0, false, apperr.Internal(err)
		}
		if u.Role != domain.RoleAdmin {
			next := *u
			next.Hash = ""
			next.Role = domain.RoleAdmin
			next.Status = domain.StatusActive
			if err := s.Users.Update(ctx, s.Users.DB, next); err != nil {
				return 0, false, apperr.Internal(err)
			}
		}
		return u.ID, false, nil
	case !repos.IsNotFound(err):
		return 0, false, apperr.Internal(err)
	}
	id, err = s.Create(ctx, UserInput{
		Username: Some(username),
		Email:    Some(email),
		Password: Some(password),
		Name:     Some("Administrator"),
		Role:     Some(domain.RoleAdmin),
	}, Actor{})
	return id, err == nil, err
}

func (s *UserService) checkUnique(ctx context.Context, q sqlx.QueryerContext, u domain.User, exceptID int64) error {
	taken, err := s.Users.Taken(ctx, q, "username", u.Username, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return errUsernameTaken
	}
	taken, err = s.Users.Taken(ctx, q, "email", u.Email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return errEmailTaken
	}
	return nil
}

func (s *UserService) checkOtherAdmins(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	n, err := s.Users.CountActiveAdmins(ctx, q, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n == 0 {
		return errLastAdmin
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(h), nil
}

func checkUserEnums(u domain.User) error {
	if !validate.OneOf(u.Role, domain.RoleAdmin, domain.RoleEditor) {
		return apperr.Validation("role must be admin or editor")
	}
	if !validate.OneOf(u.Status, domain.StatusActive, domain.StatusInactive) {
		return apperr.Validation("status must be active or inactive")
	}
	return nil
}

// userWriteErr maps unique-key races the pre-check missed.
func userWriteErr(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case repos.IsDuplicate(err, "username"):
		return errUsernameTaken
	case repos.IsDuplicate(err, "email"):
		return errEmailTaken
	default:
		return apperr.Internal(err)
	}
}
