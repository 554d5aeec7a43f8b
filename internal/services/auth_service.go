package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	"alugserv/internal/repos"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrBadCreds     = apperr.Unauthorized("Invalid credentials")
	ErrNoToken      = apperr.Unauthorized("Authentication token missing")
	ErrInvalidToken = apperr.Unauthorized("Invalid or expired token")
	ErrNotAdmin     = apperr.Forbidden("Administrator access required")
)

type AuthService struct {
	Users    *repos.UserRepo
	Sessions *repos.SessionRepo
	Activity *ActivityService
	TTL      time.Duration
	Now      func() time.Time
}

func NewAuthService(users *repos.UserRepo, sessions *repos.SessionRepo, activity *ActivityService, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{Users: users, Sessions: sessions, Activity: activity, TTL: ttl, Now: time.Now}
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Login checks credentials against active users matched by username or email.
func (s *AuthService) Login(ctx context.Context, login, password string, a Actor) (LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return LoginResult{}, apperr.Validation("username and password are required")
	}

	u, err := s.Users.ActiveByLogin(ctx, login)
	if err != nil {
		if !repos.IsNotFound(err) {
			return LoginResult{}, apperr.Internal(err)
		}
		s.Activity.Record(ctx, a, "login_failed", EntityAuth, nil, "Login failed for unknown user: "+login)
		return LoginResult{}, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		s.Activity.Record(ctx, a, "login_failed", EntityAuth, idPtr(u.ID), "Wrong password for: "+u.Username)
		return LoginResult{}, ErrBadCreds
	}

	token, expires, err := s.CreateSession(ctx, u.ID, a)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}
	s.Activity.Record(ctx, a.WithUser(u.ID), "login", EntityAuth, idPtr(u.ID), "User logged in: "+u.Username)
	return LoginResult{Token: token, ExpiresAt: expires, User: u}, nil
}

// CreateSession issues a new token for userID, dropping the user's previous
// sessions and every expired one.
func (s *AuthService) CreateSession(ctx context.Context, userID int64, a Actor) (string, string, error) {
	token, err := NewToken()
	if err != nil {
		return "", "", err
	}
	expires := repos.FormatTime(s.now().Add(s.TTL))
	err = s.Sessions.Replace(ctx, domain.Session{
		Token:     token,
		UserID:    userID,
		IP:        a.IP,
		UserAgent: truncate(a.UserAgent, 255),
		ExpiresAt: expires,
	})
	return token, expires, err
}

// DestroySession deletes token; unknown tokens are fine.
func (s *AuthService) DestroySession(ctx context.Context, token string) error {
	return s.Sessions.Delete(ctx, token)
}

// Logout always succeeds from the caller's point of view once the token is
// gone, whether or not it was valid.
func (s *AuthService) Logout(ctx context.Context, token string, a Actor) error {
	if token == "" {
		return nil
	}
	if a.UserID == nil {
		if uid, err := s.Sessions.Owner(ctx, token); err == nil {
			a = a.WithUser(uid)
		}
	}
	if err := s.DestroySession(ctx, token); err != nil {
		return apperr.Internal(err)
	}
	s.Activity.Record(ctx, a, "logout", EntityAuth, a.UserID, "User logged out")
	return nil
}

// Authenticate resolves a bearer token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	u, err := s.Sessions.User(ctx, token, s.now())
	if err != nil {
		if repos.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *AuthService) RequireAdmin(u *domain.User) error {
	if u == nil {
		return ErrNoToken
	}
	if !u.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
