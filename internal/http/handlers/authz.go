package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	applog "alugserv/internal/log"
	"alugserv/internal/services"
)

const userKey = "user"

func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AttachUser resolves the bearer token, if any, and stores the user in
// Locals. Invalid tokens are not an error here; routes that need a user
// call authorize.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := bearerToken(c); tok != "" {
			u, err := auth.Authenticate(c.UserContext(), tok)
			switch {
			case err == nil:
				c.Locals(userKey, u)
				c.Locals("user_id", u.ID)
			case apperr.StatusOf(err) >= fiber.StatusInternalServerError:
				return err
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(userKey).(*domain.User)
	return u
}

// authorize returns the caller, failing with 401 without a valid session
// and 403 when admin is required and the caller is not one.
func authorize(c *fiber.Ctx, auth *services.AuthService, admin bool) (*domain.User, error) {
	u := currentUser(c)
	if u == nil {
		_, err := auth.Authenticate(c.UserContext(), bearerToken(c))
		if err == nil {
			err = services.ErrInvalidToken
		}
		return nil, err
	}
	if admin {
		if err := auth.RequireAdmin(u); err != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID, "role": u.Role})
			return nil, err
		}
	}
	return u, nil
}

// RequireUser enforces a valid bearer session.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := authorize(c, auth, false); err != nil {
			return err
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := authorize(c, auth, true); err != nil {
			return err
		}
		return c.Next()
	}
}

// actor describes the caller for the activity log.
func actor(c *fiber.Ctx) services.Actor {
	a := services.Actor{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
	if u := currentUser(c); u != nil {
		a = a.WithUser(u.ID)
	}
	return a
}

// allow rejects any method not listed with 405.
func allow(methods ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, m := range methods {
			if c.Method() == m {
				return c.Next()
			}
		}
		return apperr.MethodNotAllowed()
	}
}
