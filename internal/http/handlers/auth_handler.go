package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alugserv/internal/log"
	"alugserv/internal/services"
	"alugserv/internal/validate"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthHandler struct {
	Auth *services.AuthService
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	p, err := readPayload(c)
	if err != nil {
		return err
	}
	password, _ := p.scalar("password")
	req := loginRequest{Username: p.String("username").V, Password: password}
	if err := validate.Struct(req); err != nil {
		return err
	}

	res, err := h.Auth.Login(c.UserContext(), req.Username, req.Password, actor(c))
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"login": req.Username})
		return err
	}
	c.Locals("user_id", res.User.ID)
	log.Audit(c, "auth.login.success", map[string]any{"username": res.User.Username})
	return render(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

// POST /api/auth/logout succeeds whether or not the token was valid.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), bearerToken(c), actor(c)); err != nil {
		return err
	}
	log.Audit(c, "auth.logout", nil)
	return render(c, fiber.StatusOK, "Logged out", nil)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := authorize(c, h.Auth, false)
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "Authenticated", fiber.Map{"user": u})
}
