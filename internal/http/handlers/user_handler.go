package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alugserv/internal/apperr"
	"alugserv/internal/log"
	"alugserv/internal/repos"
	"alugserv/internal/services"
)

// UserHandler serves /api/users. Every method requires an admin session;
// the route is mounted behind RequireAdmin.
type UserHandler struct {
	Users *services.UserService
}

func (h *UserHandler) Dispatch(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet:
		return h.get(c)
	case fiber.MethodPost:
		return h.create(c)
	case fiber.MethodPut:
		return h.update(c)
	case fiber.MethodDelete:
		return h.delete(c)
	}
	return apperr.MethodNotAllowed()
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, hasID, err := queryID(c)
	if err != nil {
		return err
	}
	if hasID {
		u, err := h.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		return ok(c, fiber.Map{"user": u})
	}
	users, err := h.Users.List(ctx, repos.UserFilter{Status: c.Query("status"), Role: c.Query("role")})
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"users": users})
}

func userInput(c *fiber.Ctx) (services.UserInput, error) {
	p, err := readPayload(c)
	if err != nil {
		return services.UserInput{}, err
	}
	in := services.UserInput{
		Username: p.String("username"),
		Email:    p.String("email"),
		Name:     p.String("name"),
		Role:     p.String("role"),
		Status:   p.String("status"),
	}
	// Passwords are not trimmed. An empty one on update keeps the current hash.
	if pw, ok := p.scalar("password"); ok {
		in.Password = services.Some(pw)
	}
	return in, nil
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	in, err := userInput(c)
	if err != nil {
		return err
	}
	id, err := h.Users.Create(c.UserContext(), in, actor(c))
	if err != nil {
		return err
	}
	log.Audit(c, "user.create", map[string]any{"target_id": id})
	return render(c, fiber.StatusCreated, "User created", fiber.Map{"id": id})
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	in, err := userInput(c)
	if err != nil {
		return err
	}
	if err := h.Users.Update(c.UserContext(), id, in, actor(c)); err != nil {
		return err
	}
	log.Audit(c, "user.update", map[string]any{"target_id": id})
	return render(c, fiber.StatusOK, "User updated", nil)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	if err := h.Users.Delete(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	log.Audit(c, "user.delete", map[string]any{"target_id": id})
	return render(c, fiber.StatusOK, "User deleted", nil)
}
