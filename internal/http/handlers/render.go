package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alugserv/internal/apperr"
	applog "alugserv/internal/log"
	"alugserv/internal/validate"
)

// render writes the success envelope {success, message?, ...data}.
func render(c *fiber.Ctx, status int, message string, data fiber.Map) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func ok(c *fiber.Ctx, data fiber.Map) error {
	return render(c, fiber.StatusOK, "", data)
}

// ErrorHandler renders every error as {success:false, error, message}.
// Internal details are logged, never sent.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	msg := "Internal server error"

	var fe *fiber.Error
	if e, ok := apperr.As(err); ok {
		status, code, msg = e.Status, e.Code, e.Message
	} else if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		status, code, msg = fe.Code, codeFor(fe.Code), fe.Message
	}
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	c.Status(status)
	return c.JSON(fiber.Map{"success": false, "error": code, "message": msg})
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "validation_error"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	}
	return "error"
}

// queryID parses ?id=; ok is false when the parameter is absent.
func queryID(c *fiber.Ctx) (int64, bool, error) {
	raw := c.Query("id")
	if raw == "" {
		return 0, false, nil
	}
	id, valid := validate.ID(raw)
	if !valid {
		return 0, true, apperr.Validation("id must be a positive integer")
	}
	return id, true, nil
}

// requireID is queryID for mutations, where the id is mandatory.
func requireID(c *fiber.Ctx) (int64, error) {
	id, present, err := queryID(c)
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, apperr.Validation("id is required")
	}
	return id, nil
}
