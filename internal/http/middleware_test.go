package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alugserv/internal/apperr"
	"alugserv/internal/config"
	"alugserv/internal/http/handlers"
	applog "alugserv/internal/log"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(applog.SetLogger(zap.New(core)))
	return logs
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	logs := observe(t)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("dial tcp 10.0.0.5:3306: access denied for user root")
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return apperr.Internal(errors.New("sql: no such table"))
	})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/bad", func(c *fiber.Ctx) error { return fiber.ErrBadRequest })

	for _, path := range []string{"/boom", "/wrapped"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := gjson.ParseBytes(b)
		assert.False(t, body.Get("success").Bool())
		assert.Equal(t, "internal_error", body.Get("error").String())
		assert.Equal(t, "Internal server error", body.Get("message").String())
		assert.NotContains(t, string(b), "10.0.0.5")
		assert.NotContains(t, string(b), "sql:")
	}
	assert.Equal(t, 2, logs.FilterMessage("server.error").Len())

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", gjson.GetBytes(b, "message").String())

	resp, err = app.Test(httptest.NewRequest("GET", "/bad", nil))
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "validation_error", gjson.GetBytes(b, "error").String())
}

func TestUnknownRoute(t *testing.T) {
	e := newEnv(t)
	r := e.call("GET", "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.JSONEq(t, `{"success":false,"error":"not_found","message":"Route not found"}`, r.Raw)

	r = e.call("PATCH", "/api/equipments", "", map[string]any{})
	assert.Equal(t, http.StatusMethodNotAllowed, r.Status)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	r := e.call("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, r.Status)
	assert.True(t, r.Body.Get("ok").Bool())
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.LoginRateMax = 3 })
	logs := observe(t)

	var last reply
	for i := 0; i < 4; i++ {
		last = e.call("POST", "/api/auth/login", "", map[string]string{"username": "x", "password": "y"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Status)
	assert.Equal(t, "rate_limited", last.Body.Get("error").String())
	assert.Equal(t, 1, logs.FilterMessage("rate.login.hit").Len())

	// Other routes are not limited.
	r := e.call("GET", "/api/categories", "", nil)
	assert.Equal(t, http.StatusOK, r.Status)
}

func TestBodyLimit(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.BodyLimit = 1024 })
	body := `{"username":"` + strings.Repeat("a", 4096) + `","password":"x"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	if err != nil {
		// fasthttp may drop the connection before a response is written.
		return
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestPreflightAndCORS(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest("OPTIONS", "/api/equipments.php?id=3", nil)
	req.Header.Set("Origin", "http://localhost:5500")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	r := e.send(req, "")
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "*", r.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, r.Header.Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, r.Header.Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest("GET", "/api/categories", nil)
	req.Header.Set("Origin", "http://localhost:5500")
	r = e.send(req, "")
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "*", r.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", r.Header.Get("X-Content-Type-Options"))
}

func TestAccessLog(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	logs := observe(t)

	e.call("GET", "/api/nothing-here", "", nil)
	e.call("GET", "/api/auth/me", tok, nil)

	access := logs.FilterMessage("http.access").All()
	require.Len(t, access, 2)

	first := access[0].ContextMap()
	assert.Equal(t, "GET", first["method"])
	assert.Equal(t, "/api/nothing-here", first["path"])
	assert.EqualValues(t, http.StatusNotFound, first["status"])
	assert.NotEmpty(t, first["req_id"])
	assert.NotContains(t, first, "user_id")

	second := access[1].ContextMap()
	assert.EqualValues(t, http.StatusOK, second["status"])
	assert.EqualValues(t, e.userID("admin"), second["user_id"])
}

func TestSecurityLogs(t *testing.T) {
	e := newEnv(t)
	e.admin("admin")
	editor := e.editor("joao")
	logs := observe(t)

	e.call("POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	e.call("GET", "/api/users", editor, nil)

	fails := logs.FilterMessage("auth.login.fail").All()
	require.Len(t, fails, 1)
	assert.Equal(t, zapcore.WarnLevel, fails[0].Level)
	assert.Equal(t, map[string]any{"login": "admin"}, fails[0].ContextMap()["fields"])

	denied := logs.FilterMessage("access.denied.admin").All()
	require.Len(t, denied, 1)
	assert.NotContains(t, fails[0].ContextMap(), "password")
}
