package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"alugserv/internal/config"
	"alugserv/internal/http/handlers"
	"alugserv/internal/repos"
	"alugserv/internal/services"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type env struct {
	t    *testing.T
	cfg  config.Config
	db   *sqlx.DB
	deps *handlers.Deps
	app  *fiber.App
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Port:            "0",
		DBDriver:        "sqlite",
		DBDSN:           ":memory:",
		UploadDir:       t.TempDir(),
		UploadURL:       "/uploads",
		UploadMaxBytes:  5 << 20,
		BodyLimit:       8 << 20,
		SessionTTL:      time.Hour,
		ItemsPerPage:    12,
		LoginRateMax:    100,
		LoginRateWindow: time.Minute,
	}
}

func newEnv(t *testing.T, opts ...func(*config.Config)) *env {
	t.Helper()
	cfg := testConfig(t)
	for _, o := range opts {
		o(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg)
	deps.Users.Cost = bcrypt.MinCost
	return &env{t: t, cfg: cfg, db: db, deps: deps, app: handlers.NewApp(cfg, deps)}
}

type reply struct {
	Status int
	Header http.Header
	Body   gjson.Result
	Raw    string
}

func (e *env) send(req *http.Request, token string) reply {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return reply{Status: resp.StatusCode, Header: resp.Header, Body: gjson.ParseBytes(b), Raw: string(b)}
}

// call sends body (if any) as JSON.
func (e *env) call(method, target, token string, body any) reply {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, token)
}

// multipartCall sends fields plus optional files keyed by form name.
func (e *env) multipartCall(method, target, token string, fields map[string]string, files map[string][]byte) reply {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("image", name)
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(req, token)
}

// admin creates (or resets) an admin account and returns a session token.
func (e *env) admin(username string) string {
	e.t.Helper()
	_, _, err := e.deps.Users.EnsureAdmin(context.Background(), username, username+"@example.com", "secret123")
	require.NoError(e.t, err)
	return e.login(username, "secret123")
}

func (e *env) editor(username string) string {
	e.t.Helper()
	_, err := e.deps.Users.Create(context.Background(), services.UserInput{
		Username: services.Some(username),
		Email:    services.Some(username + "@example.com"),
		Password: services.Some("secret123"),
	}, services.Actor{})
	require.NoError(e.t, err)
	return e.login(username, "secret123")
}

func (e *env) login(username, password string) string {
	e.t.Helper()
	r := e.call("POST", "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(e.t, http.StatusOK, r.Status, r.Raw)
	tok := r.Body.Get("token").String()
	require.NotEmpty(e.t, tok)
	return tok
}

func (e *env) category(token, name string) int64 {
	e.t.Helper()
	r := e.call("POST", "/api/categories", token, map[string]any{"name": name})
	require.Equal(e.t, http.StatusCreated, r.Status, r.Raw)
	return r.Body.Get("id").Int()
}

func (e *env) equipment(token string, body map[string]any) int64 {
	e.t.Helper()
	r := e.call("POST", "/api/equipments", token, body)
	require.Equal(e.t, http.StatusCreated, r.Status, r.Raw)
	return r.Body.Get("id").Int()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
