package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"alugserv/internal/apperr"
	"alugserv/internal/config"
	applog "alugserv/internal/log"
)

const (
	corsMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsHeaders = "Content-Type, Authorization"
)

// NewApp builds the HTTP server with every route mounted.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "alugserv",
		ErrorHandler:          ErrorHandler,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(applog.Access())
	app.Use(fiberrecover.New())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(preflight)
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: corsMethods, AllowHeaders: corsHeaders}))

	// ---------- Static assets ----------
	if cfg.UploadURL != "" {
		app.Static(cfg.UploadURL, cfg.UploadDir)
	}

	// ---------- API ----------
	api := app.Group("/api", AttachUser(d.Auth))
	route := func(path string, hs ...fiber.Handler) {
		api.All(path, hs...)
		api.All(path+".php", hs...)
	}

	loginLimiter := limiter.New(limiter.Config{
		Max:        cfg.LoginRateMax,
		Expiration: cfg.LoginRateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many login attempts, try again later")
		},
	})
	route("/auth/login", allow(fiber.MethodPost), loginLimiter, d.AuthHandler.Login)
	route("/auth/logout", allow(fiber.MethodPost), d.AuthHandler.Logout)
	route("/auth/me", allow(fiber.MethodGet), d.AuthHandler.Me)

	route("/categories", d.CategoryHandler.Dispatch)
	route("/equipments", d.EquipmentHandler.Dispatch)
	route("/users", RequireAdmin(d.Auth), d.UserHandler.Dispatch)
	route("/dashboard", allow(fiber.MethodGet), RequireUser(d.Auth), d.AdminHandler.Summary)
	route("/maintenance/sync-categories", allow(fiber.MethodPost), RequireAdmin(d.Auth), d.AdminHandler.SyncCategories)

	if d.LegacyHandler != nil {
		route("/produtos", allow(fiber.MethodGet), d.LegacyHandler.Products)
		route("/categorias", allow(fiber.MethodGet), d.LegacyHandler.Categories)
	}

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir, fiber.Static{Index: "index.html", CacheDuration: 10 * time.Second})
	}
	app.Use(func(c *fiber.Ctx) error {
		return apperr.NotFound("Route not found")
	})
	return app
}

// preflight answers every OPTIONS request with 200 and the CORS headers.
func preflight(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodOptions {
		return c.Next()
	}
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, corsMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsHeaders)
	return c.SendStatus(fiber.StatusOK)
}

// Listen serves app on port until it fails.
func Listen(app *fiber.App, port string) error {
	addr := port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	return app.Listen(addr)
}
