package handlers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "sellerhub/internal/log"
	"sellerhub/internal/media"
)

// NewApp builds the HTTP API. extra middleware (access logging, for one)
// runs after request ids are assigned and before any route.
func NewApp(d *Deps, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    media.MaxFiles*media.MaxFileSize + 1<<20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	for _, h := range extra {
		app.Use(h)
	}
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/media/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(envelope{Message: "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(Timeout(d.RequestTimeout))

	// ---------- Static media ----------
	mediaDir := d.MediaDir
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(envelope{Message: "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	api.Post("/auth/logout", d.AuthHandler.Logout)

	authed := api.Group("", RequireUser(d.Auth))

	authed.Get("/categories", d.CategoryHandler.List)
	authed.Get("/categories/:id", d.CategoryHandler.Get)
	authed.Post("/categories", d.CategoryHandler.Create)
	authed.Put("/categories/:id", RequireAdmin(), d.CategoryHandler.Update)
	authed.Delete("/categories/:id", RequireAdmin(), d.CategoryHandler.Delete)

	authed.Get("/products", d.ProductHandler.List)
	authed.Get("/products/:id", d.ProductHandler.Detail)
	authed.Post("/products", d.ProductHandler.Create)
	authed.Put("/products/:id", d.ProductHandler.Update)
	authed.Delete("/products/:id", d.ProductHandler.Delete)

	authed.Post("/admin/products/:id/status", RequireAdmin(), d.AdminHandler.SetProductStatus)

	authed.Get("/banks", d.PayoutHandler.Banks)
	authed.Get("/bank-detail", d.PayoutHandler.Get)
	authed.Post("/bank-detail", d.PayoutHandler.Save)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Page not found"})
	})
	return app
}
