package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	app := s.app

	app.Get("/healthz", s.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	// API v1
	api := app.Group("/api/v1")
	api.Get("/auth", s.apiKeyRequired, s.testAuth)
	api.Get("/types/:device", s.types)
	api.Get("/requestfile/:id", s.requestFile)
	api.Get("/devices", s.versionDevices)
	api.Get("/changes/:device/:before?", s.changes)
	api.Post("/add_build", s.apiKeyRequired, s.addBuild)
	api.Post("/add_incremental", s.apiKeyRequired, s.addIncremental)
	api.Post("/purgecache", s.apiKeyRequired, s.purgeCache)
	api.Delete("/del_incremental/:filename", s.apiKeyRequired, s.deleteIncremental)
	api.Delete("/:filename", s.apiKeyRequired, s.deleteRom)
	api.Get("/:device/:romtype/:incrementalversion", s.builds)

	// Website
	app.Get("/", s.changelogPage)
	app.Get("/extras", s.extrasPage)
	app.Get("/:device/changes/:before?", s.changelogPage)
	app.Get("/:device", s.devicePage)
}

// apiKeyRequired rejects requests without a stored key in the Apikey header.
func (s *Server) apiKeyRequired(c *fiber.Ctx) error {
	if err := s.svc.Authorize(c.UserContext(), c.Get("Apikey")); err != nil {
		return err
	}
	return c.Next()
}

func (s *Server) health(c *fiber.Ctx) error {
	if err := s.svc.Health(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
