// Package server exposes the update API and the changelog website over
// HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/internal/metrics"
	"github.com/mwantia/updater/internal/updater"
	"github.com/mwantia/updater/pkg/log"
	"github.com/mwantia/updater/web"
)

type Options struct {
	Service  *updater.Service  `fabric:"inject"`
	Metrics  *metrics.Metrics  `fabric:"inject"`
	Logger   log.LoggerService `fabric:"logger:http"`
	Compress bool
}

type Server struct {
	app     *fiber.App
	svc     *updater.Service
	metrics *metrics.Metrics
	log     log.LoggerService
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")

	s := &Server{
		svc:     opts.Service,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
	s.app = fiber.New(fiber.Config{
		Views:                 engine,
		ViewsLayout:           "layout",
		ServerHeader:          "Updater",
		AppName:               "Updater",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	if opts.Compress {
		s.app.Use(compress.New())
	}
	s.app.Use(s.observe)

	s.registerRoutes()
	return s
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info("Server listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Init and Cleanup let a service container stop the server on shutdown.
func (s *Server) Init(ctx context.Context) error {
	return nil
}

func (s *Server) Cleanup(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")
	return s.Shutdown(ctx)
}

// handleError maps error codes to HTTP statuses with a JSON body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := err.Error()

	var fe *fiber.Error
	var ae *apperr.AppError
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
	case errors.As(err, &ae):
		message = ae.Message
		switch ae.Code {
		case apperr.ErrValidation:
			status = fiber.StatusBadRequest
		case apperr.ErrAuth:
			status = fiber.StatusForbidden
		case apperr.ErrNotFound:
			status = fiber.StatusNotFound
		case apperr.ErrUpstreamUnavailable:
			status = fiber.StatusBadGateway
		}
	}

	if status >= fiber.StatusInternalServerError {
		s.log.Error("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
