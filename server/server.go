package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"go-fretboard/config"
	"go-fretboard/debug"
	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/playback"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP and websocket surface
type Server struct {
	App *fiber.App
	Hub *Hub

	tuning  fretboard.Tuning
	window  fretboard.Window
	options overlay.Options
}

// New builds the app. Defaults for /api/fretboard come from cfg; sync
// groups relay through bus, which in-process controllers may share.
func New(cfg *config.Config, bus *playback.Bus) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		Hub:    NewHub(bus),
		tuning: fretboard.Guitar6,
		window: cfg.Window(),
		options: overlay.Options{
			Labels:         overlay.ParseLabelMode(cfg.ActiveLabel),
			AlternateBar:   cfg.AlternateBar,
			IntervalColors: cfg.IntervalColors,
			Extensions:     cfg.Extensions,
			HideFootprint:  !cfg.Footprint,
		},
	}
	if cfg.Tuning != "" {
		if t, err := fretboard.ParseTuning(cfg.Tuning); err == nil {
			s.tuning = t
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} - ${latency} ${method} ${path}",
		Output: debug.Writer("http"),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/scales", s.Scales)
	api.Get("/scale", s.Scale)
	api.Get("/chords", s.Chords)
	api.Get("/fretboard", s.Fretboard)
	api.Get("/sync/:id", s.SyncStatus)
	api.Post("/sync/:id", s.SyncCommand)

	app.Use("/sync", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/sync/:id", websocket.New(func(c *websocket.Conn) {
		s.Hub.HandleConnection(c, c.Params("id"))
	}))

	s.App = app
	return s
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.Hub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() {
		debug.Log("server", "listening on %s", addr)
		errc <- s.App.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		debug.Log("server", "shutting down")
		if err := s.App.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
