package health

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/quantified-ante/qabot/internal/metrics"
)

type StorePinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the liveness endpoint used by external orchestration:
// 200 when both the gateway and the document store are healthy, 503
// otherwise. Also serves Prometheus metrics.
type Server struct {
	app     *fiber.App
	addr    string
	store   StorePinger
	ready   func() bool
	started time.Time
}

func NewServer(host string, port, readTimeout, writeTimeout int, store StorePinger, ready func() bool) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(readTimeout) * time.Second,
		WriteTimeout:          time.Duration(writeTimeout) * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{
		app:     app,
		addr:    fmt.Sprintf("%s:%d", host, port),
		store:   store,
		ready:   ready,
		started: time.Now(),
	}

	app.Get("/", s.handleHealth)
	app.Get("/healthz", s.handleHealth)
	app.Get("/metrics", metrics.Handler())

	return s
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	gatewayUp := s.ready()
	dbUp := s.store.Ping(c.Context()) == nil

	if gatewayUp && dbUp {
		uptime := time.Since(s.started).Seconds()
		return c.Status(fiber.StatusOK).
			SendString(fmt.Sprintf("Healthy - Discord: %t, DB: %t, Uptime: %.0fs", gatewayUp, dbUp, uptime))
	}

	return c.Status(fiber.StatusServiceUnavailable).
		SendString(fmt.Sprintf("Unhealthy - Discord: %t, DB: %t", gatewayUp, dbUp))
}

func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
