// Package httpapi exposes the task and account operations as a JSON REST
// API on top of fiber.
package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 5 * time.Second

// Deps are the services the API is composed of.
type Deps struct {
	Identity Identity
	Tasks    Tasks
	Users    Users
	DB       Pinger
}

type Server struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, d Deps) *Server {
	l = l.With("module", "http_server")

	app := fiber.New(fiber.Config{
		AppName:               "taskkeeper",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(l),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	app.Use(RequestLogger(l))
	app.Use(recover.New())
	app.Use(newCORS(cfg.CORSAllowOrigins))

	setupRoutes(app, cfg, NewHandlers(d.Tasks, d.Users, d.DB, l), d.Identity)

	return &Server{address: cfg.HTTPAddr, app: app, logger: l}
}

func newCORS(origins string) fiber.Handler {
	origins = strings.TrimSpace(origins)
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		// fiber refuses credentials with a wildcard origin.
		AllowCredentials: origins != "*" && origins != "",
	})
}

func setupRoutes(app *fiber.App, cfg *config.Config, h *Handlers, id Identity) {
	app.Get("/", h.Root)
	app.Get("/health", h.Health)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		authRoutes.Use(limiter.New(limiter.Config{
			Max:        cfg.AuthRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, try again later")
			},
		}))
	}
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)

	authn := AuthMiddleware(id)

	api.Get("/users/me", authn, h.Me)
	api.Put("/users/me", authn, h.UpdateMe)
	api.Delete("/users/me", authn, h.DeleteMe)

	api.Post("/tasks", authn, h.CreateTask)
	api.Get("/tasks", authn, h.ListTasks)
	api.Get("/tasks/:id", authn, h.GetTask)
	api.Put("/tasks/:id", authn, h.UpdateTask)
	api.Delete("/tasks/:id", authn, h.DeleteTask)
}

// App exposes the underlying fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	return s.app.Listen(s.address)
}
