// Package app wires configuration, storage, services and HTTP routes into a
// runnable server and owns their teardown.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/database"
	"todoapp/internal/handlers"
	"todoapp/internal/logging"
	"todoapp/internal/middleware"
	"todoapp/internal/repositories"
	"todoapp/internal/services"
	"todoapp/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// App is the assembled service.
type App struct {
	cfg    *config.Config
	logger logging.Logger
	db     *gorm.DB
	mq     *rabbitmq.Client // nil when events are disabled

	Fiber       *fiber.App
	AuthService *services.AuthService
	TodoService *services.TodoService
}

// New opens the database, migrates the schema, connects to RabbitMQ when
// configured and registers every route. Call Close when done.
func New(cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DBLogLevel)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, db: db}

	// A nil *rabbitmq.Client must not end up inside the interface.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.TodoEventsQueue}, logger)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("rabbitmq init error: %w", err)
		}
		a.mq = mq
		publisher = mq
	}

	userRepo := repositories.NewGORMUserRepository(db)
	todoRepo := repositories.NewGORMTodoRepository(db)

	a.AuthService = services.NewAuthService(userRepo, services.AuthOptions{
		JWTSecret:  cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}, logger)
	a.TodoService = services.NewTodoService(todoRepo, publisher, logger)

	a.Fiber = fiber.New(fiber.Config{
		AppName:      "todoapp",
		ErrorHandler: handlers.ErrorHandler(logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	a.routes()

	return a, nil
}

func (a *App) routes() {
	a.Fiber.Use(recover.New())
	a.Fiber.Use(requestid.New())
	a.Fiber.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	a.Fiber.Get("/health", a.handleHealth)

	requireAuth := middleware.AuthRequired(a.AuthService, a.logger)
	api := a.Fiber.Group(a.cfg.APIPrefix)

	handlers.NewAuthHandler(a.AuthService, a.logger).RegisterRoutes(api, requireAuth)
	handlers.NewTodoHandler(a.TodoService, a.logger).RegisterRoutes(api, requireAuth)
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, a.db); err != nil {
		a.logger.Warn(ctx, "health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "down",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "up",
	})
}

// Run serves HTTP until ctx is cancelled, SIGINT/SIGTERM arrives or the
// listener fails, then shuts down gracefully and closes all resources.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.mq != nil {
		go func() {
			a.logger.Info(ctx, "starting todo event audit consumer")
			if err := a.mq.Consume(ctx, rabbitmq.AuditHandler(a.logger)); err != nil {
				a.logger.Error(ctx, "todo event consumer stopped", "error", err)
			}
		}()
	}

	listenErr := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "starting server", "addr", a.cfg.AppPort)
		listenErr <- a.Fiber.Listen(a.cfg.AppPort)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info(context.Background(), "shutting down server")
	case err := <-listenErr:
		if err != nil {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	if err := a.Close(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	a.logger.Info(context.Background(), "server stopped")
	return runErr
}

// Close stops the HTTP server and releases the broker and database handles.
func (a *App) Close() error {
	var errs []error
	if err := a.Fiber.ShutdownWithTimeout(a.cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("rabbitmq close: %w", err))
		}
	}
	if err := database.Close(a.db); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	return errors.Join(errs...)
}
