package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"filmclub/server/internal/config"
	"filmclub/server/internal/database"
	"filmclub/server/internal/handlers"
	"filmclub/server/internal/middleware"
	"filmclub/server/internal/repository"
	"filmclub/server/internal/routes"
	"filmclub/server/internal/services"
	ws "filmclub/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL, log); err != nil {
			return err
		}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to database")

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run(ctx)

	store := repository.NewPgStore(pool)
	identity := services.NewIdentityService(store, log.Named("identity"))
	groups := services.NewGroupService(store, hub, log.Named("groups"))

	h := handlers.New(handlers.Config{
		Groups:       groups,
		Identity:     identity,
		Hub:          hub,
		JWTSecret:    cfg.JWTSecret,
		SecureCookie: cfg.IsProduction(),
		Logger:       log,
	})

	app := newApp(cfg, log)
	routes.SetupRoutes(app, h, middleware.Auth(cfg.JWTSecret, identity))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newApp builds the fiber app with the global middleware stack.
func newApp(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Film Club API v1.0",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	return app
}
