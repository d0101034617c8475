package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/urfave/cli/v2"

	httpapi "github.com/i474232898/power-user-weather/internal/api/http"
	"github.com/i474232898/power-user-weather/internal/scheduler"
)

func serveCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and keep configured locations warm",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides PORT)"},
		},
		Action: func(c *cli.Context) error {
			app := wire(e.cfg, e.logger)

			// Scheduler that periodically refreshes and stores reports.
			sched := scheduler.New(e.cfg.Locations, e.cfg.PrewarmInterval, app.service, e.logger)
			if err := sched.Start(); err != nil {
				return cli.Exit("failed to start scheduler: "+err.Error(), 1)
			}
			defer sched.Stop()

			server := fiber.New(fiber.Config{
				AppName:               "power-user-weather",
				DisableStartupMessage: true,
				ReadTimeout:           10 * time.Second,
				// On-demand comparisons may wait on three upstream calls.
				WriteTimeout: e.cfg.HTTPTimeout + 10*time.Second,
				ErrorHandler: func(c *fiber.Ctx, err error) error {
					// Centralized error response
					code := fiber.StatusInternalServerError
					if fe, ok := err.(*fiber.Error); ok {
						code = fe.Code
					}
					return c.Status(code).JSON(fiber.Map{
						"error":   true,
						"message": err.Error(),
					})
				},
			})

			// Global middleware
			server.Use(logger.New())
			server.Use(recover.New())

			server.Get("/health", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"status":  "ok",
					"service": "power-user-weather",
					"cache":   app.cache.Dir(),
				})
			})

			httpapi.RegisterRoutes(server, app.service)

			port := c.String("port")
			if port == "" {
				port = e.cfg.Port
			}

			errCh := make(chan error, 1)
			go func() {
				e.logger.Info("listening", "port", port, "locations", len(e.cfg.Locations))
				errCh <- server.Listen(":" + port)
			}()

			select {
			case err := <-errCh:
				return cli.Exit("fiber server stopped: "+err.Error(), 1)
			case <-c.Context.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.ShutdownWithContext(shutdownCtx); err != nil {
				e.logger.Error("error during shutdown", "error", err)
			}
			return nil
		},
	}
}
