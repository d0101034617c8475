package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/urfave/cli/v2"

	"github.com/i474232898/power-user-weather/internal/config"
	"github.com/i474232898/power-user-weather/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is filled in by the app's Before hook.
type env struct {
	cfg    *config.AppConfig
	logger *slog.Logger
}

func newApp() *cli.App {
	e := &env{}

	return &cli.App{
		Name:  "power-user-weather",
		Usage: "compare precipitation across Open-Meteo weather models",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging (overrides LOG_LEVEL)",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
			}

			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid LOG_LEVEL: %v", err), 2)
			}
			if c.Bool("debug") {
				level = slog.LevelDebug
			}

			e.cfg = cfg
			e.logger = logging.New(os.Stderr, level, false)
			slog.SetDefault(e.logger)
			return nil
		},
		Commands: []*cli.Command{
			compareCommand(e),
			serveCommand(e),
			cacheCommand(e),
		},
	}
}
