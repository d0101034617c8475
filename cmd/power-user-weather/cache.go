package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/i474232898/power-user-weather/internal/cache"
	"github.com/i474232898/power-user-weather/internal/render"
)

func cacheCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "inspect the response cache",
		Subcommands: []*cli.Command{
			{
				Name:  "path",
				Usage: "print the cache directory",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, e.cfg.CacheDir)
					return err
				},
			},
			{
				Name:  "ls",
				Usage: "list cached responses with their size, age and freshness",
				Action: func(c *cli.Context) error {
					dc := cache.NewDiskCache(e.cfg.CacheDir, e.cfg.CacheTTL)
					entries, err := dc.Entries()
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					if len(entries) == 0 {
						_, err := fmt.Fprintf(c.App.Writer, "no cached responses in %s\n", dc.Dir())
						return err
					}
					return render.CacheEntries(c.App.Writer, entries, time.Now())
				},
			},
		},
	}
}
