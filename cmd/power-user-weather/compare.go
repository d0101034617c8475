package main

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v2"

	"github.com/i474232898/power-user-weather/internal/render"
	"github.com/i474232898/power-user-weather/internal/weather"
)

var validate = validator.New()

// compareInput is the validated form of the compare flags.
type compareInput struct {
	City     string
	Country  string
	Lat      float64 `validate:"gte=-90,lte=90"`
	Lon      float64 `validate:"gte=-180,lte=180"`
	Start    string  `validate:"required,datetime=2006-01-02"`
	End      string  `validate:"required,datetime=2006-01-02"`
	Unit     string  `validate:"required,oneof=mm inch"`
	Timezone string  `validate:"required,timezone|eq=auto"`
}

func compareCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "fetch and compare precipitation totals per model for a period",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city", Aliases: []string{"c"}, Usage: `city name, e.g. "Seattle"`},
			&cli.StringFlag{Name: "country", Usage: "country name or ISO code used to disambiguate --city"},
			&cli.Float64Flag{Name: "lat", Usage: "latitude (use with --lon)"},
			&cli.Float64Flag{Name: "lon", Usage: "longitude (use with --lat)"},
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "start date (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "end date (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "unit", Aliases: []string{"u"}, Usage: "precipitation unit (mm or inch)"},
			&cli.StringFlag{Name: "timezone", Aliases: []string{"z"}, Usage: `time zone, e.g. "America/New_York", or "auto" for the location's own`},
			&cli.BoolFlag{Name: "historical", Value: true, Usage: "fetch historical archive data"},
			&cli.BoolFlag{Name: "forecast", Value: true, Usage: "fetch standard forecast data"},
			&cli.BoolFlag{Name: "ensemble", Value: true, Usage: "fetch ensemble forecast data (requires --forecast)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "show the detailed daily breakdown"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Action: func(c *cli.Context) error {
			in := compareInput{
				City:     c.String("city"),
				Country:  c.String("country"),
				Lat:      c.Float64("lat"),
				Lon:      c.Float64("lon"),
				Start:    c.String("start"),
				End:      c.String("end"),
				Unit:     c.String("unit"),
				Timezone: c.String("timezone"),
			}
			if in.Unit == "" {
				in.Unit = string(e.cfg.Unit)
			}
			if in.Timezone == "" {
				in.Timezone = e.cfg.Timezone
			}
			hasCoords := c.IsSet("lat") || c.IsSet("lon")
			switch {
			case in.City != "" && hasCoords:
				return cli.Exit("--city and --lat/--lon are mutually exclusive", 2)
			case in.City == "" && !(c.IsSet("lat") && c.IsSet("lon")):
				return cli.Exit("must specify either --city or both --lat and --lon", 2)
			}
			if err := validate.Struct(in); err != nil {
				return cli.Exit(err.Error(), 2)
			}

			start, err := weather.ParseDate(in.Start)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			end, err := weather.ParseDate(in.End)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			app := wire(e.cfg, e.logger)
			out := render.New(c.App.Writer, c.Bool("no-color"))

			loc := weather.Location{
				Name: fmt.Sprintf("Lat: %.4f, Lon: %.4f", in.Lat, in.Lon),
				Lat:  in.Lat,
				Lon:  in.Lon,
			}
			if in.City != "" {
				out.Info("Geocoding '%s'...", in.City)
				if loc, err = app.service.Locate(c.Context, in.City, in.Country); err != nil {
					return cli.Exit(fmt.Sprintf("geocode %q: %v", in.City, err), 1)
				}
			}
			out.Header(loc, start, end)

			report, err := app.service.Compare(c.Context, weather.CompareRequest{
				Location: loc,
				Start:    start,
				End:      end,
				Unit:     weather.PrecipitationUnit(in.Unit),
				Timezone: in.Timezone,
				Sources: weather.PlanOptions{
					Historical: c.Bool("historical"),
					Forecast:   c.Bool("forecast"),
					Ensemble:   c.Bool("ensemble"),
				},
			})
			switch {
			case errors.Is(err, weather.ErrInvalidPeriod), errors.Is(err, weather.ErrNoWindows):
				return cli.Exit(err.Error(), 2)
			case err != nil:
				return cli.Exit(err.Error(), 1)
			}

			out.Status(report.Sources)
			if err := out.Report(report, c.Bool("verbose")); err != nil {
				return err
			}
			out.Done()
			return nil
		},
	}
}
