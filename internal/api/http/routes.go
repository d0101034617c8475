package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/power-user-weather/internal/store"
	"github.com/i474232898/power-user-weather/internal/weather"
	"github.com/i474232898/power-user-weather/internal/weather/providers"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/precipitation", func(c *fiber.Ctx) error {
		var req compareQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		if req.Location.City != "" {
			geo, err := service.Locate(c.UserContext(), req.Location.City, req.Location.Country)
			if err != nil {
				if errors.Is(err, providers.ErrLocationNotFound) {
					return fiber.NewError(fiber.StatusNotFound, err.Error())
				}
				return fiber.NewError(fiber.StatusBadGateway, "failed to geocode location")
			}
			loc = geo
		}

		report, err := service.Compare(c.UserContext(), weather.CompareRequest{
			Location: loc,
			Start:    req.Start,
			End:      req.End,
			Unit:     weather.PrecipitationUnit(req.Unit),
			Timezone: req.Timezone,
			Sources:  req.Sources,
		})
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrInvalidPeriod), errors.Is(err, weather.ErrNoWindows):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, weather.ErrNoData):
				return fiber.NewError(fiber.StatusBadGateway, "no data retrieved from any source")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compare sources")
		}

		return c.JSON(report)
	})

	v1.Get("/precipitation/latest", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GetLatest(locReq.toLocation())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no precipitation report for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch precipitation report")
		}

		return c.JSON(report)
	})

	v1.Get("/precipitation/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		reports, err := service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no precipitation history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch precipitation history")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"reports":  reports,
		})
	})
}

// locationQuery identifies a location either by city or by coordinates.
type locationQuery struct {
	City      string
	Country   string
	Lat       float64 `validate:"gte=-90,lte=90"`
	Lon       float64 `validate:"gte=-180,lte=180"`
	HasCoords bool
}

func (l locationQuery) toLocation() weather.Location {
	if l.City != "" {
		return weather.Location{City: l.City, Country: l.Country}
	}
	return weather.Location{Lat: l.Lat, Lon: l.Lon}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return q, errors.New("lat must be a number")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return q, errors.New("lon must be a number")
		}
		q.Lat, q.Lon, q.HasCoords = lat, lon, true
	}

	if q.City == "" && !q.HasCoords {
		return q, errors.New("either city or lat and lon are required")
	}
	if q.City != "" && q.HasCoords {
		return q, errors.New("city and lat/lon are mutually exclusive")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// compareQuery holds query parameters for the on-demand comparison endpoint.
type compareQuery struct {
	Location  locationQuery
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`
	Unit      string `validate:"omitempty,oneof=mm inch"`
	Timezone  string `validate:"omitempty,timezone|eq=auto"`

	Start   time.Time
	End     time.Time
	Sources weather.PlanOptions
}

func (q *compareQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	q.Location = loc

	q.StartDate = c.Query("start")
	q.EndDate = c.Query("end")
	q.Unit = c.Query("unit")
	q.Timezone = c.Query("timezone")
	q.Sources = weather.PlanOptions{
		Historical: c.QueryBool("historical", true),
		Forecast:   c.QueryBool("forecast", true),
		Ensemble:   c.QueryBool("ensemble", true),
	}

	if err := validate.Struct(q); err != nil {
		return err
	}

	if q.Start, err = weather.ParseDate(q.StartDate); err != nil {
		return err
	}
	if q.End, err = weather.ParseDate(q.EndDate); err != nil {
		return err
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("end %s is before start %s", q.EndDate, q.StartDate)
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
