package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-insights/internal/weather"
)

var validate = validator.New()

// requestTimeout bounds the upstream calls made while serving one request.
const requestTimeout = 20 * time.Second

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	api := app.Group("/api")

	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Weather API is running"})
	})

	api.Post("/status", func(c *fiber.Ctx) error {
		var req statusRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(service.CreateStatusCheck(req.ClientName))
	})

	api.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(service.StatusChecks())
	})

	w := api.Group("/weather")

	w.Get("/geocode", func(c *fiber.Ctx) error {
		q := geocodeQuery{Q: c.Query("q")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		locs, err := service.Geocode(ctx, q.Q)
		if err != nil {
			return errorResponse(err, "City not found")
		}
		return c.JSON(locs)
	})

	w.Get("/reverse-geocode", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		loc, err := service.ReverseGeocode(ctx, coords)
		if err != nil {
			return errorResponse(err, "Location not found")
		}
		return c.JSON(loc)
	})

	w.Get("/current", func(c *fiber.Ctx) error {
		coords, units, err := parseCoordinatesAndUnits(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		current, err := service.Current(ctx, coords, units)
		if err != nil {
			return errorResponse(err, "no weather data for requested location")
		}
		return c.JSON(current)
	})

	w.Get("/forecast", func(c *fiber.Ctx) error {
		coords, units, err := parseCoordinatesAndUnits(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		summary, err := service.Forecast(ctx, coords, units)
		if err != nil {
			return errorResponse(err, "no forecast data for requested location")
		}
		return c.JSON(summary)
	})

	w.Get("/air-quality", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		aq, err := service.AirQuality(ctx, coords)
		if err != nil {
			return errorResponse(err, "Air quality data not available")
		}
		return c.JSON(aq)
	})

	w.Get("/uv-index", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		uv, err := service.UVIndex(ctx, coords)
		if err != nil {
			return errorResponse(err, "no weather data for requested location")
		}
		return c.JSON(uv)
	})

	w.Get("/alerts", func(c *fiber.Ctx) error {
		coords, units, err := parseCoordinatesAndUnits(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		report, err := service.Alerts(ctx, coords, units)
		if err != nil {
			return errorResponse(err, "no weather data for requested location")
		}
		return c.JSON(report)
	})

	w.Get("/alerts/recent", func(c *fiber.Ctx) error {
		limit, err := parseLimit(c, 10)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(service.RecentAlerts(limit))
	})

	w.Post("/history", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		// Query values alias fiber's request buffer; the store outlives it.
		req := historyRequest{
			City:    utils.CopyString(c.Query("city")),
			Country: utils.CopyString(c.Query("country")),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		service.SaveSearch(req.City, req.Country, coords)
		return c.JSON(fiber.Map{"message": "Saved to history"})
	})

	w.Get("/history", func(c *fiber.Ctx) error {
		limit, err := parseLimit(c, 5)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(service.RecentSearches(limit))
	})
}

type statusRequest struct {
	ClientName string `json:"client_name" validate:"required"`
}

type geocodeQuery struct {
	Q string `validate:"required,min=2"`
}

type historyRequest struct {
	City    string `validate:"required"`
	Country string `validate:"required"`
}

// coordinatesQuery holds query parameters for identifying a location.
type coordinatesQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

type limitQuery struct {
	Limit int `validate:"gte=1,lte=100"`
}

func parseCoordinates(c *fiber.Ctx) (weather.Coordinates, error) {
	var q coordinatesQuery

	for key, dst := range map[string]**float64{"lat": &q.Lat, "lon": &q.Lon} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return weather.Coordinates{}, errors.New("invalid " + key + "; must be a number")
		}
		*dst = &v
	}

	if err := validate.Struct(q); err != nil {
		return weather.Coordinates{}, err
	}
	return weather.Coordinates{Lat: *q.Lat, Lon: *q.Lon}, nil
}

func parseCoordinatesAndUnits(c *fiber.Ctx) (weather.Coordinates, weather.Units, error) {
	coords, err := parseCoordinates(c)
	if err != nil {
		return weather.Coordinates{}, "", err
	}
	units, err := weather.ParseUnits(c.Query("units"))
	if err != nil {
		return weather.Coordinates{}, "", err
	}
	return coords, units, nil
}

func parseLimit(c *fiber.Ctx, def int) (int, error) {
	q := limitQuery{Limit: def}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.New("invalid limit; must be an integer")
		}
		q.Limit = n
	}
	if err := validate.Struct(q); err != nil {
		return 0, err
	}
	return q.Limit, nil
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// errorResponse maps service errors to HTTP errors.
func errorResponse(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, weather.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, weather.ErrProviderUnavailable):
		log.Printf("ERROR: upstream unavailable: %v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "Weather service unavailable")
	case errors.Is(err, weather.ErrMalformedResponse), errors.Is(err, weather.ErrInvalidInput):
		log.Printf("ERROR: upstream returned unusable data: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "Weather service returned incomplete data")
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "Weather service timed out")
	default:
		log.Printf("ERROR: request failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}
