package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-solar-forecast/internal/geo"
	"github.com/i474232898/weather-solar-forecast/internal/logger"
	"github.com/i474232898/weather-solar-forecast/internal/service"
)

var validate = validator.New()

// WeatherService is the request-scoped pipeline the handlers delegate to.
type WeatherService interface {
	WeatherData(ctx context.Context, req service.Request) (*service.Response, error)
	Autocomplete(ctx context.Context, query string) []geo.Suggestion
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc WeatherService) {
	api := app.Group("/api")

	api.Post("/data", func(c *fiber.Ctx) error {
		req, err := bindDataRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp, err := svc.WeatherData(c.UserContext(), req)
		if err != nil {
			var notFound *geo.NotFoundError
			switch {
			case errors.Is(err, service.ErrInvalidRequest), errors.As(err, &notFound):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				logger.Errorf("weather data request failed: %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
			}
		}

		return c.JSON(resp)
	})

	api.Get("/autocomplete", func(c *fiber.Ctx) error {
		suggestions := svc.Autocomplete(c.UserContext(), c.Query("q"))
		return c.JSON(fiber.Map{
			"suggestions": suggestions,
		})
	})
}

// dataRequest holds the POST /api/data body.
type dataRequest struct {
	Location       *string  `json:"location" validate:"omitempty,min=1"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	HistoricalDays int      `json:"historical_days" validate:"omitempty,gte=7,lte=92"`
	ForecastDays   int      `json:"forecast_days" validate:"omitempty,gte=1,lte=14"`
}

func bindDataRequest(c *fiber.Ctx) (service.Request, error) {
	var body dataRequest
	if err := c.BodyParser(&body); err != nil {
		return service.Request{}, err
	}
	if err := validate.Struct(body); err != nil {
		return service.Request{}, err
	}

	hasText := body.Location != nil && *body.Location != ""
	hasCoords := body.Latitude != nil && body.Longitude != nil
	if hasText == hasCoords {
		return service.Request{}, service.ErrInvalidRequest
	}

	req := service.Request{
		HistoricalDays: body.HistoricalDays,
		ForecastDays:   body.ForecastDays,
	}
	if req.HistoricalDays == 0 {
		req.HistoricalDays = service.DefaultHistoricalDays
	}
	if req.ForecastDays == 0 {
		req.ForecastDays = service.DefaultForecastDays
	}
	if hasText {
		req.Location = *body.Location
	} else {
		req.Latitude = body.Latitude
		req.Longitude = body.Longitude
	}
	return req, nil
}
