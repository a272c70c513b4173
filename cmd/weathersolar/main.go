package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/weather-solar-forecast/internal/api/http"
	"github.com/i474232898/weather-solar-forecast/internal/config"
	"github.com/i474232898/weather-solar-forecast/internal/forecast"
	"github.com/i474232898/weather-solar-forecast/internal/geo"
	"github.com/i474232898/weather-solar-forecast/internal/geo/providers"
	"github.com/i474232898/weather-solar-forecast/internal/logger"
	"github.com/i474232898/weather-solar-forecast/internal/meteo"
	"github.com/i474232898/weather-solar-forecast/internal/probe"
	"github.com/i474232898/weather-solar-forecast/internal/service"
)

const appName = "weather-solar-forecast"
const appVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Geocoding providers in priority order: the keyed Google provider
	// first when configured, then the free providers.
	openMeteo := providers.NewOpenMeteoProvider(httpClient)
	nominatim := providers.NewNominatimProvider(httpClient)
	geocodeXYZ := providers.NewGeoCodeXYZProvider(httpClient)

	var geocoders []geo.Geocoder
	var reverseGeocoders []geo.ReverseGeocoder
	google := providers.NewGoogleProvider(cfg.GoogleMapsAPIKey, httpClient)
	if google != nil {
		geocoders = append(geocoders, google)
		reverseGeocoders = append(reverseGeocoders, google)
	}
	geocoders = append(geocoders, openMeteo, nominatim, geocodeXYZ)
	reverseGeocoders = append(reverseGeocoders, nominatim, openMeteo)

	resolver := geo.NewResolver(geocoders, reverseGeocoders)

	// Autocomplete tries providers in speed order, fastest first. The keyed
	// Places provider goes last: it is only consulted when the free
	// providers left the limit unfilled.
	suggesters := []geo.Suggester{openMeteo, nominatim}
	if google != nil {
		suggesters = append(suggesters, google)
	}
	autocomplete := geo.NewAutocomplete(suggesters, cfg.AutocompleteLimit)

	svc := service.New(resolver, autocomplete, meteo.NewClient(httpClient), forecast.NewEngine())

	// Background upstream reachability probe feeding the health endpoint.
	monitor := probe.New(httpClient, []probe.Target{
		{Name: "open-meteo-forecast", URL: "https://api.open-meteo.com/v1/forecast?latitude=0&longitude=0&hourly=temperature_2m&forecast_days=1"},
		{Name: "open-meteo-geocoding", URL: "https://geocoding-api.open-meteo.com/v1/search?name=london&count=1"},
	}, cfg.ProbeInterval)
	if err := monitor.Start(); err != nil {
		logger.Fatal(err)
	}
	defer monitor.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          120 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Weather & Solar Forecast API",
			"version": appVersion,
			"endpoints": fiber.Map{
				"health":       "/health",
				"autocomplete": "/api/autocomplete?q=<query>",
				"weather_data": "/api/data (POST)",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  appName,
			"upstream": monitor.Status(),
		})
	})

	httpapi.RegisterRoutes(app, svc)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorf("fiber server stopped: %v", err)
		}
	}()
	logger.Infof("listening on port %s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("error during shutdown: %v", err)
	}
}
