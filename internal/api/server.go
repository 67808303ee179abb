package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
)

type ServerConfig struct {
	Origins []string
	Rate    float64 // requests per second per client; 0 disables limiting
}

// NewServer builds the echo instance with the middleware stack and routes.
func NewServer(cfg ServerConfig, h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = JSONSerializer{}
	e.Logger = log.New("bibliodash")

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %v id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Infof("%s %s %d %v id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Origins}))
	e.Use(middleware.Gzip())
	if cfg.Rate > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Rate))))
	}

	h.RegisterRoutes(e)
	return e
}
