package http

import (
	"context"
	"log/slog"
	"net/http"

	"pharmadelivery/api"
	_ "pharmadelivery/internal/generated/docs"
	"pharmadelivery/internal/generated/servers"
	"pharmadelivery/internal/observability"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterConfig holds the admin API settings. AdminSecret signs the bearer
// tokens; CORSOrigins lists the back office origins allowed to call it.
type RouterConfig struct {
	AdminSecret []byte
	CORSOrigins []string
}

// NewRouter mounts the generated routes plus /metrics, the swagger UI and
// the raw OpenAPI document.
func NewRouter(server *Server, cfg RouterConfig, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if len(cfg.CORSOrigins) > 0 {
		e.Pre(echo.WrapMiddleware(cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}).Handler))
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelDebug
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(context.Background(), level, "request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(observability.MetricsMiddleware())
	e.Use(AdminAuth(cfg.AdminSecret))

	servers.RegisterHandlers(e, server)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.yml", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", api.Spec)
	})
	return e
}
