package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpecho "github.com/mohammadpnp/parts-import/internal/interfaces/http/echo"
)

type HTTPDeps struct {
	Imports   *httpecho.ImportHandler
	Inventory *httpecho.InventoryHandler
	Metrics   http.Handler
	Logger    *zap.Logger
}

func NewHTTPServer(deps HTTPDeps) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("55M"))
	if deps.Logger != nil {
		server.Use(requestLogger(deps.Logger))
	}

	httpecho.RegisterRoutes(server, deps.Imports, deps.Inventory)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		server.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}

	return server
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request completed", fields...)
			return nil
		},
	})
}
