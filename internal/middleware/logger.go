package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/authflow/internal/logging"
)

// RequestLogger logs every request once, after the handler has run.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			}
			if id := AccountID(c); id != "" {
				args = append(args, "account_id", id)
			}
			ctx := c.Request().Context()
			if v.Error != nil {
				log.Error(ctx, "request", append(args, "error", v.Error.Error())...)
				return nil
			}
			logAt(ctx, log, v.Status, args)
			return nil
		},
	})
}

func logAt(ctx context.Context, log logging.Logger, status int, args []any) {
	switch {
	case status >= 500:
		log.Error(ctx, "request", args...)
	case status >= 400:
		log.Warn(ctx, "request", args...)
	default:
		log.Info(ctx, "request", args...)
	}
}
