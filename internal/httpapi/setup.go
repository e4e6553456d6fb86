package httpapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// NewServer builds the Echo instance with the service middleware stack
// and registers every route on it.
func NewServer(cfg Config, handler *Handler, logger Logger, observer Observer, tracer Tracer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(requestLogger(logger, observer))
	// Innermost, so the span sees handler errors before the logger
	// converts them into responses.
	e.Use(requestTracer(tracer))

	handler.RegisterRoutes(e)

	return e
}

// requestTracer opens one span per request, joining the caller's trace
// when the request carries W3C trace-context headers.
func requestTracer(tracer Tracer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			carrier := make(map[string]string, 2)
			for _, header := range []string{"traceparent", "tracestate"} {
				if v := req.Header.Get(header); v != "" {
					carrier[header] = v
				}
			}

			ctx := tracer.SetCarrierOnContext(req.Context(), carrier)
			ctx, span := tracer.StartSpan(ctx, req.Method+" "+c.Path())
			defer span.End()

			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			tracer.SetAttributes(span, map[string]interface{}{
				"http.method":      req.Method,
				"http.route":       c.Path(),
				"http.status_code": c.Response().Status,
			})
			if err != nil {
				tracer.RecordErrorOnSpan(span, err)
			}
			return err
		}
	}
}

// requestLogger emits one structured log line per handled request and
// feeds the request counter.
func requestLogger(logger Logger, observer Observer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			observer.ObserveHTTPRequest(c.Path(), strconv.Itoa(status))

			fields := map[string]interface{}{
				"method":      c.Request().Method,
				"path":        c.Request().URL.Path,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if status >= 500 {
				logger.Error("request failed", err, fields)
			} else {
				logger.Info("request handled", nil, fields)
			}

			return nil
		}
	}
}
