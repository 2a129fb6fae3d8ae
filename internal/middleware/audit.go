package middleware

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
)

// Audit emits structured logs and latency metrics for each request.
func Audit(logger *slog.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = ErrorStatus(err)
		}
		duration := time.Since(start)
		requestID := RequestIDFrom(c)
		m.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(status), duration)

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		}
		if requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if userID, _ := c.Locals(userIDLocal).(string); userID != "" {
			attrs = append(attrs, slog.String("user_id", userID))
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			if status >= fiber.StatusInternalServerError {
				logger.Error("request completed", attrs...)
			} else {
				logger.Warn("request completed", attrs...)
			}
			return err
		}

		logger.Info("request completed", attrs...)
		return nil
	}
}

// ErrorStatus maps a handler error to the HTTP status it is rendered with.
func ErrorStatus(err error) int {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
