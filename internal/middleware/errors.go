package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
)

type errorMeta struct {
	Msg    string `json:"msg"`
	Status bool   `json:"status"`
}

type errorBody struct {
	Meta  errorMeta `json:"meta"`
	Error string    `json:"error"`
	Data  any       `json:"data,omitempty"`
}

// ErrorHandler renders handler errors in the API error envelope. Unclassified
// errors are logged and hidden behind a generic message.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			if appErr.Kind == apperr.KindInternal {
				logger.ErrorContext(c.UserContext(), "internal error",
					slog.String("path", c.Path()),
					slog.Any("error", err),
				)
			}
			return c.Status(appErr.Status()).JSON(errorBody{
				Meta:  errorMeta{Msg: appErr.Message},
				Error: string(appErr.Kind),
				Data:  appErr.Data,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorBody{
				Meta:  errorMeta{Msg: fiberErr.Message},
				Error: kindForStatus(fiberErr.Code),
			})
		}

		logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
			Meta:  errorMeta{Msg: "Internal server error"},
			Error: string(apperr.KindInternal),
		})
	}
}

func kindForStatus(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return string(apperr.KindValidation)
	case fiber.StatusUnauthorized:
		return string(apperr.KindUnauthorized)
	case fiber.StatusNotFound:
		return string(apperr.KindNotFound)
	case fiber.StatusConflict:
		return "conflict"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	}
	if code >= fiber.StatusInternalServerError {
		return string(apperr.KindInternal)
	}
	return "request_error"
}
