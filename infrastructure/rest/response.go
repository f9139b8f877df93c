package rest

import (
	"log/slog"

	"chat-sync/errors"

	"github.com/gofiber/fiber/v2"
)

// Envelope wraps every response body, successful or not.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

// errorStatus maps the error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, errors.ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, errors.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, errors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, errors.ErrStorage):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler renders any error returned by a handler, including fiber's own
// 404 for unknown routes, as an envelope.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := errorStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		} else {
			log.Debug("Request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}
		return c.Status(status).JSON(Envelope{Success: false, Error: err.Error()})
	}
}
