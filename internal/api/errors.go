package api

import (
	"errors"

	"github.com/benmeehan/locator/internal/services"
	"github.com/gofiber/fiber/v2"
)

// ErrorResp is the body of every failed request.
type ErrorResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrPersistence):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *HTTPService) errorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		h.logger.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Unhandled request error")
		msg = "internal server error"
	}
	return c.Status(status).JSON(ErrorResp{OK: false, Error: msg})
}

func badReq(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
