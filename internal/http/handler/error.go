package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cardocs/internal/http/middleware"
	"cardocs/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeEnvelope(c, status, errorEnvelope{Code: code, Message: message})
}

func writeEnvelope(c *fiber.Ctx, status int, env errorEnvelope) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     env,
	})
}

// respondError maps a service error onto the error envelope.
// PartialFailure is checked before StoreUnavailable because it wraps one.
func respondError(c *fiber.Ctx, err error, notFoundMsg string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return writeEnvelope(c, fiber.StatusBadRequest, errorEnvelope{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", notFoundMsg)
	case errors.Is(err, service.ErrPartialFailure):
		return writeEnvelope(c, fiber.StatusInternalServerError, errorEnvelope{
			Code:      "PARTIAL_FAILURE",
			Message:   "operation partially completed; retry or run reconciliation",
			Retryable: true,
		})
	case errors.Is(err, service.ErrStoreUnavailable):
		return writeEnvelope(c, fiber.StatusServiceUnavailable, errorEnvelope{
			Code:      "STORE_UNAVAILABLE",
			Message:   "storage backend unavailable",
			Retryable: true,
		})
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		case fiber.StatusServiceUnavailable:
			return writeEnvelope(c, status, errorEnvelope{Code: "SERVICE_UNAVAILABLE", Message: "service unavailable", Retryable: true})
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
