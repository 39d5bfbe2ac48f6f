package handlers

import (
	"errors"

	"todoapp/internal/apperrors"
	"todoapp/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// StatusCode maps an error to the HTTP status it is reported with.
func StatusCode(err error) int {
	var fiberErr *fiber.Error
	switch {
	case apperrors.IsValidation(err):
		return fiber.StatusBadRequest
	case apperrors.IsConflict(err):
		return fiber.StatusConflict
	case apperrors.IsUnauthorized(err):
		return fiber.StatusUnauthorized
	case apperrors.IsForbidden(err):
		return fiber.StatusForbidden
	case apperrors.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a JSON body. Internal errors are logged and
// reported with fallback only, so driver messages never leak to clients.
func respondError(c *fiber.Ctx, logger logging.Logger, err error, fallback string) error {
	status := StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(c.UserContext(), fallback, "error", err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"message": fallback,
		})
	}

	message := apperrors.MessageOf(err, fallback)
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message = fiberErr.Message
	}

	body := fiber.Map{
		"message": message,
	}
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}

// invalidBody reports a request body that could not be decoded.
func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// ErrorHandler is the Fiber-level error handler for errors returned by
// handlers and middleware, including unknown routes.
func ErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respondError(c, logger, err, "Internal server error")
	}
}
