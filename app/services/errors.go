package services

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

// Typed failures surfaced to the HTTP boundary. Expected non-fatal outcomes
// of the recognition path (no face, no match, save failed) are NOT errors;
// they come back as RecognitionOutcome values.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrValidation      = errors.New("validation error")
	ErrExternalService = errors.New("external service error")
	ErrStorage         = errors.New("storage error")
)

// HTTPStatus maps a service error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrExternalService):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
