package serverutils

import (
	"errors"

	"ai-docview-be/internal/service"
	"ai-docview-be/pkg/extract"
	"ai-docview-be/pkg/view"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	var ve *ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, view.ErrInvalidView),
		errors.Is(err, view.ErrNotRegistered),
		errors.Is(err, extract.ErrEmptyContent):
		return fiber.StatusBadRequest
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrViewNotReady):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNoIntermediateResult):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrProcessingTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, service.ErrViewProcessingFailure):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
