package serverutils

import (
	"errors"

	"canvas-annotations-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps the service error tiers to HTTP statuses.
// Degraded-tier unavailability answers 503; malformed imports 400; surfaced
// export/import/clear/delete failures 500 with enough detail for the user
// to know whether data was partially written.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(verr.Error()))
		}

		if errors.Is(err, service.ErrInvalidImportFormat) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error()))
		}

		if errors.Is(err, service.ErrUnavailable) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(err.Error()))
		}

		var importErr *service.ImportError
		if errors.As(err, &importErr) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": importErr.Error(),
				"written": importErr.Written,
			})
		}

		var clearErr *service.ClearError
		if errors.As(err, &clearErr) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": clearErr.Error(),
				"deleted": clearErr.Deleted,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
