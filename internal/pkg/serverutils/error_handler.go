package serverutils

import (
	"errors"

	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/pkg/idempotency"
	"refund-lifecycle-be/pkg/production"
	"refund-lifecycle-be/pkg/refund"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON error envelopes.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		body := MapError(err)
		if body.Code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": body.Code,
				"error":  err.Error(),
			})
		} else {
			log.Debug("HTTP", "Request rejected", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": body.Code,
				"error":  err.Error(),
			})
		}
		return ctx.Status(body.Code).JSON(body)
	}
}

// MapError derives the status code and envelope for err.
func MapError(err error) *ErrorBody {
	var (
		reqErr    *RequestValidationError
		refundVal *refund.ValidationError
		prodVal   *production.ValidationError
		refundTr  *refund.InvalidTransitionError
		machineTr *workflow.InvalidTransitionError
		gwErr     *refund.GatewayError
		authErr   *refund.AuthorizationError
		fiberErr  *fiber.Error
	)

	switch {
	case errors.As(err, &reqErr):
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Errors = reqErr.Fields
		return body
	case errors.As(err, &refundVal):
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Errors = refundVal.Fields
		return body
	case errors.As(err, &prodVal):
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Errors = prodVal.Fields
		return body
	case errors.As(err, &authErr):
		code := fiber.StatusForbidden
		if errors.Is(authErr.Err, refund.ErrUnauthorized) {
			code = fiber.StatusUnauthorized
		}
		return ErrorResponse(code, authErr.Error())
	case errors.Is(err, refund.ErrNotFound), errors.Is(err, production.ErrNotFound):
		return ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.As(err, &refundTr):
		body := ErrorResponse(fiber.StatusConflict, err.Error())
		body.Details = map[string]any{"current_status": refundTr.Current, "allowed": refundTr.Allowed()}
		return body
	case errors.As(err, &machineTr):
		body := ErrorResponse(fiber.StatusConflict, err.Error())
		body.Details = map[string]any{"current_status": machineTr.From, "allowed": machineTr.Allowed}
		return body
	case errors.Is(err, refund.ErrConcurrentModification),
		errors.Is(err, refund.ErrRetryLimitReached),
		errors.Is(err, idempotency.ErrInProgress):
		return ErrorResponse(fiber.StatusConflict, err.Error())
	case errors.As(err, &gwErr):
		body := ErrorResponse(fiber.StatusBadGateway, err.Error())
		body.Details = map[string]any{"retryable": gwErr.Retryable, "provider": gwErr.Provider}
		return body
	case errors.As(err, &fiberErr):
		return ErrorResponse(fiberErr.Code, fiberErr.Message)
	}
	return ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
}
