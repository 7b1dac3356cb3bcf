package handler

import (
	"errors"

	"garment-tracker/internal/apperror"
	"garment-tracker/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

var statusByCode = map[string]int{
	"BelowMinimumOrder":        fiber.StatusUnprocessableEntity,
	"InsufficientStock":        fiber.StatusUnprocessableEntity,
	"InvalidTransition":        fiber.StatusConflict,
	"OrderNotApproved":         fiber.StatusConflict,
	"OrderTerminal":            fiber.StatusConflict,
	"InvalidAccountTransition": fiber.StatusConflict,
	"InvalidInput":             fiber.StatusBadRequest,
	"NotFound":                 fiber.StatusNotFound,
	"AlreadyExists":            fiber.StatusConflict,
	"NetworkUnavailable":       fiber.StatusServiceUnavailable,
	"StoreUnavailable":         fiber.StatusServiceUnavailable,
}

// ErrorHandler renders every error returned by a handler or middleware as
// {"error": message, "code": taxonomy name}.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": "Http"})
		}

		code, status := classify(err)

		body := fiber.Map{"error": err.Error(), "code": code}
		switch status {
		case fiber.StatusInternalServerError:
			log.WithRequest(c.UserContext()).Error("unhandled error",
				logger.String("path", c.Path()), logger.Error(err))
			body["error"] = "Internal Server Error"
		case fiber.StatusServiceUnavailable:
			log.WithRequest(c.UserContext()).Warn("dependency unavailable",
				logger.String("path", c.Path()), logger.Error(err))
			body["error"] = "Service temporarily unavailable, try again"
			body["retryable"] = true
		}

		var qe *apperror.QuantityError
		if errors.As(err, &qe) {
			body["bound"] = qe.Bound
			body["requested"] = qe.Requested
		}
		return c.Status(status).JSON(body)
	}
}

// classify maps err to its taxonomy name and HTTP status. A failed session
// lookup caused by an unreachable store reports as retryable, not as a login failure.
func classify(err error) (string, int) {
	if errors.Is(err, apperror.ErrStoreUnavailable) {
		return "StoreUnavailable", fiber.StatusServiceUnavailable
	}
	code := apperror.Code(err)
	if apperror.IsDenied(err) {
		if errors.Is(err, apperror.ErrNoSession) {
			return code, fiber.StatusUnauthorized
		}
		return code, fiber.StatusForbidden
	}
	status, ok := statusByCode[code]
	if !ok {
		return code, fiber.StatusInternalServerError
	}
	return code, status
}

func badJSON() error {
	return apperror.Invalid("malformed JSON body")
}
