package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// toHTTPError maps a data-layer error onto a fiber error with a fitting status.
func toHTTPError(err error) error {
	var status int
	switch weather.KindOf(err) {
	case weather.KindInvalidInput:
		status = fiber.StatusBadRequest
	case weather.KindNotFound:
		status = fiber.StatusNotFound
	case weather.KindDuplicateCity:
		status = fiber.StatusConflict
	case weather.KindUnauthorized:
		// The proxy's credentials are broken, not the caller's.
		status = fiber.StatusBadGateway
	case weather.KindTimeout:
		status = fiber.StatusGatewayTimeout
	case weather.KindServiceUnavailable, weather.KindMalformedResponse:
		status = fiber.StatusServiceUnavailable
	default:
		status = fiber.StatusInternalServerError
	}
	return fiber.NewError(status, errorMessage(err))
}

// errorMessage prefers the user-facing message of a *weather.Error.
func errorMessage(err error) string {
	var werr *weather.Error
	if errors.As(err, &werr) && werr.Message != "" {
		return werr.Message
	}
	return err.Error()
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
