package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/authflow/internal/service"
)

// statusFor maps a service error kind to its HTTP status.  Conflict is a 400
// to match the published contract of the signup endpoint.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict, service.KindInvalidToken, service.KindPrecondition:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) echo.Map {
	return echo.Map{"kind": string(service.KindOf(err)), "message": service.MessageOf(err)}
}

// writeError renders err as {"error": {"kind", "message"}}.
func writeError(c echo.Context, err error) error {
	return c.JSON(statusFor(service.KindOf(err)), echo.Map{"error": errorBody(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error": echo.Map{"kind": string(service.KindValidation), "message": msg},
	})
}
