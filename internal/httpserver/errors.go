package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/identity/internal/logging"
	"github.com/Skotchmaster/identity/internal/service"
	"github.com/Skotchmaster/identity/internal/transport"
)

// toHTTPError maps a service failure onto a status code. Infrastructure causes
// stay internal; only the taxonomy message reaches the client.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateIdentity):
		return echo.NewHTTPError(http.StatusConflict, service.ErrDuplicateIdentity.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, service.ErrNotFound.Error())
	case errors.Is(err, service.ErrInvalidCredential):
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidCredential.Error())
	case errors.Is(err, service.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidOrExpiredCode.Error())
	case errors.Is(err, service.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, service.ErrUnavailable.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = toHTTPError(err)
	}

	msg, ok := he.Message.(string)
	if !ok {
		msg = http.StatusText(he.Code)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, transport.ErrorResponse{Error: msg})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", err)
	}
}
