package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pathik-bd/pathik-api/internal/logger"
	"github.com/pathik-bd/pathik-api/internal/service"
)

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAlreadyProcessed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}.  Internal failures are logged and
// reported with a generic message.
func fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithField("route", c.Path()).Error("request failed")
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": err.Error()}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	return c.JSON(status, body)
}

// page reads ?limit= and ?offset=.  Bad or missing values become zero and
// the service applies its defaults.
func page(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
