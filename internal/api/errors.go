package api

import (
	"errors"
	"log/slog"
	"net/http"

	"campuswire/internal/fanout"
	"campuswire/internal/messaging"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	errMissingToken     = echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	errInvalidToken     = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errIdentityInactive = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRoleMismatch     = echo.NewHTTPError(http.StatusForbidden, "token role does not match the directory")
	errForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errDirectory        = echo.NewHTTPError(http.StatusServiceUnavailable, "directory unavailable")
)

// badRequest are domain errors caused by the request content.
var badRequest = []error{
	types.ErrInvalidUserID,
	types.ErrInvalidRule,
	types.ErrInvalidNotice,
	types.ErrInvalidAssessment,
	types.ErrInvalidAttendance,
	types.ErrInvalidMessage,
	fanout.ErrNoAudience,
	messaging.ErrSelfMessage,
}

var notFound = []error{
	interfaces.ErrNotificationNotFound,
	interfaces.ErrAssessmentNotFound,
	interfaces.ErrIdentityNotFound,
	messaging.ErrRecipientNotFound,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorHandler maps every error a handler returns onto one JSON shape.
func (s *Server) errorHandler(err error, c echo.Context) {
	var (
		code    int
		message any
	)

	var httpErr *echo.HTTPError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
	case errors.As(err, &validationErrs):
		fields := make(map[string]string, len(validationErrs))
		for _, v := range validationErrs {
			fields[v.Field()] = v.Tag()
		}
		code = http.StatusBadRequest
		message = fields
	case matchesAny(err, badRequest):
		code = http.StatusBadRequest
		message = err.Error()
	case matchesAny(err, notFound):
		code = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, interfaces.ErrUnauthorized):
		code = http.StatusUnauthorized
		message = err.Error()
	default:
		code = http.StatusInternalServerError
		message = http.StatusText(code)
		s.logger.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.Any("error", err))
	}

	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	} else {
		message = echo.Map{"error": http.StatusText(code), "fields": message}
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, message)
	}
	if err != nil {
		s.logger.Error("failed to write error response", slog.Any("error", err))
	}
}
