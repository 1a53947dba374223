package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Message: message})
}

// ErrorHandler renders every error returned by a handler or middleware in
// the response envelope.  Classified engine errors keep their message;
// anything unclassified is logged and reported as a bare 500.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := StatusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				slog.Any("error", err))
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = fail(c, status, msg)
		}
		if werr != nil {
			log.Warn("write error response", slog.Any("error", werr))
		}
	}
}

// StatusFor maps an error to its HTTP status and client-facing message.
// Classified errors win over any echo error they wrap.
func StatusFor(err error) (int, string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		var status int
		switch {
		case errors.Is(ae, apperr.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(ae, apperr.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(ae, apperr.ErrInvalidState), errors.Is(ae, apperr.ErrConflict):
			status = http.StatusConflict
		case errors.Is(ae, apperr.ErrUnauthorized):
			status = http.StatusUnauthorized
		default:
			return http.StatusInternalServerError, "internal server error"
		}
		if msg := apperr.Message(err); msg != "" {
			return status, msg
		}
		return status, http.StatusText(status)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	return http.StatusInternalServerError, "internal server error"
}
