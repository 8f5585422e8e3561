package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the only response shape the service writes.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Success sends 200 with status "success".
func Success(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Message: message})
}

// Failure sends status "error". The HTTP code stays 200 so clients only ever
// branch on the body.
func Failure(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusError, Message: message})
}

// Error sends the envelope with an explicit HTTP status. Used for framework
// errors (unknown route, wrong method, recovered panic), never for ingestion.
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Status: StatusError, Message: message})
}

// HTTPErrorHandler renders echo errors with Error.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = Error(c, status, message)
}
