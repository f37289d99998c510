package errors

import (
	"errors"
	"net/http"

	"github.com/tazkarti/tz-booking/pkg/status"
)

// AppError is the error shape every layer hands back to the HTTP surface.
type AppError struct {
	HTTPStatusCode int
	Status         string
	Message        string
	Data           interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

func New(httpStatusCode int, status string, message string) error {
	return &AppError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
	}
}

// NewWithData attaches a payload the client needs to recover, e.g. the remaining stock.
func NewWithData(httpStatusCode int, status string, message string, data interface{}) error {
	return &AppError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
		Data:           data,
	}
}

// Destruct unwraps err into an AppError. Anything unknown is reported as an internal error.
func Destruct(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}

	return &AppError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        "an internal error occurred",
	}
}

// HasStatus reports whether err is an AppError carrying the given status code.
func HasStatus(err error, s string) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Status == s
	}

	return false
}
