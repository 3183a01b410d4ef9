package errors

import (
	"net/http"

	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type ApplicationError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func New(httpStatusCode int, status string, message string) error {
	return &ApplicationError{
		HTTPStatusCode: httpStatusCode,
		Status:         status,
		Message:        message,
	}
}

// Destruct extracts the application error out of err. Errors that did not
// originate from this package collapse into an internal server error.
func Destruct(err error) *ApplicationError {
	if ae, ok := err.(*ApplicationError); ok {
		return ae
	}

	return &ApplicationError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}
