package storefront

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/Apurer/storefront-client/internal/shared/errors"
)

// ErrDecode marks a response whose envelope did not match any known shape.
var ErrDecode = errors.New("unexpected response shape")

// TransportError reports a failed call: either the request never completed
// (Status is zero and Err is set) or the API answered with a non-2xx status.
type TransportError struct {
	Op      string
	Status  int
	Problem apierrors.ProblemDetail
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	msg := e.Problem.Title
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Problem.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Problem.Detail)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status, or zero for network failures.
func (e *TransportError) StatusCode() int {
	return e.Status
}

// IsStatus reports whether err is a TransportError carrying status.
func IsStatus(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == status
}

// IsUnauthorized reports a 401 or 403 answer.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)
}
