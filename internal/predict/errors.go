package predict

import (
	"errors"
	"fmt"
)

// Prediction error taxonomy. Callers classify with errors.Is / errors.As.
var (
	// ErrTimeout is returned when the endpoint does not answer within the client timeout.
	ErrTimeout = errors.New("prediction request timed out")
	// ErrNetwork is returned for transport failures (refused, reset, DNS...).
	ErrNetwork = errors.New("prediction endpoint unreachable")
	// ErrMalformedResponse is returned when the body is not a JSON object.
	ErrMalformedResponse = errors.New("malformed prediction response")
	// ErrCanceled is returned when the caller cancelled the request. It is not a failure.
	ErrCanceled = errors.New("prediction request canceled")
)

// HTTPError reports a non-2xx answer from the endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("prediction endpoint returned %s", e.Status)
	}
	return fmt.Sprintf("prediction endpoint returned HTTP %d", e.StatusCode)
}

// IsFailure reports whether err should count against the failure budget.
// Operator-initiated cancellation is not a failure.
func IsFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrCanceled)
}
