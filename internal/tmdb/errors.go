package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "movienight-workers/internal/common/errors"
	commonhttp "movienight-workers/internal/common/http"
)

// ErrTimeout matches (errors.Is) calls that exceeded the per-call timeout.
var ErrTimeout = commonhttp.ErrTimeout

// APIError is a failed call to the metadata service. StatusCode is zero for
// transport failures and timeouts.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Timeout() bool {
	return errors.Is(e.Err, ErrTimeout)
}

func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func wrapErr(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	// cancellation is the caller's doing, not a service failure
	if errors.Is(err, context.Canceled) {
		return err
	}
	apiErr := &APIError{Endpoint: endpoint, Err: err}
	var se *commonhttp.StatusError
	if errors.As(err, &se) {
		apiErr.StatusCode = se.StatusCode
	}
	return apiErr
}

// ToStandardError maps a client error onto the job error taxonomy.
func ToStandardError(err error) *apperrors.StandardError {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return apperrors.NewMetadataRequestFailedError("unknown", err)
	}
	switch {
	case apiErr.Timeout():
		return apperrors.NewMetadataTimeoutError(apiErr.Endpoint, err)
	case apiErr.RateLimited():
		return apperrors.NewMetadataRateLimitedError(apiErr.Endpoint, err)
	default:
		return apperrors.NewMetadataRequestFailedError(apiErr.Endpoint, err)
	}
}
