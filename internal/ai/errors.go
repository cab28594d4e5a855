package ai

import (
	"errors"
	"net/http"

	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
)

// ErrUnavailable means the provider has no credentials configured. It is
// permanent: retrying without a config change cannot succeed.
var ErrUnavailable = errors.New("ai provider not configured")

// transientStatus reports whether an upstream HTTP status is worth a
// retry. Rate limits and server-side failures are; other 4xx are not.
// Failed round trips (network errors, timeouts, cancellation) are always
// treated as transient by the providers.
func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func embedErr(transient bool, err error) error {
	return appErr.NewVectorizationError(transient, err)
}

func genErr(transient bool, err error) error {
	return appErr.NewGenerationError(transient, err)
}
