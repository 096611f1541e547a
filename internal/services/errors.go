package services

import "github.com/cockroachdb/errors"

// Business-rule failures. They abort a run before anything is written.
var (
	ErrNoDrivers      = errors.New("no drivers available")
	ErrNoLocations    = errors.New("no locations loaded from source")
	ErrNoDueLocations = errors.New("no locations due for collection today")
)

// ErrGenerationInProgress means another run for the same day holds the lock.
var ErrGenerationInProgress = errors.New("route generation already running for today")

// IsBusinessError reports whether err is one of the precondition failures.
func IsBusinessError(err error) bool {
	return errors.IsAny(err, ErrNoDrivers, ErrNoLocations, ErrNoDueLocations)
}
