package ports

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrLockHeld is returned by GenerationLock.Acquire when another run holds the key.
var ErrLockHeld = errors.New("generation lock is held by another run")

// Port: mutual exclusion for generation runs of the same day.
type GenerationLock interface {
	// Acquire takes the lock for key without blocking. The returned release
	// func must be called once the run is finished.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}
