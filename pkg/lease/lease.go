// Package lease provides named, non-blocking mutual exclusion for jobs that
// must not overlap, either within one process or across replicas.
package lease

import (
	"context"
	"errors"
)

// ErrHeld is returned by TryAcquire when another holder owns the lease.
var ErrHeld = errors.New("lease held by another owner")

// Locker hands out leases by name.
type Locker interface {
	// TryAcquire obtains the named lease without waiting. The returned release
	// function is idempotent. ErrHeld reports contention.
	TryAcquire(ctx context.Context, name string) (release func(), err error)
}
