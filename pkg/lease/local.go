package lease

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type local struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// NewLocal returns a Locker scoped to the current process.
func NewLocal() Locker {
	return &local{sems: make(map[string]*semaphore.Weighted)}
}

func (l *local) TryAcquire(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	sem, ok := l.sems[name]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[name] = sem
	}
	l.mu.Unlock()

	if !sem.TryAcquire(1) {
		return nil, ErrHeld
	}

	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}
