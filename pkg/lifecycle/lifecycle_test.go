package lifecycle_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

func TestCoordinatorReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New()

	var ran atomic.Bool
	lc.OnStartup(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	})

	if lc.Ready() {
		t.Fatal("Ready() = true before WaitForStartup")
	}

	lc.WaitForStartup()

	if !ran.Load() {
		t.Error("startup hook did not run")
	}
	if !lc.Ready() {
		t.Error("Ready() = false after WaitForStartup")
	}
}

func TestCoordinatorShutdown(t *testing.T) {
	t.Run("hooks observe cancellation", func(t *testing.T) {
		lc := lifecycle.New()

		var closed atomic.Bool
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			closed.Store(true)
		})

		if err := lc.Shutdown(time.Second); err != nil {
			t.Fatalf("Shutdown error: %v", err)
		}
		if !closed.Load() {
			t.Error("shutdown hook did not complete")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		lc := lifecycle.New()
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			time.Sleep(200 * time.Millisecond)
		})

		if err := lc.Shutdown(10 * time.Millisecond); err == nil {
			t.Error("Shutdown error = nil, want timeout")
		}
	})
}

func TestCoordinatorEvery(t *testing.T) {
	lc := lifecycle.New()

	var calls atomic.Int32
	lc.Every(5*time.Millisecond, func(ctx context.Context) {
		calls.Add(1)
	})

	lc.WaitForStartup()
	time.Sleep(40 * time.Millisecond)

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	if calls.Load() == 0 {
		t.Error("Every hook never invoked")
	}

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Error("Every hook invoked after shutdown")
	}
}
