package lease_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/scribe/pkg/lease"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := lease.NewLocal()

	release, err := l.TryAcquire(ctx, "ingest")
	if err != nil {
		t.Fatalf("first TryAcquire error: %v", err)
	}

	if _, err := l.TryAcquire(ctx, "ingest"); !errors.Is(err, lease.ErrHeld) {
		t.Errorf("second TryAcquire error = %v, want ErrHeld", err)
	}

	other, err := l.TryAcquire(ctx, "other")
	if err != nil {
		t.Errorf("independent name TryAcquire error: %v", err)
	} else {
		other()
	}

	release()
	release()

	again, err := l.TryAcquire(ctx, "ingest")
	if err != nil {
		t.Fatalf("TryAcquire after release error: %v", err)
	}
	again()
}
