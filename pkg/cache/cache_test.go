package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/scribe/pkg/cache"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	t.Run("miss", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "absent")
		if err != nil || ok {
			t.Errorf("Get(absent) = (%v, %v), want miss", ok, err)
		}
	})

	t.Run("hit", func(t *testing.T) {
		if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		got, ok, err := c.Get(ctx, "k")
		if err != nil || !ok || string(got) != "v" {
			t.Errorf("Get(k) = (%q, %v, %v), want v", got, ok, err)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		if err := c.Set(ctx, "short", []byte("x"), time.Millisecond); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if _, ok, _ := c.Get(ctx, "short"); ok {
			t.Error("expired entry still returned")
		}
	})

	t.Run("delete", func(t *testing.T) {
		_ = c.Set(ctx, "gone", []byte("x"), 0)
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete error: %v", err)
		}
		if _, ok, _ := c.Get(ctx, "gone"); ok {
			t.Error("deleted entry still returned")
		}
	})
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	want := []float32{0.1, 0.2}
	if err := cache.SetJSON(ctx, c, "vec", want, 0); err != nil {
		t.Fatalf("SetJSON error: %v", err)
	}

	got, ok, err := cache.GetJSON[[]float32](ctx, c, "vec")
	if err != nil || !ok {
		t.Fatalf("GetJSON = (%v, %v)", ok, err)
	}
	if len(got) != 2 || got[1] != 0.2 {
		t.Errorf("GetJSON = %v, want %v", got, want)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_CACHE_ADDR", "redis:6379")

	cfg := cache.Config{}
	if err := cfg.Finalize(&cache.Env{Address: "TEST_CACHE_ADDR"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !cfg.Remote() {
		t.Error("Remote() = false, want true")
	}
	if cfg.Prefix != "scribe" || cfg.TTLDuration() != 5*time.Minute {
		t.Errorf("cfg = %+v, want scribe prefix and 5m ttl", cfg)
	}

	bad := cache.Config{TTL: "later"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error for invalid ttl")
	}
}
