package vector_test

import (
	"testing"

	"github.com/JaimeStill/scribe/pkg/vector"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		metric string
		score  float32
		want   float64
	}{
		{"COSINE", 0.75, 0.75},
		{"IP", 0.5, 0.5},
		{"L2", 0, 1},
		{"L2", 1, 0.5},
	}

	for _, tt := range tests {
		got := vector.Similarity(tt.metric, tt.score)
		if got != tt.want {
			t.Errorf("Similarity(%s, %v) = %v, want %v", tt.metric, tt.score, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg vector.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Metric != "COSINE" || cfg.NProbe != 16 || cfg.VectorField != "embedding" {
			t.Errorf("cfg = %+v, want COSINE/16/embedding defaults", cfg)
		}
	})

	t.Run("metric is normalized", func(t *testing.T) {
		cfg := vector.Config{Metric: "l2"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Metric != "L2" {
			t.Errorf("Metric = %q, want L2", cfg.Metric)
		}
	})

	t.Run("unknown metric rejected", func(t *testing.T) {
		cfg := vector.Config{Metric: "HAMMING"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error for HAMMING metric")
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("TEST_VECTOR_COLLECTION", "docs_v2")
		cfg := vector.Config{}
		if err := cfg.Finalize(&vector.Env{Collection: "TEST_VECTOR_COLLECTION"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Collection != "docs_v2" {
			t.Errorf("Collection = %q, want docs_v2", cfg.Collection)
		}
	})
}
