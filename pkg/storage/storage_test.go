package storage_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestNew(t *testing.T) {
	t.Run("connection string", func(t *testing.T) {
		cfg := &storage.Config{ContainerName: "exchanges", ConnectionString: azuriteConnString}
		sys, err := storage.New(cfg, slog.Default())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if sys == nil {
			t.Fatal("New() returned nil system")
		}
	})

	t.Run("invalid connection string", func(t *testing.T) {
		cfg := &storage.Config{ContainerName: "exchanges", ConnectionString: "not-a-connection-string"}
		if _, err := storage.New(cfg, slog.Default()); err == nil {
			t.Fatal("expected error for invalid connection string, got nil")
		}
	})

	t.Run("unconfigured discards", func(t *testing.T) {
		sys, err := storage.New(&storage.Config{ContainerName: "exchanges"}, slog.Default())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := sys.PutJSON(context.Background(), "batches/x.json", map[string]string{"a": "b"}); err != nil {
			t.Errorf("PutJSON error = %v", err)
		}
		if _, err := sys.Download(context.Background(), "batches/x.json"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Download error = %v, want ErrNotFound", err)
		}
	})
}

func TestDiscardValidatesKeys(t *testing.T) {
	sys := storage.Discard()
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"empty", "", storage.ErrEmptyKey},
		{"traversal", "../secrets.json", storage.ErrInvalidKey},
		{"valid", "exchanges/batch/classify.json", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.Upload(ctx, tt.key, strings.NewReader("{}"), "application/json")
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload(%q) error = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults and disabled", func(t *testing.T) {
		cfg := storage.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.ContainerName != "exchanges" {
			t.Errorf("ContainerName = %q, want exchanges", cfg.ContainerName)
		}
		if cfg.Enabled() {
			t.Error("Enabled() = true, want false")
		}
	})

	t.Run("env enables account url", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_ACCOUNT_URL", "https://acct.blob.core.windows.net/")
		cfg := storage.Config{}
		if err := cfg.Finalize(&storage.Env{AccountURL: "TEST_STORAGE_ACCOUNT_URL"}); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if !cfg.Enabled() {
			t.Error("Enabled() = false, want true")
		}
	})

	t.Run("both credentials rejected", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: azuriteConnString, AccountURL: "https://acct"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error when both credentials are set")
		}
	})
}
