// Package events publishes pipeline notifications to NATS subjects.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

// Config holds the NATS connection. An empty URL disables publishing.
type Config struct {
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL           string
	SubjectPrefix string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *Env) error {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "scribe"
	}
	if env != nil {
		if env.URL != "" {
			if v := os.Getenv(env.URL); v != "" {
				c.URL = v
			}
		}
		if env.SubjectPrefix != "" {
			if v := os.Getenv(env.SubjectPrefix); v != "" {
				c.SubjectPrefix = v
			}
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.SubjectPrefix != "" {
		c.SubjectPrefix = overlay.SubjectPrefix
	}
}

// Publisher emits JSON-encoded events. Publishing is best effort; callers log failures.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// System is a Publisher bound to the process lifecycle.
type System interface {
	Publisher
	Start(lc *lifecycle.Coordinator) error
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// New connects to NATS when cfg.URL is set and returns a no-op System otherwise.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "events")

	if cfg.URL == "" {
		logger.Info("event publishing disabled")
		return Discard(), nil
	}

	conn, err := nats.Connect(
		cfg.URL,
		nats.Name("scribe"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &natsPublisher{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

func (n *natsPublisher) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := n.conn.Drain(); err != nil {
			n.logger.Error("nats drain failed", "error", err)
		}
	})
	return nil
}

func (n *natsPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	full := n.prefix + "." + subject
	if err := n.conn.Publish(full, data); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}

	n.logger.DebugContext(ctx, "event published", "subject", full, "bytes", len(data))
	return nil
}

type discard struct{}

// Discard returns a System that drops every event.
func Discard() System {
	return discard{}
}

func (discard) Start(*lifecycle.Coordinator) error { return nil }
func (discard) Publish(context.Context, string, any) error { return nil }
