package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config selects the cache backend. An empty Address keeps everything in process memory.
type Config struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
	TTL      string `toml:"ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Address  string
	Password string
	DB       string
	Prefix   string
	TTL      string
}

// Remote reports whether a Redis server is configured.
func (c *Config) Remote() bool {
	return c.Address != ""
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.Prefix == "" {
		c.Prefix = "scribe"
	}
	if c.TTL == "" {
		c.TTL = "5m"
	}

	if env != nil {
		if v := getenv(env.Address); v != "" {
			c.Address = v
		}
		if v := getenv(env.Password); v != "" {
			c.Password = v
		}
		if v := getenv(env.DB); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.DB = n
			}
		}
		if v := getenv(env.Prefix); v != "" {
			c.Prefix = v
		}
		if v := getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}

	if c.DB < 0 {
		return fmt.Errorf("invalid db: %d", c.DB)
	}
	if _, err := time.ParseDuration(c.TTL); err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Address != "" {
		c.Address = overlay.Address
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.DB != 0 {
		c.DB = overlay.DB
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
}

func getenv(key string) string {
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}
