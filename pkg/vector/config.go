package vector

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config identifies the Milvus collection holding documentation embeddings.
type Config struct {
	Address        string `toml:"address"`
	Collection     string `toml:"collection"`
	VectorField    string `toml:"vector_field"`
	Metric         string `toml:"metric"`
	NProbe         int    `toml:"nprobe"`
	EmbeddingCache string `toml:"embedding_cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Address    string
	Collection string
	Metric     string
	NProbe     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Address != "" {
		c.Address = overlay.Address
	}
	if overlay.Collection != "" {
		c.Collection = overlay.Collection
	}
	if overlay.VectorField != "" {
		c.VectorField = overlay.VectorField
	}
	if overlay.Metric != "" {
		c.Metric = overlay.Metric
	}
	if overlay.NProbe != 0 {
		c.NProbe = overlay.NProbe
	}
	if overlay.EmbeddingCache != "" {
		c.EmbeddingCache = overlay.EmbeddingCache
	}
}

func (c *Config) loadDefaults() {
	if c.Address == "" {
		c.Address = "localhost:19530"
	}
	if c.Collection == "" {
		c.Collection = "documentation"
	}
	if c.VectorField == "" {
		c.VectorField = "embedding"
	}
	if c.Metric == "" {
		c.Metric = "COSINE"
	}
	if c.NProbe == 0 {
		c.NProbe = 16
	}
	if c.EmbeddingCache == "" {
		c.EmbeddingCache = "24h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Address != "" {
		if v := os.Getenv(env.Address); v != "" {
			c.Address = v
		}
	}
	if env.Collection != "" {
		if v := os.Getenv(env.Collection); v != "" {
			c.Collection = v
		}
	}
	if env.Metric != "" {
		if v := os.Getenv(env.Metric); v != "" {
			c.Metric = v
		}
	}
	if env.NProbe != "" {
		if v := os.Getenv(env.NProbe); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.NProbe = n
			}
		}
	}
}

func (c *Config) validate() error {
	c.Metric = strings.ToUpper(c.Metric)
	switch c.Metric {
	case "COSINE", "IP", "L2":
	default:
		return fmt.Errorf("unsupported metric: %s", c.Metric)
	}
	if c.NProbe < 1 {
		return fmt.Errorf("invalid nprobe: %d", c.NProbe)
	}
	return nil
}
