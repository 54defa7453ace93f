package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// minLeaseTTL keeps the lease renewal interval (ttl/3) positive.
const minLeaseTTL = time.Second

// Config tunes batching, retrieval and generation. SchemaAttempts is not read
// from the file; the composition root copies it from the llm settings.
type Config struct {
	WindowHours       int     `toml:"window_hours"`
	MaxBatchSize      int     `toml:"max_batch_size"`
	ContextMessages   int     `toml:"context_messages"`
	TopK              int     `toml:"top_k"`
	MaxProposals      int     `toml:"max_proposals"`
	Concurrency       int     `toml:"concurrency"`
	SimilarityFloor   float64 `toml:"similarity_floor"`
	OverlapThreshold  float64 `toml:"overlap_threshold"`
	DocCharBudget     int     `toml:"doc_char_budget"`
	MessageCharLimit  int     `toml:"message_char_limit"`
	ClassifyMaxTokens int     `toml:"classify_max_tokens"`
	ProposeMaxTokens  int     `toml:"propose_max_tokens"`
	SchemaAttempts    int     `toml:"-"`
	BaseLocale        string  `toml:"base_locale"`
	Schedule          string  `toml:"schedule"`
	LeaseTTL          string  `toml:"lease_ttl"`
	RulesetCacheTTL   string  `toml:"ruleset_cache_ttl"`
	ArchiveExchanges  bool    `toml:"archive_exchanges"`
}

// Env maps pipeline settings to environment variable names.
type Env struct {
	WindowHours  string
	MaxBatchSize string
	Concurrency  string
	Schedule     string
}

// Window returns the batch window duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

// ScheduleInterval returns the serve-mode run interval. Zero disables scheduling.
func (c *Config) ScheduleInterval() time.Duration {
	d, _ := time.ParseDuration(c.Schedule)
	return d
}

// LeaseDuration returns the job lease TTL.
func (c *Config) LeaseDuration() time.Duration {
	d, _ := time.ParseDuration(c.LeaseTTL)
	return d
}

// RulesetTTL returns how long compiled rulesets stay cached.
func (c *Config) RulesetTTL() time.Duration {
	d, _ := time.ParseDuration(c.RulesetCacheTTL)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.WindowHours != 0 {
		c.WindowHours = overlay.WindowHours
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
	if overlay.ContextMessages != 0 {
		c.ContextMessages = overlay.ContextMessages
	}
	if overlay.TopK != 0 {
		c.TopK = overlay.TopK
	}
	if overlay.MaxProposals != 0 {
		c.MaxProposals = overlay.MaxProposals
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.SimilarityFloor != 0 {
		c.SimilarityFloor = overlay.SimilarityFloor
	}
	if overlay.OverlapThreshold != 0 {
		c.OverlapThreshold = overlay.OverlapThreshold
	}
	if overlay.DocCharBudget != 0 {
		c.DocCharBudget = overlay.DocCharBudget
	}
	if overlay.MessageCharLimit != 0 {
		c.MessageCharLimit = overlay.MessageCharLimit
	}
	if overlay.ClassifyMaxTokens != 0 {
		c.ClassifyMaxTokens = overlay.ClassifyMaxTokens
	}
	if overlay.ProposeMaxTokens != 0 {
		c.ProposeMaxTokens = overlay.ProposeMaxTokens
	}
	if overlay.BaseLocale != "" {
		c.BaseLocale = overlay.BaseLocale
	}
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
	if overlay.LeaseTTL != "" {
		c.LeaseTTL = overlay.LeaseTTL
	}
	if overlay.RulesetCacheTTL != "" {
		c.RulesetCacheTTL = overlay.RulesetCacheTTL
	}
	if overlay.ArchiveExchanges {
		c.ArchiveExchanges = true
	}
}

func (c *Config) loadDefaults() {
	if c.WindowHours <= 0 {
		c.WindowHours = 24
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 100
	}
	if c.ContextMessages < 0 {
		c.ContextMessages = 0
	} else if c.ContextMessages == 0 {
		c.ContextMessages = 20
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.MaxProposals <= 0 {
		c.MaxProposals = 5
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.SimilarityFloor == 0 {
		c.SimilarityFloor = 0.5
	}
	if c.OverlapThreshold == 0 {
		c.OverlapThreshold = 80
	}
	if c.DocCharBudget <= 0 {
		c.DocCharBudget = 8000
	}
	if c.MessageCharLimit <= 0 {
		c.MessageCharLimit = 2000
	}
	if c.ClassifyMaxTokens <= 0 {
		c.ClassifyMaxTokens = 4096
	}
	if c.ProposeMaxTokens <= 0 {
		c.ProposeMaxTokens = 4096
	}
	if c.SchemaAttempts <= 0 {
		c.SchemaAttempts = 2
	}
	if c.BaseLocale == "" {
		c.BaseLocale = "en"
	}
	if c.Schedule == "" {
		c.Schedule = "15m"
	}
	if c.LeaseTTL == "" {
		c.LeaseTTL = "30m"
	}
	if c.RulesetCacheTTL == "" {
		c.RulesetCacheTTL = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if n, ok := envInt(env.WindowHours); ok {
		c.WindowHours = n
	}
	if n, ok := envInt(env.MaxBatchSize); ok {
		c.MaxBatchSize = n
	}
	if n, ok := envInt(env.Concurrency); ok {
		c.Concurrency = n
	}
	if env.Schedule != "" {
		if v := os.Getenv(env.Schedule); v != "" {
			c.Schedule = v
		}
	}
}

func (c *Config) validate() error {
	if c.WindowHours <= 0 {
		return fmt.Errorf("window_hours must be positive")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.SimilarityFloor < 0 || c.SimilarityFloor > 1 {
		return fmt.Errorf("similarity_floor must be between 0 and 1: %v", c.SimilarityFloor)
	}
	if c.OverlapThreshold < 0 || c.OverlapThreshold > 100 {
		return fmt.Errorf("overlap_threshold must be a percentage: %v", c.OverlapThreshold)
	}
	for name, v := range map[string]string{
		"schedule":          c.Schedule,
		"lease_ttl":         c.LeaseTTL,
		"ruleset_cache_ttl": c.RulesetCacheTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.LeaseDuration() < minLeaseTTL {
		return fmt.Errorf("lease_ttl must be at least %s: %s", minLeaseTTL, c.LeaseTTL)
	}
	return nil
}

func envInt(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
