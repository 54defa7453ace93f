// Package vector searches an embedded documentation corpus stored in Milvus.
package vector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/JaimeStill/scribe/pkg/cache"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
	"github.com/JaimeStill/scribe/pkg/llm"
)

// Output fields stored alongside each embedding.
const (
	FieldDocID    = "doc_id"
	FieldFilePath = "file_path"
	FieldTitle    = "title"
	FieldContent  = "content"
)

// Result is a single search hit. Similarity is normalized so that larger is closer.
type Result struct {
	ID         string  `json:"id"`
	FilePath   string  `json:"filePath"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Searcher finds documents semantically close to a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Result, error)
}

// System is a Searcher bound to the process lifecycle.
type System interface {
	Searcher
	Start(lc *lifecycle.Coordinator) error
}

type milvus struct {
	cfg      *Config
	client   client.Client
	embedder llm.Embedder
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// New dials Milvus at cfg.Address. Query embeddings are computed by embedder
// and memoized in c when it is non-nil.
func New(ctx context.Context, cfg *Config, embedder llm.Embedder, c cache.Cache, logger *slog.Logger) (System, error) {
	mc, err := client.NewGrpcClient(ctx, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	ttl, _ := time.ParseDuration(cfg.EmbeddingCache)

	return &milvus{
		cfg:      cfg,
		client:   mc,
		embedder: embedder,
		cache:    c,
		cacheTTL: ttl,
		logger:   logger.With("system", "vector"),
	}, nil
}

func (m *milvus) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := m.client.LoadCollection(lc.Context(), m.cfg.Collection, false); err != nil {
			m.logger.Error("load collection failed", "collection", m.cfg.Collection, "error", err)
			return
		}
		m.logger.Info("collection loaded", "collection", m.cfg.Collection)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := m.client.Close(); err != nil {
			m.logger.Error("milvus close failed", "error", err)
		}
	})

	return nil
}

func (m *milvus) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK < 1 {
		return nil, nil
	}

	embedding, err := m.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(m.cfg.NProbe)
	if err != nil {
		return nil, fmt.Errorf("search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.cfg.Collection,
		[]string{},
		"",
		[]string{FieldDocID, FieldFilePath, FieldTitle, FieldContent},
		[]entity.Vector{entity.FloatVector(embedding)},
		m.cfg.VectorField,
		entity.MetricType(m.cfg.Metric),
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", m.cfg.Collection, err)
	}

	hits := make([]Result, 0, topK)
	for _, sr := range results {
		for i := 0; i < sr.ResultCount; i++ {
			hits = append(hits, Result{
				ID:         columnString(sr.Fields, FieldDocID, i),
				FilePath:   columnString(sr.Fields, FieldFilePath, i),
				Title:      columnString(sr.Fields, FieldTitle, i),
				Content:    columnString(sr.Fields, FieldContent, i),
				Similarity: Similarity(m.cfg.Metric, sr.Scores[i]),
			})
		}
	}

	m.logger.DebugContext(ctx, "vector search complete", "hits", len(hits), "top_k", topK)
	return hits, nil
}

func (m *milvus) embed(ctx context.Context, query string) ([]float32, error) {
	if m.cache == nil {
		return m.embedder.Embed(ctx, query)
	}

	key := embeddingKey(query)
	if v, ok, err := cache.GetJSON[[]float32](ctx, m.cache, key); err == nil && ok {
		return v, nil
	}

	v, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, m.cache, key, v, m.cacheTTL); err != nil {
		m.logger.WarnContext(ctx, "embedding cache write failed", "error", err)
	}
	return v, nil
}

// Similarity maps a raw Milvus score to a closeness value where larger is better.
// L2 distances are converted with 1/(1+d); COSINE and IP scores are returned as-is.
func Similarity(metric string, score float32) float64 {
	if metric == "L2" {
		return 1 / (1 + float64(score))
	}
	return float64(score)
}

func embeddingKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func columnString(fields client.ResultSet, name string, i int) string {
	col := fields.GetColumn(name)
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
