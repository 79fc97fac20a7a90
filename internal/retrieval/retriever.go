package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/metrics"
	"github.com/quantified-ante/qabot/pkg/logger"
)

// DocSearcher is the typed query surface of the document store. Each
// method corresponds to one search tier; ordering policy lives here, not
// in the store.
type DocSearcher interface {
	ByTextContains(ctx context.Context, terms []string, k int) ([]string, error)
	ByFullText(ctx context.Context, query string, k int) ([]string, error)
	ByVector(ctx context.Context, embedding []float32, k int) ([]string, error)
	ByFuzzy(ctx context.Context, terms []string, k int) ([]string, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever runs the tiered document lookup: word-boundary text match,
// then full-text index, then vector similarity, then fuzzy containment.
// The first tier returning results wins outright; there is no cross-tier
// re-ranking.
type Retriever struct {
	docs     DocSearcher
	embedder Embedder
	topK     int
}

func NewRetriever(docs DocSearcher, embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		docs:     docs,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve returns up to topK relevant chunks for the query. Tier errors
// are logged and treated as zero results for that tier; an empty result
// is a valid outcome, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) []string {
	terms := DeriveTerms(query)
	if len(terms.All) == 0 {
		metrics.RetrievalTierHits.WithLabelValues("none").Inc()
		metrics.RetrievalResultsCount.Observe(0)
		return nil
	}

	logger.Debug("Derived search terms",
		zap.String("core", terms.Core),
		zap.Int("term_count", len(terms.All)),
	)

	if results := r.runTier(ctx, "text", func() ([]string, error) {
		return r.docs.ByTextContains(ctx, terms.All, r.topK)
	}); len(results) > 0 {
		return results
	}

	if results := r.runTier(ctx, "fulltext", func() ([]string, error) {
		return r.docs.ByFullText(ctx, query, r.topK)
	}); len(results) > 0 {
		return results
	}

	if results := r.vectorTier(ctx, terms.Core); len(results) > 0 {
		return results
	}

	if results := r.runTier(ctx, "fuzzy", func() ([]string, error) {
		return r.docs.ByFuzzy(ctx, terms.All, r.topK)
	}); len(results) > 0 {
		return results
	}

	metrics.RetrievalTierHits.WithLabelValues("none").Inc()
	metrics.RetrievalResultsCount.Observe(0)
	logger.Info("No results in any search tier", zap.String("query", truncate(query, 80)))
	return nil
}

func (r *Retriever) runTier(ctx context.Context, tier string, search func() ([]string, error)) []string {
	results, err := search()
	if err != nil {
		logger.Warn("Search tier failed",
			zap.String("tier", tier),
			zap.Error(err),
		)
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	if len(results) > r.topK {
		results = results[:r.topK]
	}
	metrics.RetrievalTierHits.WithLabelValues(tier).Inc()
	metrics.RetrievalResultsCount.Observe(float64(len(results)))
	logger.Debug("Search tier matched",
		zap.String("tier", tier),
		zap.Int("results", len(results)),
	)
	return results
}

// vectorTier embeds the core query and asks the store for nearest
// neighbors. An embedding failure skips the tier without retrying.
func (r *Retriever) vectorTier(ctx context.Context, coreQuery string) []string {
	embedding, err := r.embedder.GenerateEmbedding(ctx, coreQuery)
	if err != nil {
		logger.Warn("Embedding failed, skipping vector tier", zap.Error(err))
		return nil
	}

	return r.runTier(ctx, "vector", func() ([]string, error) {
		return r.docs.ByVector(ctx, embedding, r.topK)
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
