package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSearcher struct {
	textResults     []string
	textErr         error
	fullTextResults []string
	fullTextErr     error
	vectorResults   []string
	vectorErr       error
	fuzzyResults    []string
	fuzzyErr        error

	textCalls     int
	fullTextCalls int
	vectorCalls   int
	fuzzyCalls    int
}

func (f *fakeSearcher) ByTextContains(ctx context.Context, terms []string, k int) ([]string, error) {
	f.textCalls++
	return f.textResults, f.textErr
}

func (f *fakeSearcher) ByFullText(ctx context.Context, query string, k int) ([]string, error) {
	f.fullTextCalls++
	return f.fullTextResults, f.fullTextErr
}

func (f *fakeSearcher) ByVector(ctx context.Context, embedding []float32, k int) ([]string, error) {
	f.vectorCalls++
	return f.vectorResults, f.vectorErr
}

func (f *fakeSearcher) ByFuzzy(ctx context.Context, terms []string, k int) ([]string, error) {
	f.fuzzyCalls++
	return f.fuzzyResults, f.fuzzyErr
}

type fakeEmbedder struct {
	embedding []float32
	err       error
	calls     int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.embedding, f.err
}

func TestRetrieve_FirstTierWins(t *testing.T) {
	searcher := &fakeSearcher{
		textResults:     []string{"MMBM is bullish order flow"},
		fullTextResults: []string{"should not be reached"},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1}}
	r := NewRetriever(searcher, embedder, 5)

	results := r.Retrieve(context.Background(), "What is MMBM?")

	assert.Equal(t, []string{"MMBM is bullish order flow"}, results)
	assert.Equal(t, 1, searcher.textCalls)
	assert.Zero(t, searcher.fullTextCalls)
	assert.Zero(t, searcher.vectorCalls)
	assert.Zero(t, searcher.fuzzyCalls)
	assert.Zero(t, embedder.calls)
}

func TestRetrieve_FallsThroughToFullText(t *testing.T) {
	searcher := &fakeSearcher{
		fullTextResults: []string{"indexed match"},
	}
	r := NewRetriever(searcher, &fakeEmbedder{}, 5)

	results := r.Retrieve(context.Background(), "liquidity sweep")

	assert.Equal(t, []string{"indexed match"}, results)
	assert.Equal(t, 1, searcher.textCalls)
	assert.Equal(t, 1, searcher.fullTextCalls)
	assert.Zero(t, searcher.vectorCalls)
}

func TestRetrieve_VectorTierAfterTextTiers(t *testing.T) {
	searcher := &fakeSearcher{
		vectorResults: []string{"nearest neighbor"},
	}
	embedder := &fakeEmbedder{embedding: []float32{0.1, 0.2}}
	r := NewRetriever(searcher, embedder, 5)

	results := r.Retrieve(context.Background(), "liquidity sweep")

	assert.Equal(t, []string{"nearest neighbor"}, results)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, searcher.vectorCalls)
	assert.Zero(t, searcher.fuzzyCalls)
}

func TestRetrieve_EmbeddingFailureSkipsVectorTier(t *testing.T) {
	searcher := &fakeSearcher{
		fuzzyResults: []string{"fuzzy match"},
	}
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	r := NewRetriever(searcher, embedder, 5)

	results := r.Retrieve(context.Background(), "liquidity sweep")

	assert.Equal(t, []string{"fuzzy match"}, results)
	assert.Equal(t, 1, embedder.calls)
	assert.Zero(t, searcher.vectorCalls)
	assert.Equal(t, 1, searcher.fuzzyCalls)
}

func TestRetrieve_TierErrorTreatedAsEmpty(t *testing.T) {
	searcher := &fakeSearcher{
		textErr:         errors.New("connection reset"),
		fullTextErr:     errors.New("no text index"),
		fullTextResults: nil,
		fuzzyResults:    []string{"still found"},
	}
	embedder := &fakeEmbedder{err: errors.New("unavailable")}
	r := NewRetriever(searcher, embedder, 5)

	results := r.Retrieve(context.Background(), "anything")

	assert.Equal(t, []string{"still found"}, results)
}

func TestRetrieve_AllTiersEmptyReturnsEmpty(t *testing.T) {
	searcher := &fakeSearcher{}
	embedder := &fakeEmbedder{embedding: []float32{0.1}}
	r := NewRetriever(searcher, embedder, 5)

	results := r.Retrieve(context.Background(), "anything")

	assert.Empty(t, results)
	assert.Equal(t, 1, searcher.textCalls)
	assert.Equal(t, 1, searcher.fullTextCalls)
	assert.Equal(t, 1, searcher.vectorCalls)
	assert.Equal(t, 1, searcher.fuzzyCalls)
}

func TestRetrieve_CapsResultsAtTopK(t *testing.T) {
	searcher := &fakeSearcher{
		textResults: []string{"a", "b", "c", "d", "e"},
	}
	r := NewRetriever(searcher, &fakeEmbedder{}, 3)

	results := r.Retrieve(context.Background(), "trading")

	assert.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, results)
}

func TestRetrieve_BlankQueryReturnsEmpty(t *testing.T) {
	searcher := &fakeSearcher{}
	r := NewRetriever(searcher, &fakeEmbedder{}, 5)

	results := r.Retrieve(context.Background(), "   ")

	assert.Empty(t, results)
	assert.Zero(t, searcher.textCalls)
}
