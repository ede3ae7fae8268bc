package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferrostar/askbase/internal/model"
)

type fakeStrategy struct {
	name   string
	result []ScoredChunk
	err    error
	calls  int
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Search(ctx context.Context, botID string, query []float32, threshold float64, limit int) ([]ScoredChunk, error) {
	s.calls++
	return s.result, s.err
}

func TestRetrieverPrimaryHitSkipsFallback(t *testing.T) {
	primary := &fakeStrategy{name: "index", result: []ScoredChunk{{Content: "hit", Similarity: 0.9}}}
	fallback := &fakeStrategy{name: "scan"}
	retriever := NewRetriever(primary, fallback, 0.7, 8)

	chunks, err := retriever.Retrieve(context.Background(), "bot-1", []float32{1})
	require.NoError(t, err)
	require.Equal(t, []string{"hit"}, chunks)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 0, fallback.calls)
}

func TestRetrieverPrimaryErrorFallsBackOnce(t *testing.T) {
	primary := &fakeStrategy{name: "index", err: errors.New("index down")}
	fallback := &fakeStrategy{name: "scan", result: []ScoredChunk{{Content: "rescued", Similarity: 0.8}}}
	retriever := NewRetriever(primary, fallback, 0.7, 8)

	chunks, err := retriever.Retrieve(context.Background(), "bot-1", []float32{1})
	require.NoError(t, err)
	require.Equal(t, []string{"rescued"}, chunks)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestRetrieverPrimaryEmptyFallsBack(t *testing.T) {
	primary := &fakeStrategy{name: "index"}
	fallback := &fakeStrategy{name: "scan", result: []ScoredChunk{{Content: "found", Similarity: 0.75}}}
	retriever := NewRetriever(primary, fallback, 0.7, 8)

	chunks, err := retriever.Retrieve(context.Background(), "bot-1", []float32{1})
	require.NoError(t, err)
	require.Equal(t, []string{"found"}, chunks)
	require.Equal(t, 1, fallback.calls)
}

func TestRetrieverBothEmpty(t *testing.T) {
	retriever := NewRetriever(&fakeStrategy{name: "index"}, &fakeStrategy{name: "scan"}, 0.7, 8)
	chunks, err := retriever.Retrieve(context.Background(), "bot-1", []float32{1})
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestRetrieverBothFailing(t *testing.T) {
	primary := &fakeStrategy{name: "index", err: errors.New("down")}
	fallback := &fakeStrategy{name: "scan", err: errors.New("also down")}
	retriever := NewRetriever(primary, fallback, 0.7, 8)

	_, err := retriever.Retrieve(context.Background(), "bot-1", []float32{1})
	require.Error(t, err)
}

type fakeScanner struct {
	chunks []model.Chunk
}

func (s *fakeScanner) ListByBot(ctx context.Context, botID string, limit int) ([]model.Chunk, error) {
	if limit < len(s.chunks) {
		return s.chunks[:limit], nil
	}
	return s.chunks, nil
}

func scanChunks() []model.Chunk {
	return []model.Chunk{
		{ID: 1, Content: "orthogonal", Embedding: []float32{0, 1}},
		{ID: 2, Content: "aligned", Embedding: []float32{1, 0}},
		{ID: 3, Content: "close", Embedding: []float32{0.9, 0.1}},
		{ID: 4, Content: "opposite", Embedding: []float32{-1, 0}},
	}
}

func TestScanSearchRanksAndFilters(t *testing.T) {
	search := NewScanSearch(&fakeScanner{chunks: scanChunks()}, 200)
	query := []float32{1, 0}

	res, err := search.Search(context.Background(), "bot-1", query, 0.7, 8)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "aligned", res[0].Content)
	require.Equal(t, "close", res[1].Content)
	for _, chunk := range res {
		require.GreaterOrEqual(t, chunk.Similarity, 0.7)
		require.LessOrEqual(t, chunk.Similarity, 1.0)
	}
}

func TestScanSearchThresholdMonotonicity(t *testing.T) {
	search := NewScanSearch(&fakeScanner{chunks: scanChunks()}, 200)
	query := []float32{1, 0}

	strict, err := search.Search(context.Background(), "bot-1", query, 0.9, 8)
	require.NoError(t, err)
	loose, err := search.Search(context.Background(), "bot-1", query, 0.5, 8)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(loose), len(strict))
	for i, chunk := range strict {
		require.Equal(t, chunk.Content, loose[i].Content)
	}
}

func TestScanSearchLimitMonotonicity(t *testing.T) {
	search := NewScanSearch(&fakeScanner{chunks: scanChunks()}, 200)
	query := []float32{1, 0}

	one, err := search.Search(context.Background(), "bot-1", query, 0.5, 1)
	require.NoError(t, err)
	many, err := search.Search(context.Background(), "bot-1", query, 0.5, 8)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(many), len(one))
	require.Equal(t, one[0].Content, many[0].Content)
}

func TestScanSearchTieKeepsStorageOrder(t *testing.T) {
	chunks := []model.Chunk{
		{ID: 1, Content: "first", Embedding: []float32{1, 0}},
		{ID: 2, Content: "second", Embedding: []float32{1, 0}},
		{ID: 3, Content: "third", Embedding: []float32{1, 0}},
	}
	search := NewScanSearch(&fakeScanner{chunks: chunks}, 200)

	res, err := search.Search(context.Background(), "bot-1", []float32{1, 0}, 0.7, 8)
	require.NoError(t, err)
	require.Len(t, res, 3)
	require.Equal(t, "first", res[0].Content)
	require.Equal(t, "second", res[1].Content)
	require.Equal(t, "third", res[2].Content)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	require.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	require.Equal(t, 0.0, CosineSimilarity(nil, nil))
}
