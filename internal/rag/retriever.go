package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/model"
)

// ScoredChunk is one retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Content    string
	Similarity float64
}

// SearchStrategy is one way of producing ranked chunks for a query vector.
// Implementations must only return chunks with similarity >= threshold,
// ordered by descending similarity, at most limit rows.
type SearchStrategy interface {
	Name() string
	Search(ctx context.Context, botID string, query []float32, threshold float64, limit int) ([]ScoredChunk, error)
}

// Retriever runs the index-side search first and falls back to the exhaustive
// client-side ranking when the index path errors or finds nothing. The index
// path is preferred for latency but must never be a hard dependency: new
// chunks may not be indexed yet and the vector extension may be absent.
type Retriever struct {
	primary   SearchStrategy
	fallback  SearchStrategy
	threshold float64
	topK      int
}

func NewRetriever(primary, fallback SearchStrategy, threshold float64, topK int) *Retriever {
	return &Retriever{
		primary:   primary,
		fallback:  fallback,
		threshold: threshold,
		topK:      topK,
	}
}

// Retrieve returns the texts of the top-K chunks above the similarity
// threshold for the given bot. An empty result with nil error means nothing
// relevant exists; an error means both paths failed.
func (r *Retriever) Retrieve(ctx context.Context, botID string, query []float32) ([]string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("bot_id", botID))
	if r.primary != nil {
		res, err := r.primary.Search(ctx, botID, query, r.threshold, r.topK)
		if err != nil {
			logger.Warn("primary search failed, falling back",
				zap.String("strategy", r.primary.Name()), zap.Error(err))
		} else if len(res) > 0 {
			logger.Debug("primary search hit",
				zap.String("strategy", r.primary.Name()), zap.Int("chunks", len(res)))
			return contents(res), nil
		} else {
			logger.Debug("primary search returned no rows, falling back",
				zap.String("strategy", r.primary.Name()))
		}
	}
	if r.fallback == nil {
		return nil, nil
	}
	res, err := r.fallback.Search(ctx, botID, query, r.threshold, r.topK)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}
	logger.Debug("fallback search done",
		zap.String("strategy", r.fallback.Name()), zap.Int("chunks", len(res)))
	return contents(res), nil
}

func contents(res []ScoredChunk) []string {
	out := make([]string, 0, len(res))
	for _, chunk := range res {
		out = append(out, chunk.Content)
	}
	return out
}

// ChunkMatcher is the index-side ranked-search capability.
type ChunkMatcher interface {
	MatchByBot(ctx context.Context, botID string, query []float32, threshold float64, limit int) ([]model.ChunkMatch, error)
}

type indexSearch struct {
	matcher ChunkMatcher
}

func NewIndexSearch(matcher ChunkMatcher) SearchStrategy {
	return &indexSearch{matcher: matcher}
}

func (s *indexSearch) Name() string {
	return "index"
}

func (s *indexSearch) Search(ctx context.Context, botID string, query []float32, threshold float64, limit int) ([]ScoredChunk, error) {
	rows, err := s.matcher.MatchByBot(ctx, botID, query, threshold, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredChunk, 0, len(rows))
	for _, row := range rows {
		out = append(out, ScoredChunk{Content: row.Content, Similarity: row.Similarity})
	}
	return out, nil
}

// ChunkScanner reads raw chunk rows (content + embedding) scoped to a bot.
type ChunkScanner interface {
	ListByBot(ctx context.Context, botID string, limit int) ([]model.Chunk, error)
}

type scanSearch struct {
	scanner ChunkScanner
	scanCap int
}

// NewScanSearch builds the client-side ranking fallback. scanCap bounds the
// number of rows read, keeping the exhaustive path O(scanCap) regardless of
// how many chunks a bot has.
func NewScanSearch(scanner ChunkScanner, scanCap int) SearchStrategy {
	return &scanSearch{scanner: scanner, scanCap: scanCap}
}

func (s *scanSearch) Name() string {
	return "scan"
}

func (s *scanSearch) Search(ctx context.Context, botID string, query []float32, threshold float64, limit int) ([]ScoredChunk, error) {
	rows, err := s.scanner.ListByBot(ctx, botID, s.scanCap)
	if err != nil {
		return nil, err
	}
	ranked := make([]ScoredChunk, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, ScoredChunk{
			Content:    row.Content,
			Similarity: CosineSimilarity(query, row.Embedding),
		})
	}
	// Stable sort keeps storage order for equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	out := make([]ScoredChunk, 0, limit)
	for _, chunk := range ranked {
		if chunk.Similarity < threshold {
			break
		}
		out = append(out, chunk)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CosineSimilarity returns the normalized dot product of a and b, in [-1, 1].
// Vectors of different lengths are compared over their common prefix; a zero
// denominator is treated as 1 to avoid division by zero.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		denom = 1
	}
	return dot / denom
}
