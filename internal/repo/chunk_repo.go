package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/ferrostar/askbase/internal/model"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert persists one chunk with its embedding. Each insert commits on its
// own so the chunk is visible to retrieval immediately.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *model.Chunk) error {
	const query = `
		INSERT INTO chunks (source_id, bot_id, content, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		chunk.SourceID,
		chunk.BotID,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		chunk.Ctime,
	)
	return err
}

// MatchByBot is the index-side ranked search: cosine similarity computed by
// pgvector, thresholded and capped in SQL, best matches first.
func (r *ChunkRepo) MatchByBot(ctx context.Context, botID string, query []float32, threshold float64, limit int) ([]model.ChunkMatch, error) {
	const matchQuery = `
		SELECT id, content, 1 - (embedding <=> $1) AS similarity
		FROM chunks
		WHERE bot_id = $2 AND 1 - (embedding <=> $1) >= $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, matchQuery, pgvector.NewVector(query), botID, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []model.ChunkMatch
	for rows.Next() {
		var match model.ChunkMatch
		if err := rows.Scan(&match.ID, &match.Content, &match.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// ListByBot reads up to limit raw chunk rows (content + embedding) for the
// fallback ranking path, in storage order.
func (r *ChunkRepo) ListByBot(ctx context.Context, botID string, limit int) ([]model.Chunk, error) {
	const query = `
		SELECT id, source_id, bot_id, content, embedding, ctime
		FROM chunks
		WHERE bot_id = $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, botID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []model.Chunk
	for rows.Next() {
		var chunk model.Chunk
		var embedding pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.SourceID, &chunk.BotID, &chunk.Content, &embedding, &chunk.Ctime); err != nil {
			return nil, err
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) CountBySource(ctx context.Context, sourceID string) (int, error) {
	const query = `SELECT COUNT(*) FROM chunks WHERE source_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, sourceID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteBySource removes every chunk of a source, scoped to the owning bot.
func (r *ChunkRepo) DeleteBySource(ctx context.Context, botID, sourceID string) (int64, error) {
	const query = `DELETE FROM chunks WHERE bot_id = $1 AND source_id = $2`
	result, err := r.db.ExecContext(ctx, query, botID, sourceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
