package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/ai"
	"github.com/ferrostar/askbase/internal/extract"
	"github.com/ferrostar/askbase/internal/filestore"
	"github.com/ferrostar/askbase/internal/model"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
	"github.com/ferrostar/askbase/internal/rag"
	"github.com/ferrostar/askbase/internal/repo"
)

type IngestService struct {
	bots     *repo.BotRepo
	sources  *repo.SourceRepo
	chunks   *repo.ChunkRepo
	chunker  *rag.Chunker
	embedder ai.IEmbedder
	archive  filestore.Store
}

func NewIngestService(bots *repo.BotRepo, sources *repo.SourceRepo, chunks *repo.ChunkRepo, chunker *rag.Chunker, embedder ai.IEmbedder, archive filestore.Store) *IngestService {
	return &IngestService{bots: bots, sources: sources, chunks: chunks, chunker: chunker, embedder: embedder, archive: archive}
}

// Ingest processes one uploaded document: extract text, chunk it, embed and
// persist each chunk, then mark the source completed. A chunk whose embedding
// or insert fails is dropped and logged; the document is not aborted for it.
// A document with no extractable text is marked failed and reported as
// ErrEmptyDocument. Each stored chunk is visible to retrieval immediately.
func (s *IngestService) Ingest(ctx context.Context, botID, name, sourceType, body string) (*model.Source, int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("bot_id", botID), zap.String("source_name", name))

	if _, err := s.bots.GetByID(ctx, botID); err != nil {
		return nil, 0, err
	}
	if s.embedder == nil {
		return nil, 0, appErr.ErrNotConfigured
	}
	text, err := extract.Text(sourceType, body)
	if err != nil {
		return nil, 0, err
	}

	source := &model.Source{
		ID:     newID(),
		BotID:  botID,
		Name:   name,
		Type:   sourceType,
		Status: model.SourceStatusProcessing,
		Ctime:  time.Now().UnixMilli(),
	}
	if err := s.sources.Create(ctx, source); err != nil {
		return nil, 0, fmt.Errorf("create source: %w", err)
	}
	logger = logger.With(zap.String("source_id", source.ID))

	s.archiveBody(ctx, source, body)

	parts := s.chunker.Split(text)
	if len(parts) == 0 {
		if err := s.sources.UpdateStatus(ctx, botID, source.ID, model.SourceStatusFailed); err != nil {
			logger.Error("mark empty source failed", zap.Error(err))
		}
		source.Status = model.SourceStatusFailed
		return source, 0, appErr.ErrEmptyDocument
	}

	stored := 0
	for i, part := range parts {
		embedding, err := s.embedder.Embed(ctx, part, ai.TaskTypeDocument)
		if err != nil {
			logger.Error("embed chunk failed, dropping chunk",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		chunk := &model.Chunk{
			SourceID:  source.ID,
			BotID:     botID,
			Content:   part,
			Embedding: embedding,
			Ctime:     time.Now().UnixMilli(),
		}
		if err := s.chunks.Insert(ctx, chunk); err != nil {
			logger.Error("store chunk failed, dropping chunk",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		stored++
	}

	if err := s.sources.UpdateStatus(ctx, botID, source.ID, model.SourceStatusCompleted); err != nil {
		return nil, stored, fmt.Errorf("mark source completed: %w", err)
	}
	source.Status = model.SourceStatusCompleted
	if stored < len(parts) {
		logger.Warn("source completed with dropped chunks",
			zap.Int("chunks", len(parts)), zap.Int("stored", stored))
	}
	return source, stored, nil
}

// ListSources returns the bot's sources newest first, each with its chunk
// count.
func (s *IngestService) ListSources(ctx context.Context, botID string) ([]model.SourceSummary, error) {
	if _, err := s.bots.GetByID(ctx, botID); err != nil {
		return nil, err
	}
	sources, err := s.sources.ListByBot(ctx, botID)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.SourceSummary, 0, len(sources))
	for _, source := range sources {
		count, err := s.chunks.CountBySource(ctx, source.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, model.SourceSummary{Source: source, ChunkCount: count})
	}
	return summaries, nil
}

// DeleteSource removes a source and its chunks, scoped to the owning bot.
// Chunks go first so a crash in between leaves a source row to retry against
// rather than orphaned chunks.
func (s *IngestService) DeleteSource(ctx context.Context, botID, sourceID string) error {
	source, err := s.sources.GetByID(ctx, botID, sourceID)
	if err != nil {
		return err
	}
	removed, err := s.chunks.DeleteBySource(ctx, botID, sourceID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.sources.Delete(ctx, botID, sourceID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("source deleted",
		zap.String("bot_id", botID),
		zap.String("source_id", source.ID),
		zap.Int64("chunks_removed", removed))
	return nil
}

// ReapStale marks sources stuck in processing longer than maxAge as failed.
// A crash between source creation and completion would otherwise strand them
// in processing forever.
func (s *IngestService) ReapStale(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	stale, err := s.sources.ListStaleProcessing(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, source := range stale {
		if err := s.sources.UpdateStatus(ctx, source.BotID, source.ID, model.SourceStatusFailed); err != nil {
			logutil.GetLogger(ctx).Error("reap stale source failed",
				zap.String("source_id", source.ID), zap.Error(err))
			continue
		}
		reaped++
	}
	return reaped, nil
}

// archiveBody stores the raw upload so the source can be re-ingested later.
// Best effort, never blocks ingestion.
func (s *IngestService) archiveBody(ctx context.Context, source *model.Source, body string) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("%s_%s.txt", source.BotID, source.ID)
	reader := nopCloseReader{strings.NewReader(body)}
	if err := s.archive.Save(ctx, key, reader, int64(len(body))); err != nil {
		logutil.GetLogger(ctx).Warn("archive source failed",
			zap.String("source_id", source.ID),
			zap.String("store", s.archive.Type()),
			zap.Error(err))
	}
}

type nopCloseReader struct {
	*strings.Reader
}

func (nopCloseReader) Close() error { return nil }
