package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/ai"
	"github.com/ferrostar/askbase/internal/model"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
	"github.com/ferrostar/askbase/internal/rag"
	"github.com/ferrostar/askbase/internal/repo"
)

type ChatService struct {
	bots            *repo.BotRepo
	messages        *repo.MessageRepo
	leads           *LeadService
	retriever       *rag.Retriever
	embedder        ai.IEmbedder
	provider        ai.IChatProvider
	defaultModel    string
	maxMessageChars int
}

func NewChatService(bots *repo.BotRepo, messages *repo.MessageRepo, leads *LeadService, retriever *rag.Retriever, embedder ai.IEmbedder, provider ai.IChatProvider, defaultModel string, maxMessageChars int) *ChatService {
	return &ChatService{
		bots:            bots,
		messages:        messages,
		leads:           leads,
		retriever:       retriever,
		embedder:        embedder,
		provider:        provider,
		defaultModel:    defaultModel,
		maxMessageChars: maxMessageChars,
	}
}

// ChatTurn runs one question/answer turn: retrieve context for the latest
// user message, assemble the grounding prompt and stream the completion.
// Message persistence and lead detection run concurrently with the stream and
// never delay it; their failures are logged, not surfaced. Retrieval failures
// degrade the prompt to the no-context variant instead of failing the turn.
// A turn with no user-authored message streams on the no-context prompt and
// skips persistence, lead detection and retrieval entirely.
func (s *ChatService) ChatTurn(ctx context.Context, botID, sessionID string, messages []ai.ChatMessage) (<-chan ai.StreamChunk, error) {
	if len(messages) == 0 {
		return nil, appErr.ErrInvalid
	}
	for _, msg := range messages {
		if len(msg.Content) == 0 || len(msg.Content) > s.maxMessageChars {
			return nil, appErr.ErrInvalid
		}
	}
	userMessage := latestUserMessage(messages)

	bot, err := s.bots.GetByID(ctx, botID)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, appErr.ErrNotConfigured
	}

	// Side effects detach from the request context: a caller disconnect
	// cancels the stream but durable writes run to completion.
	bgctx := context.WithoutCancel(ctx)
	var chunks []string
	if userMessage != "" {
		go s.persistMessage(bgctx, botID, sessionID, model.RoleUser, userMessage)
		go s.leads.CaptureFromMessage(bgctx, bot, sessionID, userMessage)
		chunks = s.retrieveContext(ctx, botID, userMessage)
	}
	systemPrompt := rag.BuildSystemPrompt(bot.Prompt, chunks)

	modelName := bot.Model
	if modelName == "" {
		modelName = s.defaultModel
	}
	stream, err := s.provider.ChatStream(ctx, ai.ChatRequest{
		Model:       modelName,
		Temperature: bot.Temperature,
		System:      systemPrompt,
		Messages:    messages,
	})
	if err != nil {
		return nil, err
	}
	return s.relayAndPersist(ctx, bgctx, botID, sessionID, stream), nil
}

// retrieveContext embeds the query and retrieves matching chunks. Any failure
// here returns nil so the turn proceeds on the no-context prompt.
func (s *ChatService) retrieveContext(ctx context.Context, botID, query string) []string {
	logger := logutil.GetLogger(ctx).With(zap.String("bot_id", botID))
	if s.embedder == nil || s.retriever == nil {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		logger.Warn("query embedding failed, answering without context", zap.Error(err))
		return nil
	}
	chunks, err := s.retriever.Retrieve(ctx, botID, vector)
	if err != nil {
		logger.Warn("retrieval failed, answering without context", zap.Error(err))
		return nil
	}
	return chunks
}

// relayAndPersist forwards the provider stream to the caller while
// accumulating the full answer; once the stream ends cleanly the assistant
// message is persisted off the request context.
func (s *ChatService) relayAndPersist(ctx context.Context, bgctx context.Context, botID, sessionID string, stream <-chan ai.StreamChunk) <-chan ai.StreamChunk {
	out := make(chan ai.StreamChunk)
	go func() {
		defer close(out)
		var answer strings.Builder
		failed := false
		for chunk := range stream {
			if chunk.Err != nil {
				failed = true
			} else {
				answer.WriteString(chunk.Delta)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if !failed && answer.Len() > 0 {
			s.persistMessage(bgctx, botID, sessionID, model.RoleAssistant, answer.String())
		}
	}()
	return out
}

func (s *ChatService) persistMessage(ctx context.Context, botID, sessionID, role, content string) {
	msg := &model.Message{
		BotID:     botID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Ctime:     time.Now().UnixMilli(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		logutil.GetLogger(ctx).Error("persist message failed",
			zap.String("bot_id", botID),
			zap.String("role", role),
			zap.Error(err))
	}
}

// History returns the session transcript in chronological order.
func (s *ChatService) History(ctx context.Context, botID, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return s.messages.ListBySession(ctx, botID, sessionID, limit)
}

func latestUserMessage(messages []ai.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
