package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ferrostar/askbase/internal/ai"
	"github.com/ferrostar/askbase/internal/handler"
	"github.com/ferrostar/askbase/internal/model"
	"github.com/ferrostar/askbase/internal/rag"
	"github.com/ferrostar/askbase/internal/repo"
	"github.com/ferrostar/askbase/internal/service"
	"github.com/ferrostar/askbase/test/testutil"
)

type noopSender struct{}

func (noopSender) Send(to, subject, body string) error { return nil }

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec := make([]float32, 1536)
	vec[0] = 1
	return vec, nil
}

func (staticEmbedder) ModelName() string { return "static-embed" }

type staticChatProvider struct{}

func (staticChatProvider) Name() string { return "static" }

func (staticChatProvider) ChatStream(ctx context.Context, req ai.ChatRequest) (<-chan ai.StreamChunk, error) {
	out := make(chan ai.StreamChunk, 2)
	out <- ai.StreamChunk{Delta: "streamed "}
	out <- ai.StreamChunk{Delta: "answer"}
	close(out)
	return out, nil
}

func setupRouter(t *testing.T, botID string) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	ctx := context.Background()
	for _, table := range []string{"messages", "leads", "chunks", "sources"} {
		_, _ = db.ExecContext(ctx, `DELETE FROM `+table+` WHERE bot_id = $1`, botID)
	}
	_, _ = db.ExecContext(ctx, `DELETE FROM bots WHERE id = $1`, botID)

	bots := repo.NewBotRepo(db)
	require.NoError(t, bots.Create(ctx, &model.Bot{
		ID:     botID,
		Name:   "widget bot",
		Prompt: "You answer shop questions.",
		Model:  "static-model",
		Public: true,
		Ctime:  time.Now().UnixMilli(),
	}))

	sourceRepo := repo.NewSourceRepo(db)
	chunkRepo := repo.NewChunkRepo(db)
	messageRepo := repo.NewMessageRepo(db)
	leadRepo := repo.NewLeadRepo(db)

	retriever := rag.NewRetriever(rag.NewIndexSearch(chunkRepo), rag.NewScanSearch(chunkRepo, 200), 0.7, 8)
	leadService := service.NewLeadService(leadRepo, bots, noopSender{}, "owner@example.com")
	ingestService := service.NewIngestService(bots, sourceRepo, chunkRepo, rag.NewChunker(500), staticEmbedder{}, nil)
	chatService := service.NewChatService(bots, messageRepo, leadService, retriever, staticEmbedder{}, staticChatProvider{}, "default", 4000)

	deps := handler.RouterDeps{
		Bots:    handler.NewBotHandler(bots),
		Sources: handler.NewSourceHandler(ingestService),
		Chat:    handler.NewChatHandler(chatService),
		Leads:   handler.NewLeadHandler(leadService),
	}

	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/api/v1"), deps)
	return engine, cleanup
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSourceLifecycleOverHTTP(t *testing.T) {
	router, cleanup := setupRouter(t, "bot-http-1")
	defer cleanup()

	rec := doJSON(t, router, "POST", "/api/v1/bots/bot-http-1/sources",
		`{"name": "faq.txt", "type": "text", "body": "We ship worldwide. Returns are free."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Data struct {
			Source     model.Source `json:"source"`
			ChunkCount int          `json:"chunk_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, model.SourceStatusCompleted, created.Data.Source.Status)
	require.Equal(t, 1, created.Data.ChunkCount)

	rec = doJSON(t, router, "GET", "/api/v1/bots/bot-http-1/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []model.SourceSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	require.Equal(t, 1, listed.Data[0].ChunkCount)

	rec = doJSON(t, router, "DELETE", "/api/v1/bots/bot-http-1/sources/"+created.Data.Source.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "DELETE", "/api/v1/bots/bot-http-1/sources/"+created.Data.Source.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourceEmptyBodyRejected(t *testing.T) {
	router, cleanup := setupRouter(t, "bot-http-2")
	defer cleanup()

	rec := doJSON(t, router, "POST", "/api/v1/bots/bot-http-2/sources",
		`{"name": "empty.txt", "type": "text", "body": "   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "empty_document")
}

func TestChatStreamsSSE(t *testing.T) {
	router, cleanup := setupRouter(t, "bot-http-3")
	defer cleanup()

	rec := doJSON(t, router, "POST", "/api/v1/bots/bot-http-3/chat",
		`{"session_id": "sess-1", "messages": [{"role": "user", "content": "Do you ship?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	body := rec.Body.String()
	require.Contains(t, body, "streamed ")
	require.Contains(t, body, "answer")
	require.Contains(t, body, "event:done")
}

func TestChatUnknownBotIs404(t *testing.T) {
	router, cleanup := setupRouter(t, "bot-http-4")
	defer cleanup()

	rec := doJSON(t, router, "POST", "/api/v1/bots/no-such-bot/chat",
		`{"session_id": "sess-1", "messages": [{"role": "user", "content": "hi"}]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeadCaptureEndpoint(t *testing.T) {
	router, cleanup := setupRouter(t, "bot-http-5")
	defer cleanup()

	rec := doJSON(t, router, "POST", "/api/v1/leads/capture",
		`{"bot_id": "bot-http-5", "session_id": "sess-1", "email": "Visitor@Example.com", "name": "Jamie Visitor"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Duplicate capture still reports success.
	rec = doJSON(t, router, "POST", "/api/v1/leads/capture",
		`{"bot_id": "bot-http-5", "session_id": "sess-2", "email": "visitor@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "duplicate")

	rec = doJSON(t, router, "GET", "/api/v1/bots/bot-http-5/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []model.Lead `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	require.Equal(t, "visitor@example.com", listed.Data[0].Email)
	require.Equal(t, "Jamie Visitor", listed.Data[0].Name)

	rec = doJSON(t, router, "POST", "/api/v1/leads/capture",
		`{"bot_id": "bot-http-5", "email": "not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBotWidgetLookup(t *testing.T) {
	router, cleanup := setupRouter(t, "bot-http-6")
	defer cleanup()

	rec := doJSON(t, router, "GET", "/api/v1/bots/bot-http-6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "widget bot")

	rec = doJSON(t, router, "GET", "/api/v1/bots/no-such-bot", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
