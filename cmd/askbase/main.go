package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/ai"
	"github.com/ferrostar/askbase/internal/config"
	"github.com/ferrostar/askbase/internal/db"
	"github.com/ferrostar/askbase/internal/embedcache"
	"github.com/ferrostar/askbase/internal/filestore"
	"github.com/ferrostar/askbase/internal/handler"
	"github.com/ferrostar/askbase/internal/job"
	"github.com/ferrostar/askbase/internal/middleware"
	"github.com/ferrostar/askbase/internal/rag"
	"github.com/ferrostar/askbase/internal/repo"
	"github.com/ferrostar/askbase/internal/schedule"
	"github.com/ferrostar/askbase/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "askbase",
		Short: "askbase chatbot backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run askbase server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			dbConn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(dbConn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, dbConn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, dbConn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("archive", cfg.Archive.Type),
	)

	botRepo := repo.NewBotRepo(dbConn)
	sourceRepo := repo.NewSourceRepo(dbConn)
	chunkRepo := repo.NewChunkRepo(dbConn)
	messageRepo := repo.NewMessageRepo(dbConn)
	leadRepo := repo.NewLeadRepo(dbConn)

	chatProvider, err := ai.NewChatProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init chat provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := embedcache.Wrap(
		ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel),
		cfg.Retrieval.EmbedCacheSize,
		time.Duration(cfg.Retrieval.EmbedCacheTTLMin)*time.Minute,
	)

	archive, err := filestore.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive store: %w", err)
	}

	chunker := rag.NewChunker(cfg.Retrieval.ChunkTokens)
	retriever := rag.NewRetriever(
		rag.NewIndexSearch(chunkRepo),
		rag.NewScanSearch(chunkRepo, cfg.Retrieval.ScanCap),
		cfg.Retrieval.Threshold,
		cfg.Retrieval.TopK,
	)

	mailSender := service.NewEmailSender(cfg.Mail)
	leadService := service.NewLeadService(leadRepo, botRepo, mailSender, cfg.Mail.NotifyTo)
	ingestService := service.NewIngestService(botRepo, sourceRepo, chunkRepo, chunker, embedder, archive)
	chatService := service.NewChatService(botRepo, messageRepo, leadService, retriever, embedder, chatProvider, cfg.AI.Model, cfg.Retrieval.MaxMessageChars)

	deps := handler.RouterDeps{
		Bots:    handler.NewBotHandler(botRepo),
		Sources: handler.NewSourceHandler(ingestService),
		Chat:    handler.NewChatHandler(chatService),
		Leads:   handler.NewLeadHandler(leadService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllow),
			middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond),
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`.*/chat$`})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIngestReaperJob(ingestService, time.Hour), cfg.ReaperSpec); err != nil {
		return fmt.Errorf("schedule reaper: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
